// File: core/inet/checksum.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package inet

// Checksum16 computes the Internet checksum (RFC 1071) over data read as
// big-endian 16-bit words. initial is a partial one's-complement sum added
// before the first word, e.g. a pseudo-header sum or a previously computed
// checksum. A trailing odd byte is padded with zero.
//
// A region that already carries its own checksum sums to zero.
func Checksum16(data []byte, initial uint16) uint16 {
	sum := uint32(initial)
	n := len(data)
	for i := 0; i+1 < n; i += 2 {
		sum += uint32(data[i])<<8 | uint32(data[i+1])
	}
	if n%2 == 1 {
		sum += uint32(data[n-1]) << 8
	}
	for sum>>16 != 0 {
		sum = (sum & 0xffff) + (sum >> 16)
	}
	return ^uint16(sum)
}

// PutChecksum zeroes the 16-bit field at off, computes Checksum16 over data
// and stores the result at off. It returns the computed value.
//
// The field is big-endian at an even off. At an odd off its bytes fall into
// two different words, so the sum is stored byte-swapped; either way data
// verifies to zero afterwards.
func PutChecksum(data []byte, off int) uint16 {
	data[off], data[off+1] = 0, 0
	sum := Checksum16(data, 0)
	if off%2 == 0 {
		data[off], data[off+1] = byte(sum>>8), byte(sum)
	} else {
		data[off], data[off+1] = byte(sum), byte(sum>>8)
	}
	return sum
}
