// Package pool
// Author: momentics <momentics@gmail.com>
//
// Size-classed byte buffer pooling for packet payloads. Ingress copies caller
// data into a pooled buffer; the softirq dispatcher returns it once the
// protocol handler has returned.
package pool
