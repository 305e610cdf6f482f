// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Thread identity and CPU affinity for the dedicated interrupt worker.
// Linux uses gettid(2) and sched_setaffinity(2) through x/sys/unix; other
// platforms report no thread identity and no affinity support.
package concurrency
