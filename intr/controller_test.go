package intr

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-stack/api"
	"github.com/momentics/hioload-stack/control"
	"github.com/momentics/hioload-stack/internal/concurrency"
)

const waitFor = 2 * time.Second

func newController(t *testing.T) *Controller {
	t.Helper()
	c := New(Options{CPU: -1, LockThread: true, Metrics: control.NewMetricsRegistry()})
	t.Cleanup(c.Shutdown)
	return c
}

func nop(IRQ, any) {}

func TestRequestIRQ_Sharing(t *testing.T) {
	c := newController(t)
	x := IRQBase + 1

	require.NoError(t, c.RequestIRQ(x, nop, FlagShared, "a", nil))
	require.NoError(t, c.RequestIRQ(x, nop, FlagShared, "b", nil))
	assert.ErrorIs(t, c.RequestIRQ(x, nop, 0, "c", nil), api.ErrIrqConflict)

	y := IRQBase + 2
	require.NoError(t, c.RequestIRQ(y, nop, 0, "d", nil))
	assert.ErrorIs(t, c.RequestIRQ(y, nop, FlagShared, "e", nil), api.ErrIrqConflict)
	assert.ErrorIs(t, c.RequestIRQ(y, nop, 0, "f", nil), api.ErrIrqConflict)

	assert.Equal(t, map[string][]string{"irq36": {"a", "b"}, "irq37": {"d"}}, c.Snapshot())
}

func TestRequestIRQ_ReservedAndLimit(t *testing.T) {
	c := New(Options{CPU: -1, MaxIRQs: 1})
	assert.ErrorIs(t, c.RequestIRQ(IRQSoftirq, nop, FlagShared, "soft", nil), api.ErrIrqConflict)
	assert.ErrorIs(t, c.RequestIRQ(IRQShutdown, nop, 0, "hup", nil), api.ErrIrqConflict)

	require.NoError(t, c.RequestIRQ(IRQBase, nop, 0, "only", nil))
	assert.ErrorIs(t, c.RequestIRQ(IRQBase+1, nop, 0, "more", nil), api.ErrAllocationFailure)
}

func TestRequestIRQ_NameTruncated(t *testing.T) {
	c := New(Options{CPU: -1})
	require.NoError(t, c.RequestIRQ(IRQBase, nop, 0, "a-very-long-device-name", nil))
	assert.Equal(t, []string{"a-very-long-dev"}, c.Snapshot()["irq35"])
}

func TestRaise_BeforeRun(t *testing.T) {
	c := newController(t)
	assert.ErrorIs(t, c.Raise(IRQSoftirq), api.ErrDeliveryFailure)
	assert.False(t, c.Running())
}

func TestRun_DispatchesHandlers(t *testing.T) {
	c := newController(t)
	type hit struct {
		irq IRQ
		dev any
	}
	hits := make(chan hit, 4)
	devA, devB := "devA", "devB"
	require.NoError(t, c.RequestIRQ(IRQBase, func(irq IRQ, dev any) { hits <- hit{irq, dev} }, FlagShared, "a", devA))
	require.NoError(t, c.RequestIRQ(IRQBase, func(irq IRQ, dev any) { hits <- hit{irq, dev} }, FlagShared, "b", devB))

	require.NoError(t, c.Run())
	require.True(t, c.Running())
	require.NoError(t, c.Raise(IRQBase))

	got := []hit{<-hits, <-hits}
	assert.ElementsMatch(t, []hit{{IRQBase, devA}, {IRQBase, devB}}, got)
	assert.Eventually(t, func() bool { return c.opts.Metrics.Get(control.IRQDispatched) == 2 }, waitFor, time.Millisecond)
}

func TestRun_Softirq(t *testing.T) {
	c := newController(t)
	var runs atomic.Int32
	c.SetSoftirq(func() { runs.Add(1) })
	require.NoError(t, c.Run())

	require.NoError(t, c.RaiseSoftirq())
	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, waitFor, time.Millisecond)
}

func TestRaise_UnknownIgnored(t *testing.T) {
	c := newController(t)
	require.NoError(t, c.Run())
	assert.NoError(t, c.Raise(IRQBase+40))
	assert.NoError(t, c.Raise(IRQShutdown), "shutdown is only delivered by Shutdown")
	assert.True(t, c.Running())
}

func TestRun_Twice(t *testing.T) {
	c := newController(t)
	require.NoError(t, c.Run())
	assert.ErrorIs(t, c.Run(), api.ErrThreadCreationFailure)
	assert.ErrorIs(t, c.RequestIRQ(IRQBase, nop, 0, "late", nil), api.ErrSealed)
}

func TestRun_AffinityFailureLeavesUnstarted(t *testing.T) {
	c := New(Options{CPU: 1 << 20, LockThread: true})
	err := c.Run()
	require.ErrorIs(t, err, api.ErrMaskFailure)
	assert.False(t, c.Running())
	assert.ErrorIs(t, c.Raise(IRQSoftirq), api.ErrDeliveryFailure)
	c.Shutdown()
}

func TestShutdown_Idempotent(t *testing.T) {
	never := New(Options{CPU: -1})
	never.Shutdown()
	never.Shutdown()

	c := New(Options{CPU: -1, LockThread: true})
	require.NoError(t, c.Run())
	c.Shutdown()
	c.Shutdown()
	assert.False(t, c.Running())
	assert.ErrorIs(t, c.Raise(IRQSoftirq), api.ErrDeliveryFailure)
}

func TestShutdown_WaitsForRunningHandler(t *testing.T) {
	c := New(Options{CPU: -1, LockThread: true})
	entered := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool
	require.NoError(t, c.RequestIRQ(IRQBase, func(IRQ, any) {
		close(entered)
		<-release
		finished.Store(true)
	}, 0, "slow", nil))
	require.NoError(t, c.Run())
	require.NoError(t, c.Raise(IRQBase))
	<-entered

	stopped := make(chan struct{})
	go func() {
		c.Shutdown()
		close(stopped)
	}()
	select {
	case <-stopped:
		t.Fatal("shutdown returned while handler still running")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	<-stopped
	assert.True(t, finished.Load())
}

func TestWorker_SerializesHandlers(t *testing.T) {
	c := newController(t)
	var active, overlaps atomic.Int32
	var count atomic.Int32
	var workerTIDs sync.Map
	handler := func(IRQ, any) {
		if active.Add(1) > 1 {
			overlaps.Add(1)
		}
		workerTIDs.Store(concurrency.ThreadID(), true)
		runtime.Gosched()
		active.Add(-1)
		count.Add(1)
	}
	require.NoError(t, c.RequestIRQ(IRQBase, handler, 0, "a", nil))
	require.NoError(t, c.RequestIRQ(IRQBase+1, handler, 0, "b", nil))
	c.SetSoftirq(func() { handler(IRQSoftirq, nil) })
	require.NoError(t, c.Run())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = c.Raise(IRQBase)
				_ = c.Raise(IRQBase + 1)
				_ = c.RaiseSoftirq()
			}
		}()
	}
	wg.Wait()
	require.Eventually(t, func() bool { return count.Load() > 0 }, waitFor, time.Millisecond)
	c.Shutdown()

	assert.Zero(t, overlaps.Load())
	n := 0
	workerTIDs.Range(func(k, _ any) bool {
		n++
		assert.Equal(t, c.WorkerID(), k)
		return true
	})
	assert.Equal(t, 1, n, "all handlers ran on one thread")
}

func TestInWorker(t *testing.T) {
	c := newController(t)
	result := make(chan bool, 1)
	require.NoError(t, c.RequestIRQ(IRQEvent, func(IRQ, any) { result <- c.InWorker() }, 0, "event", nil))
	require.NoError(t, c.Run())
	require.NoError(t, c.Raise(IRQEvent))

	if runtime.GOOS == "linux" {
		assert.True(t, <-result)
		assert.False(t, c.InWorker())
	} else {
		<-result
	}
}

func TestStopped(t *testing.T) {
	c := newController(t)
	assert.False(t, c.Stopped())
	require.NoError(t, c.Run())
	assert.False(t, c.Stopped())
	c.Shutdown()
	assert.True(t, c.Stopped())
	assert.False(t, c.Running())
}
