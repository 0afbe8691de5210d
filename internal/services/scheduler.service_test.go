package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse/internal/models"
)

func newTestScheduler(provider MetricsProvider, clock *manualClock) *Scheduler {
	return NewScheduler(provider, NewAlertEngine(false, zerolog.Nop()), SchedulerOptions{
		Interval:      time.Second,
		FrameInterval: 10 * time.Millisecond,
		PollTimeout:   time.Second,
		HistorySize:   5,
		Clock:         clock.Now,
	}, zerolog.Nop())
}

func TestScheduler_SnapshotBeforeFirstTick(t *testing.T) {
	s := newTestScheduler(newFakeProvider(), newManualClock())

	snap := s.Snapshot()
	require.NotNil(t, snap)
	assert.Zero(t, snap.TickCount)
	assert.Equal(t, 5, snap.CPUHistory.Cap())
	assert.Equal(t, StateIdle, s.State())
}

func TestScheduler_Initialize(t *testing.T) {
	provider := newFakeProvider()
	s := newTestScheduler(provider, newManualClock())

	s.Initialize(context.Background())

	assert.True(t, provider.initialized)
	assert.Equal(t, "testhost (linux)", s.Snapshot().SystemName)
}

func TestScheduler_UpdateIsElapsedGated(t *testing.T) {
	clock := newManualClock()
	s := newTestScheduler(newFakeProvider(), clock)
	ctx := context.Background()

	assert.True(t, s.Update(ctx), "first update samples immediately")
	assert.False(t, s.Update(ctx))

	clock.Advance(999 * time.Millisecond)
	assert.False(t, s.Update(ctx))

	clock.Advance(time.Millisecond)
	assert.True(t, s.Update(ctx))

	// no catch-up after a long stall
	clock.Advance(10 * time.Second)
	assert.True(t, s.Update(ctx))
	assert.False(t, s.Update(ctx))

	assert.Equal(t, uint64(3), s.Snapshot().TickCount)
}

func TestScheduler_TickOrder(t *testing.T) {
	provider := newFakeProvider()
	s := newTestScheduler(provider, newManualClock())

	s.Tick(context.Background())

	assert.Equal(t, []string{"cpu", "memory", "gpu", "disk", "network", "processes"}, provider.Calls())
}

func TestScheduler_TickPopulatesSnapshot(t *testing.T) {
	clock := newManualClock()
	s := newTestScheduler(newFakeProvider(), clock)

	s.Tick(context.Background())
	snap := s.Snapshot()

	assert.Equal(t, 10.0, snap.CPUUsagePercent)
	assert.Equal(t, 8, snap.CoreCount)
	assert.Equal(t, "Test CPU", snap.CPUName)
	assert.Equal(t, 25.0, snap.MemoryUsagePercent)
	assert.Equal(t, uint64(1000), snap.TotalRAMBytes)
	assert.Equal(t, "Test GPU", snap.GPUName)
	assert.Equal(t, "sda", snap.PrimaryDiskName)
	assert.Equal(t, uint64(100), snap.UploadBytesPerSec)
	assert.Equal(t, uint64(200), snap.DownloadBytesPerSec)
	assert.Equal(t, "eth0", snap.PrimaryNetworkInterface)
	assert.Equal(t, uint64(5000), snap.Network.TotalBytesReceived)
	assert.Equal(t, uint64(1000), snap.Network.TotalBytesSent)
	assert.Len(t, snap.Processes, 2)
	assert.Equal(t, 2, snap.TotalProcesses)
	assert.Equal(t, 5, snap.TotalThreads)
	assert.Equal(t, clock.Now(), snap.LastUpdate)
	assert.Equal(t, []time.Time{clock.Now()}, snap.SampleTimes.Values())
	assert.Equal(t, models.DefaultAlertRules(), snap.AlertRules)
}

func TestScheduler_FailedPollKeepsPreviousValue(t *testing.T) {
	clock := newManualClock()
	provider := newFakeProvider()
	s := newTestScheduler(provider, clock)
	ctx := context.Background()

	provider.set(func(f *fakeProvider) { f.cpu.UsagePercent = 40 })
	s.Tick(ctx)

	provider.set(func(f *fakeProvider) {
		f.cpuErr = errors.New("counter unavailable")
		f.memErr = errors.New("counter unavailable")
	})
	clock.Advance(time.Second)
	s.Tick(ctx)

	snap := s.Snapshot()
	assert.Equal(t, 40.0, snap.CPUUsagePercent)
	assert.Equal(t, []float64{40, 40}, snap.CPUHistory.Values())
	assert.Equal(t, []float64{25, 25}, snap.MemoryHistory.Values())
	assert.Equal(t, 2, snap.SampleTimes.Len(), "histories stay aligned with sample times")
	assert.Equal(t, uint64(2), snap.TickCount)
}

func TestScheduler_FailedProcessPollKeepsTable(t *testing.T) {
	provider := newFakeProvider()
	s := newTestScheduler(provider, newManualClock())
	ctx := context.Background()

	s.Tick(ctx)
	provider.set(func(f *fakeProvider) { f.prcErr = errors.New("permission denied") })
	s.Tick(ctx)

	snap := s.Snapshot()
	assert.Len(t, snap.Processes, 2)
	assert.Equal(t, 2, snap.TotalProcesses)
}

func TestScheduler_ProcessTableRebuiltEachTick(t *testing.T) {
	provider := newFakeProvider()
	s := newTestScheduler(provider, newManualClock())
	ctx := context.Background()

	s.Tick(ctx)
	provider.set(func(f *fakeProvider) {
		f.procs = models.ProcessReading{
			Processes:  []models.ProcessInfo{{PID: 7, Name: "new"}},
			TotalCount: 1,
		}
	})
	s.Tick(ctx)

	snap := s.Snapshot()
	require.Len(t, snap.Processes, 1)
	assert.Equal(t, "new", snap.Processes[7].Name)
}

func TestScheduler_PublishedSnapshotsAreIndependent(t *testing.T) {
	clock := newManualClock()
	provider := newFakeProvider()
	s := newTestScheduler(provider, clock)
	ctx := context.Background()

	s.Tick(ctx)
	first := s.Snapshot()

	provider.set(func(f *fakeProvider) { f.cpu.UsagePercent = 70 })
	clock.Advance(time.Second)
	s.Tick(ctx)
	second := s.Snapshot()

	assert.Equal(t, uint64(1), first.TickCount)
	assert.Equal(t, []float64{10}, first.CPUHistory.Values())
	assert.Equal(t, uint64(2), second.TickCount)
	assert.Equal(t, []float64{10, 70}, second.CPUHistory.Values())
}

func TestScheduler_HistoryIsBounded(t *testing.T) {
	clock := newManualClock()
	provider := newFakeProvider()
	s := newTestScheduler(provider, clock)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		v := float64(i)
		provider.set(func(f *fakeProvider) { f.cpu.UsagePercent = v })
		s.Tick(ctx)
		clock.Advance(time.Second)
	}

	snap := s.Snapshot()
	assert.Equal(t, []float64{3, 4, 5, 6, 7}, snap.CPUHistory.Values())
	assert.Equal(t, 5, snap.SampleTimes.Len())
}

func TestScheduler_AlertsEvaluatedEachTick(t *testing.T) {
	clock := newManualClock()
	provider := newFakeProvider()
	s := newTestScheduler(provider, clock)
	ctx := context.Background()

	for _, v := range []float64{85, 130} {
		provider.set(func(f *fakeProvider) { f.cpu.UsagePercent = v })
		s.Tick(ctx)
	}
	snap := s.Snapshot()
	require.Len(t, snap.ActiveAlerts, 1)
	assert.Equal(t, models.SeverityCritical, snap.ActiveAlerts[0].Severity)

	provider.set(func(f *fakeProvider) { f.cpu.UsagePercent = 50 })
	s.Tick(ctx)
	assert.Empty(t, s.Snapshot().ActiveAlerts)
}

func TestScheduler_UpdateIsNonReentrant(t *testing.T) {
	provider := newFakeProvider()
	block := make(chan struct{})
	entered := make(chan struct{})
	provider.set(func(f *fakeProvider) {
		f.block = block
		f.entered = entered
	})
	s := newTestScheduler(provider, newManualClock())
	ctx := context.Background()

	done := make(chan bool)
	go func() { done <- s.Update(ctx) }()

	<-entered
	assert.Equal(t, StateSampling, s.State())
	assert.False(t, s.Update(ctx), "a concurrent update must not block or sample")

	provider.set(func(f *fakeProvider) { f.block = nil })
	close(block)
	assert.True(t, <-done)
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, uint64(1), s.Snapshot().TickCount)
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	s := newTestScheduler(newFakeProvider(), newManualClock())
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		return s.Snapshot().TickCount == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSchedulerState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "sampling", StateSampling.String())
}
