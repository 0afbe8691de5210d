package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"pulse/internal/models"
)

// SchedulerState is the sampling state machine position
type SchedulerState int32

const (
	StateIdle SchedulerState = iota
	StateSampling
)

func (s SchedulerState) String() string {
	if s == StateSampling {
		return "sampling"
	}
	return "idle"
}

// SchedulerOptions configures the sampling cadence
type SchedulerOptions struct {
	Interval      time.Duration // minimum time between ticks
	FrameInterval time.Duration // how often Run calls Update
	PollTimeout   time.Duration // budget for all provider calls of one tick
	HistorySize   int
	Clock         func() time.Time
}

// SnapshotSource hands out the latest completed snapshot
type SnapshotSource interface {
	Snapshot() *models.SystemSnapshot
}

// Scheduler drives the provider at a fixed cadence and owns the working
// snapshot. Readers only ever see deep copies published after a tick has
// fully completed.
type Scheduler struct {
	provider MetricsProvider
	alerts   *AlertEngine
	opts     SchedulerOptions
	now      func() time.Time
	logger   zerolog.Logger

	// mu is held for the duration of a tick
	mu         sync.Mutex
	working    *models.SystemSnapshot
	lastSample time.Time
	sampled    bool

	state     atomic.Int32
	published atomic.Pointer[models.SystemSnapshot]
}

// NewScheduler creates a scheduler. Zero options take the 1s/100ms/300
// defaults.
func NewScheduler(provider MetricsProvider, alerts *AlertEngine, opts SchedulerOptions, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = 100 * time.Millisecond
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = opts.Interval
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = models.DefaultHistorySize
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	s := &Scheduler{
		provider: provider,
		alerts:   alerts,
		opts:     opts,
		now:      now,
		logger:   logger.With().Str("component", "scheduler").Logger(),
		working:  models.NewSystemSnapshot(opts.HistorySize),
	}
	s.published.Store(s.working.Clone())
	return s
}

// Initialize reads static host details before the first tick
func (s *Scheduler) Initialize(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if initializer, ok := s.provider.(Initializer); ok {
		if err := initializer.Initialize(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("provider initialisation incomplete")
		}
	}

	if name := s.provider.SystemName(ctx); name != "" {
		s.working.SystemName = name
	}
	s.published.Store(s.working.Clone())

	s.logger.Info().
		Str("system", s.working.SystemName).
		Dur("interval", s.opts.Interval).
		Int("history_size", s.opts.HistorySize).
		Msg("scheduler initialised")
}

// Snapshot returns the most recently completed snapshot. It is never nil
// and must be treated as read-only.
func (s *Scheduler) Snapshot() *models.SystemSnapshot {
	return s.published.Load()
}

// State reports whether a tick is in progress
func (s *Scheduler) State() SchedulerState {
	return SchedulerState(s.state.Load())
}

// Update samples when the interval has elapsed since the previous tick and
// reports whether it did. It never blocks on a tick already in progress.
func (s *Scheduler) Update(ctx context.Context) bool {
	if !s.mu.TryLock() {
		return false
	}
	defer s.mu.Unlock()

	now := s.now()
	if s.sampled && now.Sub(s.lastSample) < s.opts.Interval {
		return false
	}

	s.tick(ctx, now)
	return true
}

// Tick samples immediately regardless of the interval
func (s *Scheduler) Tick(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tick(ctx, s.now())
}

// Run calls Update every frame interval until ctx is done
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.FrameInterval)
	defer ticker.Stop()

	s.logger.Info().Dur("frame_interval", s.opts.FrameInterval).Msg("sampling loop started")
	s.Update(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("sampling loop stopped")
			return nil
		case <-ticker.C:
			s.Update(ctx)
		}
	}
}

// tick runs one full sampling cycle. Caller holds s.mu.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	s.state.Store(int32(StateSampling))
	defer s.state.Store(int32(StateIdle))

	s.lastSample = now
	s.sampled = true

	pollCtx, cancel := context.WithTimeout(ctx, s.opts.PollTimeout)
	defer cancel()

	snap := s.working
	s.sampleCPU(pollCtx, snap)
	s.sampleMemory(pollCtx, snap)
	s.sampleGPU(pollCtx, snap)
	s.sampleDisk(pollCtx, snap)
	s.sampleNetwork(pollCtx, snap)
	s.sampleProcesses(pollCtx, snap)
	aggregateNetwork(snap)
	s.alerts.Evaluate(snap, now)

	snap.LastUpdate = now
	snap.SampleTimes.Push(now)
	snap.TickCount++

	s.published.Store(snap.Clone())

	s.logger.Debug().
		Uint64("tick", snap.TickCount).
		Float64("cpu", snap.CPUUsagePercent).
		Float64("memory", snap.MemoryUsagePercent).
		Int("processes", snap.TotalProcesses).
		Int("alerts", len(snap.ActiveAlerts)).
		Dur("took", s.now().Sub(now)).
		Msg("tick complete")
}

func (s *Scheduler) pollFailed(metric string, err error) {
	s.logger.Warn().Err(err).Str("metric", metric).Msg("poll failed, keeping previous value")
}

// Every metric history is pushed on every tick, with the previous value
// when the poll failed, so all series stay aligned with SampleTimes.

func (s *Scheduler) sampleCPU(ctx context.Context, snap *models.SystemSnapshot) {
	if r, err := s.provider.PollCPU(ctx); err != nil {
		s.pollFailed("cpu", err)
	} else {
		snap.CPUUsagePercent = r.UsagePercent
		if r.CoreCount > 0 {
			snap.CoreCount = r.CoreCount
		}
		if r.Name != "" {
			snap.CPUName = r.Name
		}
	}
	snap.CPUHistory.Push(snap.CPUUsagePercent)
}

func (s *Scheduler) sampleMemory(ctx context.Context, snap *models.SystemSnapshot) {
	if r, err := s.provider.PollMemory(ctx); err != nil {
		s.pollFailed("memory", err)
	} else {
		snap.TotalRAMBytes = r.TotalBytes
		snap.UsedRAMBytes = r.UsedBytes
		snap.MemoryUsagePercent = r.UsagePercent()
	}
	snap.MemoryHistory.Push(snap.MemoryUsagePercent)
}

func (s *Scheduler) sampleGPU(ctx context.Context, snap *models.SystemSnapshot) {
	if r, err := s.provider.PollGPU(ctx); err != nil {
		s.pollFailed("gpu", err)
	} else {
		snap.GPUUsagePercent = r.UsagePercent
		snap.GPUMemoryUsed = r.MemoryUsedBytes
		snap.GPUMemoryTotal = r.MemoryTotalBytes
		if r.Name != "" {
			snap.GPUName = r.Name
		}
	}
	snap.GPUHistory.Push(snap.GPUUsagePercent)
}

func (s *Scheduler) sampleDisk(ctx context.Context, snap *models.SystemSnapshot) {
	if r, err := s.provider.PollDisk(ctx); err != nil {
		s.pollFailed("disk", err)
	} else {
		snap.DiskUsagePercent = r.UsagePercent
		snap.DiskReadBytesPerSec = r.ReadBytesPerSec
		snap.DiskWriteBytesPerSec = r.WriteBytesPerSec
		if r.PrimaryDiskName != "" {
			snap.PrimaryDiskName = r.PrimaryDiskName
		}
		if r.SpacePath != "" {
			snap.DiskSpacePath = r.SpacePath
			snap.DiskSpaceUsedPercent = r.SpaceUsedPercent
		}
	}
	snap.DiskHistory.Push(snap.DiskUsagePercent)
}

func (s *Scheduler) sampleNetwork(ctx context.Context, snap *models.SystemSnapshot) {
	if r, err := s.provider.PollNetwork(ctx); err != nil {
		s.pollFailed("network", err)
	} else {
		snap.NetworkUsagePercent = r.UsagePercent
		snap.UploadBytesPerSec = r.UploadBytesPerSec
		snap.DownloadBytesPerSec = r.DownloadBytesPerSec
		if r.PrimaryInterface != "" {
			snap.PrimaryNetworkInterface = r.PrimaryInterface
		}
		snap.Network = r.Stats
	}
	snap.NetworkHistory.Push(snap.NetworkUsagePercent)
	snap.UploadHistory.Push(snap.UploadBytesPerSec)
	snap.DownloadHistory.Push(snap.DownloadBytesPerSec)
}

func (s *Scheduler) sampleProcesses(ctx context.Context, snap *models.SystemSnapshot) {
	r, err := s.provider.PollProcesses(ctx)
	if err != nil {
		s.pollFailed("processes", err)
		return
	}

	table := make(map[int32]models.ProcessInfo, len(r.Processes))
	for _, p := range r.Processes {
		table[p.PID] = p
	}
	snap.Processes = table
	snap.TotalProcesses = r.TotalCount
	snap.TotalThreads = r.TotalThreads
}

// aggregateNetwork recomputes the cumulative totals and fills the primary
// interface name when the provider left it unset
func aggregateNetwork(snap *models.SystemSnapshot) {
	snap.Network.Aggregate()
	if snap.Network.PrimaryInterface == "" {
		snap.Network.PrimaryInterface = snap.PrimaryNetworkInterface
	}
}
