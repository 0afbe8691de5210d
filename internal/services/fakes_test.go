package services

import (
	"context"
	"sync"
	"time"

	"pulse/internal/models"
)

// manualClock is a controllable time source
type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func newManualClock() *manualClock {
	return &manualClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeProvider returns canned readings and records the poll order
type fakeProvider struct {
	mu sync.Mutex

	cpu    models.CPUReading
	cpuErr error
	mem    models.MemoryReading
	memErr error
	gpu    models.GPUReading
	gpuErr error
	disk   models.DiskReading
	dskErr error
	net    models.NetworkReading
	netErr error
	procs  models.ProcessReading
	prcErr error
	name   string

	initialized bool
	calls       []string

	// block, when set, stalls PollCPU until closed
	block   chan struct{}
	entered chan struct{}
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		cpu:  models.CPUReading{UsagePercent: 10, CoreCount: 8, Name: "Test CPU"},
		mem:  models.MemoryReading{TotalBytes: 1000, UsedBytes: 250},
		gpu:  models.GPUReading{UsagePercent: 5, Name: "Test GPU"},
		disk: models.DiskReading{UsagePercent: 2, PrimaryDiskName: "sda"},
		net: models.NetworkReading{
			UsagePercent:        1,
			UploadBytesPerSec:   100,
			DownloadBytesPerSec: 200,
			PrimaryInterface:    "eth0",
			Stats: models.NetworkStats{
				PrimaryInterface: "eth0",
				Interfaces: []models.NetworkInterface{
					{Name: "eth0", BytesReceived: 5000, BytesSent: 1000, IsConnected: true},
				},
			},
		},
		procs: models.ProcessReading{
			Processes: []models.ProcessInfo{
				{PID: 1, Name: "init", ThreadCount: 1},
				{PID: 42, Name: "worker", ThreadCount: 4},
			},
			TotalCount:   2,
			TotalThreads: 5,
		},
		name: "testhost (linux)",
	}
}

func (f *fakeProvider) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeProvider) set(fn func(*fakeProvider)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeProvider) Initialize(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initialized = true
	return nil
}

func (f *fakeProvider) PollCPU(ctx context.Context) (models.CPUReading, error) {
	f.mu.Lock()
	block, entered := f.block, f.entered
	f.mu.Unlock()
	if block != nil {
		close(entered)
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("cpu")
	return f.cpu, f.cpuErr
}

func (f *fakeProvider) PollMemory(ctx context.Context) (models.MemoryReading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("memory")
	return f.mem, f.memErr
}

func (f *fakeProvider) PollGPU(ctx context.Context) (models.GPUReading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("gpu")
	return f.gpu, f.gpuErr
}

func (f *fakeProvider) PollDisk(ctx context.Context) (models.DiskReading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("disk")
	return f.disk, f.dskErr
}

func (f *fakeProvider) PollNetwork(ctx context.Context) (models.NetworkReading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("network")
	return f.net, f.netErr
}

func (f *fakeProvider) PollProcesses(ctx context.Context) (models.ProcessReading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("processes")
	return f.procs, f.prcErr
}

func (f *fakeProvider) SystemName(ctx context.Context) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.name
}

func (f *fakeProvider) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// staticSource serves a fixed snapshot
type staticSource struct {
	snapshot *models.SystemSnapshot
}

func (s staticSource) Snapshot() *models.SystemSnapshot { return s.snapshot }
