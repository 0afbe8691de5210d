package services

import (
	"context"

	"pulse/internal/models"
)

// MetricsProvider returns instantaneous host readings on demand. The
// scheduler depends only on this interface; one implementation exists per
// platform. Readings are best effort: an error means the reading could not
// be taken and the caller should keep whatever it had before.
type MetricsProvider interface {
	PollCPU(ctx context.Context) (models.CPUReading, error)
	PollMemory(ctx context.Context) (models.MemoryReading, error)
	PollGPU(ctx context.Context) (models.GPUReading, error)
	PollDisk(ctx context.Context) (models.DiskReading, error)
	PollNetwork(ctx context.Context) (models.NetworkReading, error)
	PollProcesses(ctx context.Context) (models.ProcessReading, error)
	SystemName(ctx context.Context) string
}

// Initializer is implemented by providers that read static host details
// once before the first tick.
type Initializer interface {
	Initialize(ctx context.Context) error
}
