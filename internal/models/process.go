package models

// ProcessInfo is one row of the process table. The pid identifies a process
// only within the snapshot it belongs to.
type ProcessInfo struct {
	PID         int32   `json:"pid"`
	Name        string  `json:"name"`
	MemoryBytes uint64  `json:"memory_bytes"`
	CPUPercent  float64 `json:"cpu_percent"`
	ThreadCount uint32  `json:"thread_count"`
	Status      string  `json:"status"`
	Path        string  `json:"path,omitempty"`
}

// ProcessReading is one enumeration of the OS process table
type ProcessReading struct {
	Processes    []ProcessInfo `json:"processes"`
	TotalCount   int           `json:"total_count"`
	TotalThreads int           `json:"total_threads"`
}
