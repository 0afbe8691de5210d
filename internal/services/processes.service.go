package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/process"

	"pulse/internal/models"
)

// processHandle keeps a gopsutil handle alive across ticks so per-process
// CPU can be computed from the previous call. A handle is only reused when
// both pid and create time match, so a recycled pid starts fresh.
type processHandle struct {
	proc       *process.Process
	createTime int64
}

// processTable enumerates processes and owns the handle cache
type processTable struct {
	mu      sync.Mutex
	handles map[int32]processHandle
	logger  zerolog.Logger
}

func newProcessTable(logger zerolog.Logger) *processTable {
	return &processTable{
		handles: make(map[int32]processHandle),
		logger:  logger,
	}
}

// collect enumerates every process visible to us. Processes that exit
// mid-enumeration are skipped.
func (t *processTable) collect(ctx context.Context) (models.ProcessReading, error) {
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return models.ProcessReading{}, fmt.Errorf("list pids: %w", err)
	}
	return t.enumerate(ctx, pids), nil
}

// enumerate describes pids in order. When ctx runs out the rows gathered
// so far are returned and handles of the pids not reached are kept for
// the next tick.
func (t *processTable) enumerate(ctx context.Context, pids []int32) models.ProcessReading {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[int32]processHandle, len(pids))
	reading := models.ProcessReading{Processes: make([]models.ProcessInfo, 0, len(pids))}

	for i, pid := range pids {
		if ctx.Err() != nil {
			t.logger.Warn().
				Int("described", len(reading.Processes)).
				Int("skipped", len(pids)-i).
				Msg("process enumeration cut short by poll timeout")
			for _, rest := range pids[i:] {
				if cached, ok := t.handles[rest]; ok {
					seen[rest] = cached
				}
			}
			break
		}

		handle, ok := t.handle(ctx, pid)
		if !ok {
			continue
		}
		seen[pid] = handle

		info, ok := describeProcess(ctx, handle.proc)
		if !ok {
			continue
		}
		reading.Processes = append(reading.Processes, info)
		reading.TotalThreads += int(info.ThreadCount)
	}

	t.handles = seen
	reading.TotalCount = len(reading.Processes)
	return reading
}

func (t *processTable) handle(ctx context.Context, pid int32) (processHandle, bool) {
	proc, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return processHandle{}, false
	}
	created, err := proc.CreateTimeWithContext(ctx)
	if err != nil {
		return processHandle{}, false
	}

	if cached, ok := t.handles[pid]; ok && cached.createTime == created {
		return cached, true
	}
	return processHandle{proc: proc, createTime: created}, true
}

// describeProcess builds one table row. Only the name is mandatory; every
// other attribute degrades to its zero value.
func describeProcess(ctx context.Context, p *process.Process) (models.ProcessInfo, bool) {
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return models.ProcessInfo{}, false
	}

	info := models.ProcessInfo{
		PID:    p.Pid,
		Name:   name,
		Status: "unknown",
	}

	if memInfo, err := p.MemoryInfoWithContext(ctx); err == nil && memInfo != nil {
		info.MemoryBytes = memInfo.RSS
	}
	if cpuPercent, err := p.PercentWithContext(ctx, 0); err == nil {
		info.CPUPercent = cpuPercent
	}
	if threads, err := p.NumThreadsWithContext(ctx); err == nil && threads > 0 {
		info.ThreadCount = uint32(threads)
	}
	if status, err := p.StatusWithContext(ctx); err == nil && len(status) > 0 {
		info.Status = mapProcessState(status[0])
	}
	if exe, err := p.ExeWithContext(ctx); err == nil {
		info.Path = exe
	}

	return info, true
}

// mapProcessState converts process state codes to readable strings
func mapProcessState(state string) string {
	if len(state) == 0 {
		return "unknown"
	}
	if len(state) > 1 {
		switch strings.ToLower(state) {
		case "sleep":
			return "sleeping"
		case "stop":
			return "stopped"
		case "wait":
			return "waiting"
		case "lock":
			return "locked"
		default:
			return strings.ToLower(state)
		}
	}
	switch state[0] {
	case 'R':
		return "running"
	case 'S':
		return "sleeping"
	case 'D':
		return "disk_sleep"
	case 'Z':
		return "zombie"
	case 'T':
		return "stopped"
	case 't':
		return "tracing_stop"
	case 'W':
		return "paging"
	case 'X', 'x':
		return "dead"
	case 'K':
		return "wakekill"
	case 'P':
		return "parked"
	case 'I':
		return "idle"
	default:
		return state
	}
}

// ProcessSortKey selects the column a process listing is ordered by
type ProcessSortKey string

const (
	SortByCPU     ProcessSortKey = "cpu"
	SortByMemory  ProcessSortKey = "mem"
	SortByPID     ProcessSortKey = "pid"
	SortByName    ProcessSortKey = "name"
	SortByThreads ProcessSortKey = "threads"
)

// ParseProcessSortKey validates a sort column name
func ParseProcessSortKey(s string) (ProcessSortKey, error) {
	switch key := ProcessSortKey(strings.ToLower(s)); key {
	case SortByCPU, SortByMemory, SortByPID, SortByName, SortByThreads:
		return key, nil
	case "memory":
		return SortByMemory, nil
	default:
		return "", fmt.Errorf("unknown sort key %q", s)
	}
}

// ProcessQuery describes a ranked process listing
type ProcessQuery struct {
	Sort       ProcessSortKey
	Descending bool
	Limit      int // 0 means no limit
}

// TopProcesses ranks the process table of a snapshot.
// Pipeline: Collect → Sort → Limit
func TopProcesses(snapshot *models.SystemSnapshot, q ProcessQuery) []models.ProcessInfo {
	// COLLECT: pid order gives ties a stable tiebreak
	collected := snapshot.ProcessList()

	// SORT
	sorted := sortProcesses(collected, q.Sort, q.Descending)

	// LIMIT
	return limitTo(sorted, q.Limit)
}

func sortProcesses(processes []models.ProcessInfo, key ProcessSortKey, descending bool) []models.ProcessInfo {
	sorted := make([]models.ProcessInfo, len(processes))
	copy(sorted, processes)

	less := func(a, b models.ProcessInfo) bool {
		switch key {
		case SortByMemory:
			return a.MemoryBytes < b.MemoryBytes
		case SortByPID:
			return a.PID < b.PID
		case SortByName:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		case SortByThreads:
			return a.ThreadCount < b.ThreadCount
		default:
			return a.CPUPercent < b.CPUPercent
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		if descending {
			return less(sorted[j], sorted[i])
		}
		return less(sorted[i], sorted[j])
	})
	return sorted
}

// LIMIT: Keep only top N
func limitTo(processes []models.ProcessInfo, limit int) []models.ProcessInfo {
	if limit > 0 && len(processes) > limit {
		return processes[:limit]
	}
	return processes
}
