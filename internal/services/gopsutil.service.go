package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	psnet "github.com/shirou/gopsutil/v3/net"

	"pulse/internal/models"
)

const GB = 1024 * 1024 * 1024

const defaultSysRoot = "/sys"

// GopsutilOptions configures the host provider
type GopsutilOptions struct {
	DiskDevice string // empty picks the busiest device
	SpacePath  string // mount point reported as disk space usage
	SysRoot    string // sysfs mount, "/sys" when empty
	Clock      func() time.Time
}

type diskSample struct {
	device string
	read   uint64
	write  uint64
	ioTime uint64
	at     time.Time
	valid  bool
}

type netSample struct {
	sent  uint64
	recv  uint64
	at    time.Time
	valid bool
}

// GopsutilProvider implements MetricsProvider for the local host on top of
// gopsutil. Rates are derived from the previous poll of the same counter.
type GopsutilProvider struct {
	opts   GopsutilOptions
	now    func() time.Time
	logger zerolog.Logger
	procs  *processTable

	mu        sync.Mutex
	cpuName   string
	coreCount int
	lastDisk  diskSample
	lastNet   netSample
}

// NewGopsutilProvider creates a provider for the local host
func NewGopsutilProvider(opts GopsutilOptions, logger zerolog.Logger) *GopsutilProvider {
	if opts.SysRoot == "" {
		opts.SysRoot = defaultSysRoot
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	logger = logger.With().Str("component", "provider").Logger()
	return &GopsutilProvider{
		opts:   opts,
		now:    now,
		logger: logger,
		procs:  newProcessTable(logger),
	}
}

// Initialize reads the static CPU description and primes the rate counters
// so the first tick already reports throughput.
func (p *GopsutilProvider) Initialize(ctx context.Context) error {
	var errs []error

	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("cpu info: %w", err))
	}
	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		errs = append(errs, fmt.Errorf("cpu counts: %w", err))
	}

	p.mu.Lock()
	if len(infos) > 0 {
		p.cpuName = strings.TrimSpace(infos[0].ModelName)
	}
	p.coreCount = cores
	p.mu.Unlock()

	if _, err := cpu.PercentWithContext(ctx, 0, false); err != nil {
		errs = append(errs, fmt.Errorf("cpu percent: %w", err))
	}
	if _, err := p.PollDisk(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := p.PollNetwork(ctx); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// PollCPU returns overall CPU utilisation since the previous call
func (p *GopsutilProvider) PollCPU(ctx context.Context) (models.CPUReading, error) {
	percent, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return models.CPUReading{}, fmt.Errorf("cpu percent: %w", err)
	}
	if len(percent) == 0 {
		return models.CPUReading{}, errors.New("cpu percent: empty result")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return models.CPUReading{
		UsagePercent: clampPercent(percent[0]),
		CoreCount:    p.coreCount,
		Name:         p.cpuName,
	}, nil
}

// PollMemory returns physical memory usage
func (p *GopsutilProvider) PollMemory(ctx context.Context) (models.MemoryReading, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return models.MemoryReading{}, fmt.Errorf("virtual memory: %w", err)
	}
	return models.MemoryReading{TotalBytes: vm.Total, UsedBytes: vm.Used}, nil
}

// PollGPU reads the first DRM device exposing a busy counter. Hosts without
// one report a zero reading named UnknownGPU.
func (p *GopsutilProvider) PollGPU(ctx context.Context) (models.GPUReading, error) {
	if err := ctx.Err(); err != nil {
		return models.GPUReading{}, err
	}
	reading, _ := readDRMGPU(p.opts.SysRoot)
	return reading, nil
}

// PollDisk returns throughput and busy time of the primary disk
func (p *GopsutilProvider) PollDisk(ctx context.Context) (models.DiskReading, error) {
	counters, err := disk.IOCountersWithContext(ctx)
	if err != nil {
		return models.DiskReading{}, fmt.Errorf("disk io counters: %w", err)
	}

	device, stat, ok := pickDisk(counters, p.opts.DiskDevice)
	if !ok {
		return models.DiskReading{}, errors.New("disk io counters: no physical disk found")
	}

	now := p.now()
	p.mu.Lock()
	prev := p.lastDisk
	p.lastDisk = diskSample{
		device: device,
		read:   stat.ReadBytes,
		write:  stat.WriteBytes,
		ioTime: stat.IoTime,
		at:     now,
		valid:  true,
	}
	p.mu.Unlock()

	reading := models.DiskReading{PrimaryDiskName: device}
	if prev.valid && prev.device == device {
		elapsed := now.Sub(prev.at)
		reading.ReadBytesPerSec = counterRate(prev.read, stat.ReadBytes, elapsed)
		reading.WriteBytesPerSec = counterRate(prev.write, stat.WriteBytes, elapsed)
		reading.UsagePercent = busyPercent(prev.ioTime, stat.IoTime, elapsed)
	}

	if p.opts.SpacePath != "" {
		usage, err := disk.UsageWithContext(ctx, p.opts.SpacePath)
		if err != nil {
			p.logger.Debug().Err(err).Str("path", p.opts.SpacePath).Msg("disk space unavailable")
		} else {
			reading.SpacePath = p.opts.SpacePath
			reading.SpaceUsedPercent = usage.UsedPercent
			reading.SpaceTotalBytes = usage.Total
			reading.SpaceUsedBytes = usage.Used
		}
	}

	return reading, nil
}

// PollNetwork returns per-interface counters plus aggregate throughput
func (p *GopsutilProvider) PollNetwork(ctx context.Context) (models.NetworkReading, error) {
	counters, err := psnet.IOCountersWithContext(ctx, true)
	if err != nil {
		return models.NetworkReading{}, fmt.Errorf("network io counters: %w", err)
	}

	ifaces, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		p.logger.Debug().Err(err).Msg("interface list unavailable")
	}

	stats := buildNetworkStats(counters, ifaces)
	for i := range stats.Interfaces {
		stats.Interfaces[i].SpeedMbps = readLinkSpeed(p.opts.SysRoot, stats.Interfaces[i].Name)
	}

	conns, err := psnet.ConnectionsWithContext(ctx, "tcp")
	if err != nil {
		p.logger.Debug().Err(err).Msg("connection table unavailable")
	}
	for _, conn := range conns {
		if conn.Status == "ESTABLISHED" {
			stats.ActiveConnections++
		}
	}

	var sent, recv uint64
	for _, iface := range stats.Interfaces {
		if iface.Type == "loopback" {
			continue
		}
		sent += iface.BytesSent
		recv += iface.BytesReceived
	}

	now := p.now()
	p.mu.Lock()
	prev := p.lastNet
	p.lastNet = netSample{sent: sent, recv: recv, at: now, valid: true}
	p.mu.Unlock()

	reading := models.NetworkReading{}
	if prev.valid {
		elapsed := now.Sub(prev.at)
		reading.UploadBytesPerSec = counterRate(prev.sent, sent, elapsed)
		reading.DownloadBytesPerSec = counterRate(prev.recv, recv, elapsed)
	}

	primary := pickPrimaryInterface(stats.Interfaces)
	if primary != nil {
		stats.PrimaryInterface = primary.Name
		reading.UsagePercent = linkUsagePercent(reading.UploadBytesPerSec+reading.DownloadBytesPerSec, primary.SpeedMbps)
	} else {
		stats.PrimaryInterface = "Unknown"
	}
	reading.PrimaryInterface = stats.PrimaryInterface
	reading.Stats = stats

	return reading, nil
}

// PollProcesses enumerates the OS process table
func (p *GopsutilProvider) PollProcesses(ctx context.Context) (models.ProcessReading, error) {
	return p.procs.collect(ctx)
}

// SystemName describes the host, e.g. "build01 (ubuntu 24.04)"
func (p *GopsutilProvider) SystemName(ctx context.Context) string {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		p.logger.Debug().Err(err).Msg("host info unavailable")
		return "Unknown"
	}

	platform := strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
	switch {
	case info.Hostname == "" && platform == "":
		return "Unknown"
	case platform == "":
		return info.Hostname
	case info.Hostname == "":
		return platform
	default:
		return fmt.Sprintf("%s (%s)", info.Hostname, platform)
	}
}

// counterRate turns the growth of a cumulative counter into a per-second
// rate. A counter that went backwards was reset and yields 0.
func counterRate(prev, cur uint64, elapsed time.Duration) uint64 {
	if cur < prev {
		return 0
	}
	seconds := elapsed.Seconds()
	if seconds <= 0 {
		seconds = 1
	}
	return uint64(float64(cur-prev) / seconds)
}

// busyPercent converts an io-time delta in milliseconds into the share of
// wall time the device was busy
func busyPercent(prevMs, curMs uint64, elapsed time.Duration) float64 {
	if curMs < prevMs || elapsed <= 0 {
		return 0
	}
	wallMs := float64(elapsed) / float64(time.Millisecond)
	return clampPercent(float64(curMs-prevMs) / wallMs * 100)
}

func clampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

func isVirtualDisk(name string) bool {
	for _, prefix := range []string{"loop", "ram", "zram", "dm-", "sr"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// pickDisk returns the preferred device when present, otherwise the
// physical device with the most cumulative traffic
func pickDisk(counters map[string]disk.IOCountersStat, preferred string) (string, disk.IOCountersStat, bool) {
	if preferred != "" {
		if stat, ok := counters[preferred]; ok {
			return preferred, stat, true
		}
	}

	names := make([]string, 0, len(counters))
	for name := range counters {
		if !isVirtualDisk(name) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", disk.IOCountersStat{}, false
	}
	sort.Strings(names)

	best := names[0]
	for _, name := range names[1:] {
		a, b := counters[name], counters[best]
		if a.ReadBytes+a.WriteBytes > b.ReadBytes+b.WriteBytes {
			best = name
		}
	}
	return best, counters[best], true
}

func interfaceType(name string, flags []string) string {
	for _, f := range flags {
		if f == "loopback" {
			return "loopback"
		}
	}
	switch {
	case name == "lo" || strings.HasPrefix(name, "lo0"):
		return "loopback"
	case strings.HasPrefix(name, "wl"):
		return "wireless"
	case strings.HasPrefix(name, "en"), strings.HasPrefix(name, "eth"):
		return "ethernet"
	case strings.HasPrefix(name, "docker"), strings.HasPrefix(name, "veth"),
		strings.HasPrefix(name, "br-"), strings.HasPrefix(name, "virbr"):
		return "virtual"
	case strings.HasPrefix(name, "tun"), strings.HasPrefix(name, "tap"),
		strings.HasPrefix(name, "wg"), strings.HasPrefix(name, "utun"):
		return "tunnel"
	default:
		return "other"
	}
}

// buildNetworkStats joins the counters with interface metadata, ordered by name
func buildNetworkStats(counters []psnet.IOCountersStat, ifaces []psnet.InterfaceStat) models.NetworkStats {
	meta := make(map[string]psnet.InterfaceStat, len(ifaces))
	for _, iface := range ifaces {
		meta[iface.Name] = iface
	}

	stats := models.NetworkStats{Interfaces: make([]models.NetworkInterface, 0, len(counters))}
	for _, c := range counters {
		iface := models.NetworkInterface{
			Name:            c.Name,
			BytesReceived:   c.BytesRecv,
			BytesSent:       c.BytesSent,
			PacketsReceived: c.PacketsRecv,
			PacketsSent:     c.PacketsSent,
		}

		var flags []string
		if m, ok := meta[c.Name]; ok {
			flags = m.Flags
			iface.MACAddress = m.HardwareAddr
			for _, addr := range m.Addrs {
				iface.Addresses = append(iface.Addresses, addr.Addr)
			}
			for _, f := range m.Flags {
				if f == "up" {
					iface.IsConnected = true
				}
			}
		}
		iface.Type = interfaceType(c.Name, flags)

		stats.Interfaces = append(stats.Interfaces, iface)
	}

	sort.Slice(stats.Interfaces, func(i, j int) bool {
		return stats.Interfaces[i].Name < stats.Interfaces[j].Name
	})
	stats.Aggregate()
	return stats
}

// pickPrimaryInterface returns the connected non-loopback interface with the
// most cumulative traffic, or nil
func pickPrimaryInterface(ifaces []models.NetworkInterface) *models.NetworkInterface {
	var best *models.NetworkInterface
	for i := range ifaces {
		iface := &ifaces[i]
		if iface.Type == "loopback" || !iface.IsConnected {
			continue
		}
		if best == nil || iface.BytesReceived+iface.BytesSent > best.BytesReceived+best.BytesSent {
			best = iface
		}
	}
	return best
}

// linkUsagePercent expresses throughput as a share of the link speed
func linkUsagePercent(bytesPerSec uint64, speedMbps uint32) float64 {
	if speedMbps == 0 {
		return 0
	}
	bitsPerSec := float64(bytesPerSec) * 8
	return clampPercent(bitsPerSec / (float64(speedMbps) * 1e6) * 100)
}

func readLinkSpeed(sysRoot, name string) uint32 {
	speed, err := readIntFile(filepath.Join(sysRoot, "class", "net", name, "speed"))
	if err != nil || speed <= 0 {
		return 0
	}
	return uint32(speed)
}

var gpuVendors = map[string]string{
	"0x1002": "AMD",
	"0x8086": "Intel",
	"0x10de": "NVIDIA",
}

// readDRMGPU reads utilisation and VRAM of the first DRM card that exposes
// gpu_busy_percent
func readDRMGPU(sysRoot string) (models.GPUReading, bool) {
	matches, _ := filepath.Glob(filepath.Join(sysRoot, "class", "drm", "card*", "device", "gpu_busy_percent"))
	sort.Strings(matches)

	for _, busyPath := range matches {
		busy, err := readIntFile(busyPath)
		if err != nil {
			continue
		}

		dev := filepath.Dir(busyPath)
		card := filepath.Base(filepath.Dir(dev))
		reading := models.GPUReading{
			UsagePercent: clampPercent(float64(busy)),
			Name:         fmt.Sprintf("GPU (%s)", card),
		}
		if vendor, err := os.ReadFile(filepath.Join(dev, "vendor")); err == nil {
			if name, ok := gpuVendors[strings.TrimSpace(string(vendor))]; ok {
				reading.Name = fmt.Sprintf("%s GPU (%s)", name, card)
			}
		}
		if used, err := readIntFile(filepath.Join(dev, "mem_info_vram_used")); err == nil && used > 0 {
			reading.MemoryUsedBytes = uint64(used)
		}
		if total, err := readIntFile(filepath.Join(dev, "mem_info_vram_total")); err == nil && total > 0 {
			reading.MemoryTotalBytes = uint64(total)
		}
		return reading, true
	}

	return models.GPUReading{Name: models.UnknownGPU}, false
}

func readIntFile(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
}
