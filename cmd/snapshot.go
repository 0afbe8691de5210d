package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pulse/internal/models"
	"pulse/internal/services"
)

var (
	snapshotSamples int
	snapshotFormat  string
	snapshotTop     int
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Sample a few times and print the result",
	Long: `Take N samples one sampling interval apart and print the final snapshot.
Rates and CPU usage need at least two samples to be meaningful.

Examples:
  pulse snapshot
  pulse snapshot -n 5 -f json`,
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)

	snapshotCmd.Flags().IntVarP(&snapshotSamples, "samples", "n", 2, "number of samples to take")
	snapshotCmd.Flags().StringVarP(&snapshotFormat, "format", "f", "text", "output format (text, json)")
	snapshotCmd.Flags().IntVar(&snapshotTop, "top", 5, "processes to list in text output")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	if snapshotSamples < 1 {
		return fmt.Errorf("samples must be at least 1")
	}
	if snapshotFormat != "text" && snapshotFormat != "json" {
		return fmt.Errorf("unknown format %q", snapshotFormat)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)

	ctx := cmd.Context()
	scheduler := newScheduler(ctx, cfg, logger)

	for i := 0; i < snapshotSamples; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.Sampling.Interval):
			}
		}
		scheduler.Tick(ctx)
	}

	snap := scheduler.Snapshot()
	out := cmd.OutOrStdout()
	if snapshotFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	writeSnapshotText(out, snap, snapshotTop)
	return nil
}

// writeSnapshotText renders a snapshot for a terminal
func writeSnapshotText(w io.Writer, snap *models.SystemSnapshot, top int) {
	rule := strings.Repeat("-", 60)

	fmt.Fprintf(w, "%s  (%s)\n", snap.SystemName, snap.LastUpdate.Format(time.RFC3339))
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "CPU      %5.1f%%  %s, %d cores\n", snap.CPUUsagePercent, snap.CPUName, snap.CoreCount)
	fmt.Fprintf(w, "Memory   %5.1f%%  %.1f / %.1f GB\n", snap.MemoryUsagePercent,
		float64(snap.UsedRAMBytes)/services.GB, float64(snap.TotalRAMBytes)/services.GB)
	fmt.Fprintf(w, "GPU      %5.1f%%  %s\n", snap.GPUUsagePercent, snap.GPUName)
	fmt.Fprintf(w, "Disk     %5.1f%%  %s  read %s/s  write %s/s\n", snap.DiskUsagePercent, snap.PrimaryDiskName,
		humanBytes(snap.DiskReadBytesPerSec), humanBytes(snap.DiskWriteBytesPerSec))
	fmt.Fprintf(w, "Network  %5.1f%%  %s  up %s/s  down %s/s\n", snap.NetworkUsagePercent, snap.PrimaryNetworkInterface,
		humanBytes(snap.UploadBytesPerSec), humanBytes(snap.DownloadBytesPerSec))

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Processes: %d  Threads: %d\n", snap.TotalProcesses, snap.TotalThreads)
	for _, p := range services.TopProcesses(snap, services.ProcessQuery{Sort: services.SortByCPU, Descending: true, Limit: top}) {
		fmt.Fprintf(w, "  %7d  %-24.24s %5.1f%%  %s\n", p.PID, p.Name, p.CPUPercent, humanBytes(p.MemoryBytes))
	}

	summary := snap.AlertSummary()
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Status: %s  (%d active, %d raised since start)\n", summary.Status, summary.ActiveAlerts, summary.TotalAlerts)
	for _, alert := range models.SortBySeverity(snap.ActiveAlerts) {
		fmt.Fprintf(w, "  [%s] %s: %s\n", alert.Severity, alert.Title, alert.Message)
	}
}

func humanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
