package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"mwalimu-chat/contract"
	"mwalimu-chat/domain"

	"github.com/shirou/gopsutil/process"
)

var _ contract.Worker = (*TelemetryWorker)(nil)

// StatsProvider returns the current chat state, usually Orchestrator.Stats.
type StatsProvider func() domain.Stats

// TelemetryWorker periodically logs the chat state next to the process footprint.
type TelemetryWorker struct {
	log            *slog.Logger
	metricInterval time.Duration
	stats          StatsProvider
}

func NewTelemetryWorker(log *slog.Logger, metricInterval time.Duration, stats StatsProvider) *TelemetryWorker {
	if metricInterval <= 0 {
		metricInterval = 30 * time.Second
	}
	return &TelemetryWorker{
		log:            log,
		metricInterval: metricInterval,
		stats:          stats,
	}
}

// Run logs one line per tick until ctx is canceled:
//  1. Participant and message counts from the StatsProvider.
//  2. CPU and resident memory of this process, read with gopsutil.
//
// A failed process read is logged and the counts are still reported.
func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.report(p)
		}
	}
}

func (w *TelemetryWorker) report(p *process.Process) {
	stats := w.stats()
	rss, cpu, err := selfStats(p)
	if err != nil {
		w.log.Warn("Failed to collect self stats", "error", err)
	}
	w.log.Info("Chat telemetry",
		"participants", stats.Participants,
		"messages", stats.Messages,
		"rss_bytes", rss,
		"cpu_percent", cpu)
}

func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return memInfo.RSS, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
