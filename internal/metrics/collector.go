// Package metrics samples host and process resource usage for the server.
package metrics

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// Sample is one resource usage reading
type Sample struct {
	CPUPercent        float64   `json:"cpuPercent"`        // system-wide, 0-100
	ProcessCPUPercent float64   `json:"processCpuPercent"` // can exceed 100 on multi-core
	MemoryPercent     float64   `json:"memoryPercent"`
	ProcessRSSMB      float64   `json:"processRssMb"`
	Timestamp         time.Time `json:"timestamp"`
}

// Collector periodically samples and logs resource usage
type Collector struct {
	interval time.Duration
	logger   *zap.Logger
	proc     *process.Process

	mu   sync.RWMutex
	last *Sample
}

// NewCollector creates a collector. Intervals under a second fall back to 30s.
func NewCollector(interval time.Duration, logger *zap.Logger) *Collector {
	if interval < time.Second {
		interval = 30 * time.Second
	}

	proc, _ := process.NewProcess(int32(os.Getpid()))

	return &Collector{
		interval: interval,
		logger:   logger,
		proc:     proc,
	}
}

// Start samples every interval until ctx is cancelled
func (c *Collector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.log(c.Collect())

	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("Metrics collection stopped")
			return
		case <-ticker.C:
			c.log(c.Collect())
		}
	}
}

// Last returns the most recent sample, false before the first one
func (c *Collector) Last() (Sample, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.last == nil {
		return Sample{}, false
	}
	return *c.last, true
}

// Collect takes a sample now and remembers it. Unavailable readings stay zero.
func (c *Collector) Collect() Sample {
	s := Sample{Timestamp: time.Now()}

	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		s.CPUPercent = pct[0]
	}
	if vmem, err := mem.VirtualMemory(); err == nil {
		s.MemoryPercent = vmem.UsedPercent
	}
	if c.proc != nil {
		if pct, err := c.proc.Percent(0); err == nil {
			s.ProcessCPUPercent = pct
		}
		if info, err := c.proc.MemoryInfo(); err == nil {
			s.ProcessRSSMB = float64(info.RSS) / (1024 * 1024)
		}
	}

	c.mu.Lock()
	c.last = &s
	c.mu.Unlock()

	return s
}

func (c *Collector) log(s Sample) {
	c.logger.Info("System metrics",
		zap.Float64("sys_cpu", s.CPUPercent),
		zap.Float64("proc_cpu", s.ProcessCPUPercent),
		zap.Float64("mem_pct", s.MemoryPercent),
		zap.Float64("proc_rss_mb", s.ProcessRSSMB),
	)
}
