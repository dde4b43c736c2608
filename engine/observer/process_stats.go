package observer

import (
	"context"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/process"
	"github.com/zoneworld/zoneworld/engine/async"
	"github.com/zoneworld/zoneworld/engine/gwlog"
)

const (
	_PROCESS_STATS_ASYNC_GROUP = "process_stats"
)

// ProcessSample is one sample of process resource usage
type ProcessSample struct {
	CPUPercent float64
	RSS        uint64
	Goroutines int
}

// ProcessStats samples CPU and memory usage of the server process
type ProcessStats struct {
	Base

	proc *process.Process

	lock sync.Mutex
	last ProcessSample
}

// NewProcessStats finds the current process
func NewProcessStats() (*ProcessStats, error) {
	pid := os.Getpid()
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, errors.Wrapf(err, "can not find server process: pid = %v", pid)
	}
	return &ProcessStats{proc: p}, nil
}

// Sample reads the current usage
func (ps *ProcessStats) Sample(ctx context.Context) (ProcessSample, error) {
	cpu, err := ps.proc.CPUPercentWithContext(ctx)
	if err != nil {
		return ProcessSample{}, errors.Wrap(err, "get process cpu percent failed")
	}
	mem, err := ps.proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return ProcessSample{}, errors.Wrap(err, "get process memory info failed")
	}
	return ProcessSample{
		CPUPercent: cpu,
		RSS:        mem.RSS,
		Goroutines: runtime.NumGoroutine(),
	}, nil
}

// Last returns the last logged sample
func (ps *ProcessStats) Last() ProcessSample {
	ps.lock.Lock()
	defer ps.lock.Unlock()
	return ps.last
}

// Collect samples once on the async worker and logs the result on the main routine
//
// It does nothing while a previous sample is still queued.
func (ps *ProcessStats) Collect(ctx context.Context) {
	if async.QueueLen(_PROCESS_STATS_ASYNC_GROUP) > 0 {
		return
	}
	async.AppendAsyncJob(_PROCESS_STATS_ASYNC_GROUP, func() (interface{}, error) {
		return ps.Sample(ctx)
	}, func(res interface{}, err error) {
		if err != nil {
			gwlog.Warnf("process stats: %v", err)
			return
		}
		sample := res.(ProcessSample)
		ps.lock.Lock()
		ps.last = sample
		ps.lock.Unlock()
		gwlog.Infof("process stats: cpu %.2f%%, rss %d KB, %d goroutines", sample.CPUPercent, sample.RSS/1024, sample.Goroutines)
	})
}

// Run collects samples every interval until ctx is done
func (ps *ProcessStats) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ps.Collect(ctx)
		}
	}
}
