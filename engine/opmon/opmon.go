package opmon

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zoneworld/zoneworld/engine/consts"
	"github.com/zoneworld/zoneworld/engine/gwlog"
)

var (
	operationAllocPool = sync.Pool{
		New: func() interface{} {
			return &Operation{}
		},
	}

	monitor = newMonitor()
)

func init() {
	if consts.OPMON_DUMP_INTERVAL > 0 {
		go func() {
			for {
				time.Sleep(consts.OPMON_DUMP_INTERVAL)
				gwlog.Infof("opmon:\n%s", Dump())
			}
		}()
	}
}

// OpStat is the statistics of one operation name
type OpStat struct {
	Name          string
	Count         uint64
	TotalDuration time.Duration
	MaxDuration   time.Duration
}

// AvgDuration returns the average duration of the operation
func (st OpStat) AvgDuration() time.Duration {
	if st.Count == 0 {
		return 0
	}
	return st.TotalDuration / time.Duration(st.Count)
}

type _Monitor struct {
	sync.Mutex
	opStats map[string]*OpStat
}

func newMonitor() *_Monitor {
	return &_Monitor{
		opStats: map[string]*OpStat{},
	}
}

func (monitor *_Monitor) record(opname string, duration time.Duration) {
	monitor.Lock()
	st := monitor.opStats[opname]
	if st == nil {
		st = &OpStat{Name: opname}
		monitor.opStats[opname] = st
	}
	st.Count += 1
	st.TotalDuration += duration
	if duration > st.MaxDuration {
		st.MaxDuration = duration
	}
	monitor.Unlock()
}

func (monitor *_Monitor) collect(reset bool) []OpStat {
	monitor.Lock()
	stats := make([]OpStat, 0, len(monitor.opStats))
	for _, st := range monitor.opStats {
		stats = append(stats, *st)
	}
	if reset {
		monitor.opStats = map[string]*OpStat{}
	}
	monitor.Unlock()

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Name < stats[j].Name
	})
	return stats
}

// Stats returns statistics of all operations since last Dump
func Stats() []OpStat {
	return monitor.collect(false)
}

// Dump formats statistics of all operations and clears them
func Dump() string {
	var sb strings.Builder
	for _, st := range monitor.collect(true) {
		fmt.Fprintf(&sb, "%-30sx%-10d AVG %-10s MAX %-10s\n", st.Name, st.Count, st.AvgDuration(), st.MaxDuration)
	}
	return sb.String()
}

// Operation is the type of operation to be monitored
type Operation struct {
	name      string
	startTime time.Time
}

// StartOperation creates a new operation
func StartOperation(operationName string) *Operation {
	op := operationAllocPool.Get().(*Operation)
	op.name = operationName
	op.startTime = time.Now()
	return op
}

// Finish finishes the operation and records the duration of operation
//
// Operations slower than warnThreshold are logged
func (op *Operation) Finish(warnThreshold time.Duration) time.Duration {
	takeTime := time.Since(op.startTime)
	monitor.record(op.name, takeTime)
	if takeTime >= warnThreshold {
		gwlog.Warnf("opmon: operation %s takes %s > %s", op.name, takeTime, warnThreshold)
	}
	operationAllocPool.Put(op)
	return takeTime
}
