// Package async runs blocking jobs on per-group worker goroutines
//
// Jobs of the same group run one by one in order. Callbacks are posted to
// the main routine.
package async

import (
	"sync"

	"github.com/zoneworld/zoneworld/engine/consts"
	"github.com/zoneworld/zoneworld/engine/gwlog"
	"github.com/zoneworld/zoneworld/engine/gwutils"
	"github.com/zoneworld/zoneworld/engine/post"
)

// AsyncCallback is called on the main routine with the result of an AsyncRoutine
type AsyncCallback func(res interface{}, err error)

// Callback posts the callback with the result
func (ac AsyncCallback) Callback(res interface{}, err error) {
	if ac == nil {
		return
	}
	post.Post(func() {
		ac(res, err)
	})
}

// AsyncRoutine is a blocking job
type AsyncRoutine func() (res interface{}, err error)

type job struct {
	routine  AsyncRoutine
	callback AsyncCallback
}

// worker runs the jobs of one group
type worker struct {
	group string
	jobs  chan job
}

var (
	workersLock sync.Mutex
	workers     = map[string]*worker{}
	running     sync.WaitGroup
)

func (w *worker) run() {
	defer running.Done()
	for j := range w.jobs {
		var res interface{}
		var err error
		routine := j.routine
		if gwutils.RunPanicless(func() { res, err = routine() }) {
			gwlog.Errorf("async: job of group %s paniced, callback dropped", w.group)
			continue
		}
		j.callback.Callback(res, err)
	}
}

func workerOf(group string) *worker {
	workersLock.Lock()
	defer workersLock.Unlock()

	w := workers[group]
	if w == nil {
		w = &worker{group: group, jobs: make(chan job, consts.ASYNC_JOB_QUEUE_MAXLEN)}
		workers[group] = w
		running.Add(1)
		go w.run()
	}
	return w
}

// AppendAsyncJob runs routine on the worker of group and posts callback with its result
//
// It blocks when the group already has ASYNC_JOB_QUEUE_MAXLEN queued jobs.
func AppendAsyncJob(group string, routine AsyncRoutine, callback AsyncCallback) {
	workerOf(group).jobs <- job{routine, callback}
}

// QueueLen returns the number of queued jobs of group
func QueueLen(group string) int {
	workersLock.Lock()
	defer workersLock.Unlock()
	if w := workers[group]; w != nil {
		return len(w.jobs)
	}
	return 0
}

// Shutdown waits for all queued jobs to finish
func Shutdown() {
	workersLock.Lock()
	for _, w := range workers {
		close(w.jobs)
	}
	workers = map[string]*worker{}
	workersLock.Unlock()

	running.Wait()
}
