package post

import (
	"sync"

	"github.com/zoneworld/zoneworld/engine/gwutils"
)

// PostCallback is the type of functions to be posted
type PostCallback func()

var (
	callbacks []PostCallback
	lock      sync.Mutex
)

// Post a callback to be executed by the main routine of the server
//
// Post is called from storage, membership feed and client goroutines
func Post(f PostCallback) {
	lock.Lock()
	callbacks = append(callbacks, f)
	lock.Unlock()
}

// Pending returns the number of callbacks waiting for Tick
func Pending() int {
	lock.Lock()
	n := len(callbacks)
	lock.Unlock()
	return n
}

// Tick runs all posted callbacks, including the ones posted by the callbacks
func Tick() {
	for {
		lock.Lock()
		if len(callbacks) == 0 {
			lock.Unlock()
			break
		}
		callbacksCopy := callbacks
		callbacks = make([]PostCallback, 0, len(callbacks))
		lock.Unlock()

		for _, f := range callbacksCopy {
			gwutils.RunPanicless(f)
		}
	}
}
