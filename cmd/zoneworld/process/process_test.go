package process

import (
	"os"
	"testing"

	"github.com/bmizerany/assert"
)

func TestProcesses(t *testing.T) {
	ps, err := Processes()
	assert.Equal(t, nil, err)

	found := false
	for _, p := range ps {
		if p.Pid() == int32(os.Getpid()) {
			found = true
			running, err := p.IsRunning()
			assert.Equal(t, nil, err)
			assert.T(t, running, "current process not running")
		}
	}
	assert.T(t, found, "current process not listed")
}
