package process

import (
	"syscall"

	psutil_process "github.com/shirou/gopsutil/process"
)

// Process is a running OS process
type Process interface {
	Pid() int32
	Executable() string
	CmdlineSlice() ([]string, error)
	IsRunning() (bool, error)
	Signal(sig syscall.Signal) error
}

type process struct {
	*psutil_process.Process
}

func (p process) Pid() int32 {
	return p.Process.Pid
}

func (p process) Executable() string {
	name, _ := p.Process.Name()
	return name
}

// Processes lists the running processes
func Processes() ([]Process, error) {
	ps, err := psutil_process.Processes()
	if err != nil {
		return nil, err
	}

	procs := make([]Process, 0, len(ps))
	for _, p := range ps {
		procs = append(procs, process{p})
	}
	return procs, nil
}
