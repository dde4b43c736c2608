package main

import (
	"syscall"
	"time"

	"github.com/zoneworld/zoneworld/cmd/zoneworld/process"
	"github.com/zoneworld/zoneworld/engine/config"
)

const _STOP_TIMEOUT = time.Second * 30

func stop(servers []*config.ServerConfig, signal syscall.Signal) {
	ss := detectServerStatus(servers)
	showServerStatus(ss)
	if ss.NumRunning() == 0 {
		infof("no server is running currently")
		return
	}

	// reverse start order: gates stop accepting players first
	for i := len(ss.Servers) - 1; i >= 0; i-- {
		sc := ss.Servers[i]
		for _, proc := range ss.Procs[sc.ID] {
			stopProc(sc, proc, signal)
		}
	}
}

func stopProc(sc *config.ServerConfig, proc process.Process, signal syscall.Signal) {
	infof("stop %s pid=%d", sc.ID, proc.Pid())
	if err := proc.Signal(signal); err != nil {
		infof("signal %s failed: %v", sc.ID, err)
		return
	}

	deadline := time.Now().Add(_STOP_TIMEOUT)
	for time.Now().Before(deadline) {
		time.Sleep(time.Millisecond * 100)
		if running, err := proc.IsRunning(); err != nil || !running {
			return
		}
	}
	infof("%s pid=%d is still running", sc.ID, proc.Pid())
}
