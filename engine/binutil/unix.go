//go:build !windows
// +build !windows

package binutil

import (
	"os"

	"github.com/sevlyar/go-daemon"
	"github.com/zoneworld/zoneworld/engine/gwlog"
)

// Daemonize forks the server named name into background and returns in the child
//
// The parent exits once the child is started. The child writes its pid to name.pid.
func Daemonize(name string) *daemon.Context {
	dctx := &daemon.Context{
		PidFileName: name + ".pid",
		PidFilePerm: 0644,
	}
	child, err := dctx.Reborn()
	if err != nil {
		gwlog.Panicf("daemonize %s failed: %v", name, err)
	}

	if child != nil {
		gwlog.Infof("%s runs in daemon mode, pid=%d", name, child.Pid)
		os.Exit(0)
	}
	return dctx
}
