//go:build windows
// +build windows

package binutil

import "github.com/zoneworld/zoneworld/engine/gwlog"

type noDaemon struct{}

func (noDaemon) Release() error {
	return nil
}

// Daemonize is not supported on windows, the server keeps running in foreground
func Daemonize(name string) noDaemon {
	gwlog.Warnf("%s: daemon mode is not supported on windows, -d ignored", name)
	return noDaemon{}
}
