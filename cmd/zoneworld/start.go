package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/zoneworld/zoneworld/engine/config"
)

const _START_TIMEOUT = time.Second * 10

func zoneServerPath() string {
	if args.binary != "" {
		return args.binary
	}
	if exe, err := os.Executable(); err == nil {
		p := filepath.Join(filepath.Dir(exe), zoneServerFileName())
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	p, err := exec.LookPath(zoneServerFileName())
	mustSucceed(err, "zoneserver executable not found")
	return p
}

func start(servers []*config.ServerConfig) {
	ss := detectServerStatus(servers)
	bin := zoneServerPath()
	configFile, err := filepath.Abs(config.GetConfigFilePath())
	mustSucceed(err, "config file path")

	for _, sc := range ss.Servers {
		if ss.IsRunning(sc.ID) {
			infof("%s is already running", sc.ID)
			continue
		}
		infof("start %s ...", sc.ID)
		// the daemonized zoneserver returns once the child is forked
		cmd := exec.Command(bin, "-sid", string(sc.ID), "-configfile", configFile, "-d")
		cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
		mustSucceed(cmd.Run(), "start "+string(sc.ID)+" failed")
		waitServer(sc, true)
	}
}

// waitServer waits until the server is running (or stopped)
func waitServer(sc *config.ServerConfig, running bool) {
	deadline := time.Now().Add(_START_TIMEOUT)
	for time.Now().Before(deadline) {
		ss := detectServerStatus([]*config.ServerConfig{sc})
		if ss.IsRunning(sc.ID) == running {
			return
		}
		time.Sleep(time.Millisecond * 100)
	}
	quitf("wait %s timeout", sc.ID)
}
