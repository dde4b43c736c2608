package main

import (
	"fmt"
	"strings"

	"github.com/zoneworld/zoneworld/cmd/zoneworld/process"
	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/config"
)

// ServerStatus represents the status of the selected servers
type ServerStatus struct {
	Servers []*config.ServerConfig
	Procs   map[common.ServerID][]process.Process
}

// IsRunning returns if the server has a running process
func (ss *ServerStatus) IsRunning(sid common.ServerID) bool {
	return len(ss.Procs[sid]) > 0
}

// NumRunning returns the number of selected servers which are running
func (ss *ServerStatus) NumRunning() int {
	n := 0
	for _, sc := range ss.Servers {
		if ss.IsRunning(sc.ID) {
			n++
		}
	}
	return n
}

func detectServerStatus(servers []*config.ServerConfig) *ServerStatus {
	procs, err := process.Processes()
	mustSucceed(err, "list processes failed")
	return matchProcesses(servers, procs)
}

func matchProcesses(servers []*config.ServerConfig, procs []process.Process) *ServerStatus {
	ss := &ServerStatus{
		Servers: servers,
		Procs:   map[common.ServerID][]process.Process{},
	}
	selected := common.StringSet{}
	for _, sc := range servers {
		selected.Add(string(sc.ID))
	}

	for _, proc := range procs {
		cmdline, err := proc.CmdlineSlice()
		if err != nil {
			continue
		}
		sid, ok := serverIDOf(cmdline)
		if !ok || !selected.Contains(string(sid)) {
			continue
		}
		ss.Procs[sid] = append(ss.Procs[sid], proc)
	}
	return ss
}

func showServerStatus(ss *ServerStatus) {
	infof("%d/%d servers running", ss.NumRunning(), len(ss.Servers))
	for _, sc := range ss.Servers {
		procs := ss.Procs[sc.ID]
		if len(procs) == 0 {
			infof("\t%-12s%-10s%s", sc.ID, sc.Role, "not running")
			continue
		}
		for _, proc := range procs {
			cmdlineSlice, err := proc.CmdlineSlice()
			var cmdline string
			if err == nil {
				cmdline = strings.Join(cmdlineSlice, " ")
			} else {
				cmdline = fmt.Sprintf("get cmdline failed: %v", err)
			}
			infof("\t%-12s%-10s%-10d%s", sc.ID, sc.Role, proc.Pid(), cmdline)
		}
	}
}
