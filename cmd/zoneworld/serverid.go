package main

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/config"
)

const _ZoneServer = "zoneserver"

// servers start in this order and stop in the reverse order
var startOrder = map[common.Role]int{
	common.RoleManager:   0,
	common.RoleArea:      1,
	common.RoleInstance:  2,
	common.RoleChat:      3,
	common.RoleAuth:      4,
	common.RoleConnector: 5,
	common.RoleGate:      6,
}

func sortByStartOrder(servers []*config.ServerConfig) {
	sort.SliceStable(servers, func(i, j int) bool {
		oi, oj := startOrder[servers[i].Role], startOrder[servers[j].Role]
		if oi != oj {
			return oi < oj
		}
		return servers[i].ID < servers[j].ID
	})
}

func zoneServerFileName() string {
	return _ZoneServer + BinaryExtension
}

// serverIDOf returns the -sid argument of a zoneserver command line
func serverIDOf(cmdline []string) (common.ServerID, bool) {
	if len(cmdline) == 0 || filepath.Base(cmdline[0]) != zoneServerFileName() {
		return "", false
	}
	for i := 1; i < len(cmdline); i++ {
		arg := strings.TrimPrefix(cmdline[i], "-")
		arg = strings.TrimPrefix(arg, "-")
		if arg == "sid" && i+1 < len(cmdline) {
			return common.ServerID(cmdline[i+1]), true
		}
		if strings.HasPrefix(arg, "sid=") {
			return common.ServerID(arg[len("sid="):]), true
		}
	}
	return "", false
}
