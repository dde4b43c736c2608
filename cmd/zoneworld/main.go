// Command zoneworld starts, stops and inspects the zoneserver processes of a cluster.
//
//	zoneworld [-configfile zoneworld.ini] [-bin ./zoneserver] start|stop|kill|restart|status [sid ...]
//
// Without server ids the command applies to every configured server.
package main

import (
	"flag"
	"os"
	"strings"
	"syscall"

	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/config"
)

var args struct {
	configFile string
	binary     string
}

func parseArgs() {
	flag.StringVar(&args.configFile, "configfile", "", "set config file path")
	flag.StringVar(&args.binary, "bin", "", "set zoneserver executable path")
	flag.Parse()
}

func main() {
	parseArgs()
	cmdArgs := flag.Args()
	infof("arguments: %s", strings.Join(cmdArgs, " "))

	if len(cmdArgs) == 0 {
		infof("no command to execute")
		flag.Usage()
		os.Exit(exitUsage)
	}
	if args.configFile != "" {
		config.SetConfigFile(args.configFile)
	}

	targets := selectServers(config.Roster(), cmdArgs[1:])
	switch cmd := cmdArgs[0]; cmd {
	case "start":
		start(targets)
	case "stop":
		stop(targets, StopSignal)
	case "kill":
		stop(targets, syscall.SIGKILL)
	case "restart":
		stop(targets, StopSignal)
		start(targets)
	case "status":
		showServerStatus(detectServerStatus(targets))
	default:
		quitf("unknown command: %s", cmd)
	}
}

// selectServers picks servers of sids from the roster in start order
func selectServers(roster []*config.ServerConfig, sids []string) []*config.ServerConfig {
	var targets []*config.ServerConfig
	if len(sids) == 0 {
		targets = append(targets, roster...)
	} else {
		byID := map[common.ServerID]*config.ServerConfig{}
		for _, sc := range roster {
			byID[sc.ID] = sc
		}
		for _, sid := range sids {
			sc := byID[common.ServerID(sid)]
			if sc == nil {
				quitf("server %s is not configured", sid)
			}
			targets = append(targets, sc)
		}
	}
	sortByStartOrder(targets)
	return targets
}
