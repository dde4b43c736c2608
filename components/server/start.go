package server

import (
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/zoneworld/zoneworld/engine/area"
	"github.com/zoneworld/zoneworld/engine/binutil"
	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/config"
	"github.com/zoneworld/zoneworld/engine/gwlog"
	"github.com/zoneworld/zoneworld/engine/kvdb"
	"github.com/zoneworld/zoneworld/engine/membership"
	"github.com/zoneworld/zoneworld/engine/post"
	"github.com/zoneworld/zoneworld/engine/session"
	"github.com/zoneworld/zoneworld/engine/storage"
)

var (
	args struct {
		sid             string
		configFile      string
		logLevel        string
		runInDaemonMode bool
	}
	signalChan = make(chan os.Signal, 1)
)

func parseArgs() {
	flag.StringVar(&args.sid, "sid", "", "set server id, e.g. area1")
	flag.StringVar(&args.configFile, "configfile", "", "set config file path")
	flag.StringVar(&args.logLevel, "log", "", "set log level, will override log level in config")
	flag.BoolVar(&args.runInDaemonMode, "d", false, "run in daemon mode")
	flag.Parse()
}

// Start fires up the server process named by -sid
func Start() {
	rand.Seed(time.Now().UnixNano())
	parseArgs()

	if args.runInDaemonMode {
		daemoncontext := binutil.Daemonize(args.sid)
		defer daemoncontext.Release()
	}

	if args.configFile != "" {
		config.SetConfigFile(args.configFile)
	}

	sid := common.ServerID(args.sid)
	sc := config.GetServer(sid)
	if sc == nil {
		gwlog.Errorf("server %q is not configured", args.sid)
		os.Exit(1)
	}
	if sc.GoMaxProcs > 0 {
		gwlog.Infof("SET GOMAXPROCS = %d", sc.GoMaxProcs)
		runtime.GOMAXPROCS(sc.GoMaxProcs)
	}
	logLevel := args.logLevel
	if logLevel == "" {
		logLevel = sc.LogLevel
	}
	binutil.SetupGWLog(string(sid), logLevel, sc.LogFile, sc.LogStderr)

	ss, err := Open(sid, config.Get())
	if err != nil {
		gwlog.Fatalf("open %s failed: %+v", sid, err)
	}
	setupSignals(ss)
	ss.run()
}

// Open composes server sid and the backends of its role
func Open(sid common.ServerID, cfg *config.ZoneWorldConfig) (*ServerService, error) {
	sc := cfg.Servers[sid]
	if sc == nil {
		return nil, errors.Errorf("server %s is not configured", sid)
	}
	world, err := area.LoadWorld(config.ResolvePath(cfg.World.AreaData), config.ResolvePath(cfg.World.InstanceTemplates))
	if err != nil {
		return nil, err
	}

	var deps Deps
	var st *storage.Storage
	switch sc.Role {
	case common.RoleArea, common.RoleInstance, common.RoleConnector, common.RoleAuth:
		db, err := kvdb.Open(&cfg.KVDB)
		if err != nil {
			return nil, errors.Wrap(err, "open kvdb")
		}
		deps.Sessions = session.NewKVDBValidator(db, cfg.KVDB.SessionKey)
		if sc.Role == common.RoleArea {
			if st, err = storage.Open(&cfg.Storage); err != nil {
				return nil, errors.Wrap(err, "open storage")
			}
			deps.Sink = st
		}
	case common.RoleManager:
		if cfg.Membership.Feed == "redis" {
			deps.Publisher = membership.NewRedisPublisher(cfg.Membership.Url, cfg.Membership.Channel)
		}
	}

	node, err := Compose(sid, cfg, world, deps)
	if err != nil {
		return nil, err
	}
	return newServerService(node, st, NewFeed(&cfg.Membership)), nil
}

func setupSignals(ss *ServerService) {
	gwlog.Infof("Setup signals ...")
	signal.Ignore(syscall.Signal(10), syscall.Signal(12), syscall.SIGPIPE, syscall.SIGHUP)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		for {
			sig := <-signalChan
			if sig == syscall.SIGINT || sig == syscall.SIGTERM {
				gwlog.Infof("Terminating %s ...", ss)
				post.Post(ss.terminate)
				ss.terminated.Wait()
				gwlog.Infof("%s terminated gracefully.", ss)
				os.Exit(0)
			} else {
				gwlog.Errorf("unexpected signal: %s", sig)
			}
		}
	}()
}
