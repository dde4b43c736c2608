package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
	timer "github.com/xiaonanln/goTimer"
	"github.com/zoneworld/zoneworld/engine/async"
	"github.com/zoneworld/zoneworld/engine/binutil"
	"github.com/zoneworld/zoneworld/engine/consts"
	"github.com/zoneworld/zoneworld/engine/gwlog"
	"github.com/zoneworld/zoneworld/engine/gwutils"
	"github.com/zoneworld/zoneworld/engine/gwvar"
	"github.com/zoneworld/zoneworld/engine/membership"
	"github.com/zoneworld/zoneworld/engine/netutil"
	"github.com/zoneworld/zoneworld/engine/observer"
	"github.com/zoneworld/zoneworld/engine/post"
	"github.com/zoneworld/zoneworld/engine/storage"
	"golang.org/x/net/websocket"
)

// ServerService runs the network side and the main loop of a Node
type ServerService struct {
	node    *Node
	storage *storage.Storage
	feed    membership.Feed
	stats   *observer.ProcessStats

	ctx    context.Context
	cancel context.CancelFunc

	terminating xnsyncutil.AtomicBool
	terminated  *xnsyncutil.OneTimeCond
	stopped     bool // main routine only
}

func newServerService(node *Node, st *storage.Storage, feed membership.Feed) *ServerService {
	ctx, cancel := context.WithCancel(context.Background())
	ss := &ServerService{
		node:       node,
		storage:    st,
		feed:       feed,
		ctx:        ctx,
		cancel:     cancel,
		terminated: xnsyncutil.NewOneTimeCond(),
	}
	stats, err := observer.NewProcessStats()
	if err != nil {
		gwlog.Warnf("process stats disabled: %v", err)
	} else {
		ss.stats = stats
	}
	return ss
}

func (ss *ServerService) String() string {
	return fmt.Sprintf("ServerService<%s>", ss.node.ID)
}

// ServeTCPConnection serves a client connected over TCP or KCP
func (ss *ServerService) ServeTCPConnection(conn net.Conn) {
	if ss.terminating.Load() {
		conn.Close()
		return
	}
	newClientProxy(conn, ss.node).serve(ss.ctx)
}

func (ss *ServerService) handleWebSocketConn(ws *websocket.Conn) {
	gwlog.Debugf("WebSocket connection: %s", ws.RemoteAddr())
	ss.ServeTCPConnection(ws)
}

func (ss *ServerService) run() {
	cfg := ss.node.Config
	gwlog.Infof("%s: compress connection: %v", ss, cfg.CompressConnection)

	if cfg.Port != 0 {
		go netutil.ServeTCPForever(cfg.ListenAddr(), ss)
	}
	if cfg.KCPPort != 0 {
		go netutil.ServeKCP(fmt.Sprintf("%s:%d", cfg.Ip, cfg.KCPPort), ss)
	}
	binutil.SetupHTTPServer(cfg.HTTPIp, cfg.HTTPPort, ss.handleWebSocketConn)

	if ss.feed != nil {
		go gwutils.RepeatUntilPanicless(func() {
			ss.node.RunFeed(ss.ctx, ss.feed)
		})
		ss.announce(membership.ServerAdded)
	}
	ss.setupTimers()
	gwvar.PublishInt("OnlinePlayers", ss.node.Online.Total)
	gwvar.IsServiceReady.Set(true)

	ticker := time.NewTicker(consts.SERVICE_TICK_INTERVAL)
	defer ticker.Stop()
	for !ss.stopped {
		<-ticker.C
		timer.Tick()
		post.Tick()
	}
}

func (ss *ServerService) setupTimers() {
	if ss.node.Instances != nil {
		reapInterval := ss.node.Cluster.World.ReapInterval
		timer.AddTimer(reapInterval, func() {
			if reaped := ss.node.Instances.Reap(); len(reaped) > 0 {
				gwlog.Infof("%s: reaped %d idle instances", ss, len(reaped))
			}
		})
	}
	if ss.stats != nil {
		timer.AddTimer(consts.PROCESS_STATS_INTERVAL, func() {
			ss.stats.Collect(ss.ctx)
			gwlog.Infof("%s: %s", ss, ss.node.Online.Dump())
		})
	}
}

func (ss *ServerService) announce(typ membership.EventType) {
	// a slow manager must not block the main loop
	async.AppendAsyncJob("membership", func() (interface{}, error) {
		return nil, ss.node.announceSelf(typ)
	}, func(_ interface{}, err error) {
		if err != nil {
			gwlog.Errorf("%s: announce %s failed: %v", ss, typ, err)
		}
	})
}

// terminate runs on the main routine
func (ss *ServerService) terminate() {
	if ss.terminating.Load() {
		return
	}
	ss.terminating.Store(true)
	gwvar.IsServiceReady.Set(false)
	gwlog.Infof("%s: terminating ...", ss)
	if ss.feed != nil {
		if err := ss.node.announceSelf(membership.ServerRemoved); err != nil {
			gwlog.Errorf("%s: announce removal failed: %v", ss, err)
		}
	}
	ss.cancel()
	ss.node.Shutdown()
	if ss.storage != nil {
		ss.storage.Shutdown()
	}
	async.Shutdown()
	ss.stopped = true
	ss.terminated.Signal()
}
