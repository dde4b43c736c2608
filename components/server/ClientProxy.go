package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/zoneworld/zoneworld/engine/consts"
	"github.com/zoneworld/zoneworld/engine/gwlog"
	"github.com/zoneworld/zoneworld/engine/netutil"
	"github.com/zoneworld/zoneworld/engine/proto"
)

// ClientProxy is a client connection served by a server
type ClientProxy struct {
	*proto.ZoneConnection
	node    *Node
	session clientSession
}

func newClientProxy(conn net.Conn, node *Node) *ClientProxy {
	return &ClientProxy{
		ZoneConnection: proto.NewZoneConnection(netutil.NewBufferedConnection(conn, node.Config.CompressConnection)),
		node:           node,
	}
}

func (cp *ClientProxy) String() string {
	return fmt.Sprintf("ClientProxy<%s@%s>", cp.session.Player(), cp.RemoteAddr())
}

func (cp *ClientProxy) serve(ctx context.Context) {
	if consts.DEBUG_CLIENTS {
		gwlog.Debugf("%s connected", cp)
	}
	defer func() {
		cp.Close()
		cp.node.closeSession(&cp.session)

		if err := recover(); err != nil {
			gwlog.TraceError("%s error: %v", cp, err)
		}
	}()

	for {
		cp.SetRecvDeadline(time.Now().Add(consts.CLIENT_IDLE_TIMEOUT))
		req, err := cp.RecvRequest()
		if err != nil {
			if netutil.IsConnectionError(err) || netutil.IsTimeoutError(err) {
				gwlog.Debugf("%s disconnected: %v", cp, err)
			} else {
				gwlog.Warnf("%s bad request: %v", cp, err)
			}
			return
		}
		if consts.DEBUG_PACKETS {
			gwlog.Debugf("%s <<< %+v", cp, req)
		}

		res := cp.node.HandleRequest(ctx, &cp.session, req)
		if consts.DEBUG_PACKETS {
			gwlog.Debugf("%s >>> %s", cp, res)
		}
		if err := cp.SendResult(res); err != nil {
			gwlog.Debugf("%s send failed: %v", cp, err)
			return
		}
	}
}
