package server

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/config"
	"github.com/zoneworld/zoneworld/engine/gwlog"
	"github.com/zoneworld/zoneworld/engine/membership"
	"github.com/zoneworld/zoneworld/engine/netutil"
	"github.com/zoneworld/zoneworld/engine/proto"
)

const (
	_MANAGER_REQUEST_TIMEOUT = 5 * time.Second
)

// AnnounceServer publishes an add or remove event of a configured server
//
// Only the manager publishes. The event is built from the configuration so a
// server can not claim areas it is not configured with.
func (n *Node) AnnounceServer(sid common.ServerID, typ membership.EventType) (membership.Event, error) {
	if n.Publisher == nil {
		return membership.Event{}, errors.Errorf("%s does not publish membership", n.ID)
	}
	sc := n.Cluster.Servers[sid]
	if sc == nil {
		return membership.Event{}, errors.Wrapf(common.ErrNotFound, "server %s", sid)
	}
	return n.Publisher.Publish(serverEvent(sc, typ))
}

// NewFeed creates the membership feed of the config, nil if there is none
func NewFeed(cfg *config.MembershipConfig) membership.Feed {
	if cfg.Feed == "redis" {
		return membership.NewRedisFeed(cfg.Url, cfg.Channel)
	}
	return nil
}

// RunFeed applies events of feed until ctx is done
func (n *Node) RunFeed(ctx context.Context, feed membership.Feed) {
	if err := feed.Run(ctx, n.Coordinator.Handle); err != nil && ctx.Err() == nil {
		gwlog.Errorf("%s: membership feed stopped: %v", n.ID, err)
	}
}

func (n *Node) manager() *config.ServerConfig {
	for _, sc := range n.Cluster.Servers {
		if sc.Role == common.RoleManager {
			return sc
		}
	}
	return nil
}

// announceSelf asks the manager to publish the join or leave of this server
func (n *Node) announceSelf(typ membership.EventType) error {
	if n.Role == common.RoleManager {
		_, err := n.AnnounceServer(n.ID, typ)
		return err
	}

	mgr := n.manager()
	if mgr == nil || mgr.ClientAddr() == "" {
		return errors.New("no manager configured")
	}

	conn, err := netutil.ConnectTCP(mgr.ClientAddr())
	if err != nil {
		return errors.Wrapf(err, "connect manager %s", mgr.ClientAddr())
	}
	zc := proto.NewZoneConnection(netutil.NewBufferedConnection(conn, mgr.CompressConnection))
	defer zc.Close()

	action := proto.ActionAddServer
	if typ == membership.ServerRemoved {
		action = proto.ActionRemoveServer
	}
	if err := zc.SendRequest(&proto.Request{Seq: 1, Action: action, ServerID: string(n.ID), Secret: n.Cluster.Membership.Secret}); err != nil {
		return err
	}
	zc.SetRecvDeadline(time.Now().Add(_MANAGER_REQUEST_TIMEOUT))
	res, err := zc.RecvResult()
	if err != nil {
		return err
	}
	if res.Code != proto.OK {
		return errors.Errorf("manager refused %s: %s %s", action, res.Code, res.Message)
	}
	gwlog.Infof("%s: manager published %s", n.ID, res.Message)
	return nil
}
