package server

import (
	"context"
	"crypto/subtle"
	"sync"

	"github.com/pkg/errors"
	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/gwlog"
	"github.com/zoneworld/zoneworld/engine/membership"
	"github.com/zoneworld/zoneworld/engine/proto"
	"github.com/zoneworld/zoneworld/engine/routing"
)

// clientSession is the routing state of one client connection
//
// Requests of a connection are handled one by one, so only Close races
// with the request handler.
type clientSession struct {
	lock     sync.Mutex
	player   common.PlayerID
	area     common.AreaID
	instance common.InstanceID
}

func (s *clientSession) Player() common.PlayerID {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.player
}

func (s *clientSession) bind(player common.PlayerID) {
	s.lock.Lock()
	s.player = player
	s.lock.Unlock()
}

// HandleRequest serves one client request and returns its reply
func (n *Node) HandleRequest(ctx context.Context, sess *clientSession, req *proto.Request) *proto.Result {
	switch req.Action {
	case proto.ActionLogin:
		return n.handleLogin(req)
	case proto.ActionAddServer, proto.ActionRemoveServer:
		return n.handleMembershipRequest(req)
	}

	player, err := n.sessionPlayer(sess, req)
	if err != nil {
		return proto.NewResult(req.Seq, routing.Result{}, err)
	}
	rr, err := req.ToRouting(player)
	if err != nil {
		return proto.NewResult(req.Seq, routing.Result{}, err)
	}
	if player.IsNil() && rr.Action.NeedsSession() {
		return proto.NewResult(req.Seq, routing.Result{}, errors.Wrapf(common.ErrUnauthenticated, "%s: connection has no session", rr.Action))
	}
	res, err := routing.Retry(ctx, n.retryAttempts, n.retryBackoff, func() (routing.Result, error) {
		return n.Router.Handle(rr)
	})
	if err != nil {
		if routing.KindOf(err) == routing.KindInternal {
			gwlog.Errorf("%s: %s failed: %+v", n.ID, rr, err)
		}
	} else {
		n.bindSession(sess, rr, res)
	}
	return proto.NewResult(req.Seq, res, err)
}

// sessionPlayer returns the player the connection acts as
//
// Area and instance hosts bind the connection on its first request, which
// must carry a session token. Other roles take the claimed player id until
// a session is connected.
func (n *Node) sessionPlayer(sess *clientSession, req *proto.Request) (common.PlayerID, error) {
	player := sess.Player()
	if !player.IsNil() || !n.Role.HostsPlayers() {
		return player, nil
	}
	player, err := n.Router.Authenticate(req.Token, common.PlayerID(req.PlayerID))
	if err != nil {
		return "", err
	}
	sess.bind(player)
	return player, nil
}

func (n *Node) bindSession(sess *clientSession, req *routing.Request, res routing.Result) {
	if res.Outcome != routing.Admitted {
		return
	}
	sess.lock.Lock()
	defer sess.lock.Unlock()

	if !res.Player.IsNil() {
		sess.player = res.Player
	}
	switch req.Action {
	case routing.ActionEnterStaticArea, routing.ActionConnectSession:
		if !res.Area.IsNil() {
			sess.area = res.Area
		}
	case routing.ActionEnterInstance:
		sess.instance = res.Instance
	case routing.ActionLeaveArea:
		sess.area = 0
	case routing.ActionLeaveInstance:
		sess.instance = ""
	}
}

// closeSession removes the player of a closed connection from local areas and instances
func (n *Node) closeSession(sess *clientSession) {
	sess.lock.Lock()
	player, areaID, inst := sess.player, sess.area, sess.instance
	sess.area, sess.instance = 0, ""
	sess.lock.Unlock()

	if player.IsNil() {
		return
	}
	if !areaID.IsNil() && n.Scene != nil {
		if _, err := n.Scene.Leave(player); err != nil && routing.KindOf(err) != routing.KindNotFound {
			gwlog.Errorf("%s: %s leave area %d failed: %v", n.ID, player, areaID, err)
		}
	}
	if !inst.IsNil() && n.Instances != nil {
		if err := n.Instances.Release(inst, player); err != nil && routing.KindOf(err) != routing.KindNotFound {
			gwlog.Errorf("%s: %s release %s failed: %v", n.ID, player, inst, err)
		}
	}
}

func (n *Node) handleLogin(req *proto.Request) *proto.Result {
	if n.Role != common.RoleAuth {
		return proto.NewResult(req.Seq, routing.Result{}, errors.Wrapf(proto.ErrBadRequest, "%s is not an auth server", n.ID))
	}
	player := common.PlayerID(req.PlayerID)
	token, err := n.Sessions.Issue(player)
	if err != nil {
		gwlog.Errorf("%s: issue session for %s failed: %v", n.ID, player, err)
		return proto.NewResult(req.Seq, routing.Result{}, errors.Wrap(proto.ErrBadRequest, err.Error()))
	}
	res := proto.NewResult(req.Seq, routing.Result{Outcome: routing.Admitted, Player: player, Server: n.ID}, nil)
	res.Token = token
	return res
}

func (n *Node) handleMembershipRequest(req *proto.Request) *proto.Result {
	if n.Role != common.RoleManager || n.Publisher == nil {
		return proto.NewResult(req.Seq, routing.Result{}, errors.Wrapf(proto.ErrBadRequest, "%s does not publish membership", n.ID))
	}
	if !n.checkClusterSecret(req.Secret) {
		gwlog.Warnf("%s: refused %s %s, bad cluster secret", n.ID, req.Action, req.ServerID)
		return proto.NewResult(req.Seq, routing.Result{}, errors.Wrapf(common.ErrUnauthenticated, "%s %s", req.Action, req.ServerID))
	}
	typ := membership.ServerAdded
	if req.Action == proto.ActionRemoveServer {
		typ = membership.ServerRemoved
	}
	ev, err := n.AnnounceServer(common.ServerID(req.ServerID), typ)
	if err != nil {
		return proto.NewResult(req.Seq, routing.Result{}, err)
	}
	res := proto.NewResult(req.Seq, routing.Result{Outcome: routing.Admitted, Server: n.ID}, nil)
	res.Message = ev.String()
	return res
}

// checkClusterSecret fails when no secret is configured
func (n *Node) checkClusterSecret(secret string) bool {
	expected := n.Cluster.Membership.Secret
	if expected == "" || secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(secret)) == 1
}
