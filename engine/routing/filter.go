package routing

import (
	"github.com/pkg/errors"
	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/consts"
	"github.com/zoneworld/zoneworld/engine/gwlog"
	"github.com/zoneworld/zoneworld/engine/gwutils"
	"github.com/zoneworld/zoneworld/engine/instance"
)

// OwnerResolver is the read side of the area registry used for routing
type OwnerResolver interface {
	ResolveOwner(id common.AreaID) (common.ServerID, error)
	ServerAddr(sid common.ServerID) string
	LiveServers(role common.Role) []common.ServerID
}

// AreaCatalog tells static areas from instanced ones
type AreaCatalog interface {
	IsStatic(id common.AreaID) bool
}

// SceneHost admits players into local static areas
type SceneHost interface {
	Enter(player common.PlayerID, area common.AreaID, x, z float32) error
}

// InstanceHost admits players into local instances
type InstanceHost interface {
	Acquire(party common.PartyID, template common.AreaID, player common.PlayerID) (instance.Handle, error)
}

// SessionValidator validates session tokens
type SessionValidator interface {
	ValidateSession(token string) (common.PlayerID, error)
}

// Filter routes admitted requests
type Filter interface {
	Authenticate(token string, claimed common.PlayerID) (common.PlayerID, error)
	Route(req *Request) (Result, error)
}

// FilterConfig composes the collaborators of RoutingFilter, unused ones are nil
type FilterConfig struct {
	Self      common.ServerID
	Registry  OwnerResolver
	Catalog   AreaCatalog
	Scene     SceneHost
	Instances InstanceHost
	Sessions  SessionValidator
}

// RoutingFilter decides whether a request is handled locally or redirected
//
// It never mutates area ownership.
type RoutingFilter struct {
	FilterConfig
}

// NewRoutingFilter creates the RoutingFilter
func NewRoutingFilter(config FilterConfig) *RoutingFilter {
	return &RoutingFilter{FilterConfig: config}
}

// Authenticate validates the session token, claimed is checked against the token owner if set
func (f *RoutingFilter) Authenticate(token string, claimed common.PlayerID) (common.PlayerID, error) {
	if f.Sessions == nil {
		return "", errors.Wrap(common.ErrUnauthenticated, "no session validator")
	}
	if token == "" {
		return "", errors.Wrap(common.ErrUnauthenticated, "empty token")
	}
	player, err := f.Sessions.ValidateSession(token)
	if err != nil {
		return "", err
	}
	if !claimed.IsNil() && claimed != player {
		return "", errors.Wrapf(common.ErrUnauthenticated, "token of %s used by %s", player, claimed)
	}
	return player, nil
}

// Route routes enter and connect requests
func (f *RoutingFilter) Route(req *Request) (Result, error) {
	var res Result
	var err error
	switch req.Action {
	case ActionEnterStaticArea:
		res, err = f.enterStaticArea(req.Player, req.Area, req.X, req.Z)
	case ActionEnterInstance:
		res, err = f.enterInstance(req.Party, req.Template, req.Player)
	case ActionConnectSession:
		res, err = f.connectSession(req)
	case ActionQueryConnector:
		res, err = f.pickServer(common.RoleConnector, string(req.Player))
	default:
		err = errors.Errorf("can not route action %s", req.Action)
	}

	if consts.DEBUG_ROUTING {
		gwlog.Debugf("routing: %s => %s, %v", req, res, err)
	}
	return res, err
}

func (f *RoutingFilter) enterStaticArea(player common.PlayerID, area common.AreaID, x, z float32) (Result, error) {
	if f.Catalog != nil && !f.Catalog.IsStatic(area) {
		return Result{}, errors.Wrapf(common.ErrNotFound, "static area %d", area)
	}
	owner, err := f.Registry.ResolveOwner(area)
	if err != nil {
		return Result{}, err
	}
	if owner != f.Self {
		return Redirect(owner, f.Registry.ServerAddr(owner)), nil
	}
	if f.Scene == nil {
		return Result{}, errors.Errorf("%s owns area %d but has no scene", f.Self, area)
	}
	if err := f.Scene.Enter(player, area, x, z); err != nil {
		return Result{}, err
	}
	return Result{Outcome: Admitted, Player: player, Server: f.Self, Area: area}, nil
}

func (f *RoutingFilter) enterInstance(party common.PartyID, template common.AreaID, player common.PlayerID) (Result, error) {
	if party.IsNil() {
		party = common.PartyID(player)
	}
	if f.Instances == nil {
		return f.pickServer(common.RoleInstance, string(party))
	}
	h, err := f.Instances.Acquire(party, template, player)
	if err != nil {
		return Result{}, err
	}
	return Result{Outcome: Admitted, Player: player, Server: f.Self, Area: template, Instance: h.ID}, nil
}

func (f *RoutingFilter) connectSession(req *Request) (Result, error) {
	player, err := f.Authenticate(req.Token, req.Player)
	if err != nil {
		return Result{}, err
	}
	if req.Area.IsNil() {
		return Result{Outcome: Admitted, Player: player, Server: f.Self}, nil
	}
	return f.enterStaticArea(player, req.Area, req.X, req.Z)
}

// pickServer redirects to a live server of the role chosen by hashing the key
func (f *RoutingFilter) pickServer(role common.Role, key string) (Result, error) {
	servers := f.Registry.LiveServers(role)
	if len(servers) == 0 {
		return Result{}, errors.Wrapf(common.ErrRetryableUnavailable, "no live %s server", role)
	}
	sid := servers[gwutils.HashString(key)%uint32(len(servers))]
	return Redirect(sid, f.Registry.ServerAddr(sid)), nil
}
