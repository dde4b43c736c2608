package routing

import (
	"github.com/pkg/errors"
	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/consts"
	"github.com/zoneworld/zoneworld/engine/opmon"
)

// LocalScene is the scene operations of requests already routed here
type LocalScene interface {
	Leave(player common.PlayerID) (common.OccupantSnapshot, error)
	Move(player common.PlayerID, x, z float32) error
}

// LocalInstances is the instance operations of requests already routed here
type LocalInstances interface {
	Release(id common.InstanceID, player common.PlayerID) error
}

// Router handles requests of clients: admission first, then routing
type Router struct {
	self      common.ServerID
	admission *PlayerAdmissionFilter
	filter    Filter
	scene     LocalScene
	instances LocalInstances
}

// NewRouter creates the Router, scene and instances might be nil
func NewRouter(self common.ServerID, admission *PlayerAdmissionFilter, filter Filter, scene LocalScene, instances LocalInstances) *Router {
	return &Router{
		self:      self,
		admission: admission,
		filter:    filter,
		scene:     scene,
		instances: instances,
	}
}

// Authenticate returns the player owning the session token
func (r *Router) Authenticate(token string, claimed common.PlayerID) (common.PlayerID, error) {
	return r.filter.Authenticate(token, claimed)
}

// Handle handles the request
func (r *Router) Handle(req *Request) (Result, error) {
	op := opmon.StartOperation("routing." + string(req.Action))
	defer op.Finish(consts.ROUTE_OPERATION_WARN_THRESHOLD)

	switch req.Action {
	case ActionEnterStaticArea:
		if !r.admission.Admit(req.Player, req.Area) {
			return Result{}, errors.Wrapf(common.ErrRejected, "%s can not enter area %d", req.Player, req.Area)
		}
		return r.filter.Route(req)
	case ActionEnterInstance:
		if !r.admission.Admit(req.Player, req.Template) {
			return Result{}, errors.Wrapf(common.ErrRejected, "%s can not enter instance %d", req.Player, req.Template)
		}
		return r.filter.Route(req)
	case ActionConnectSession:
		player, err := r.filter.Authenticate(req.Token, req.Player)
		if err != nil {
			return Result{}, err
		}
		if !req.Area.IsNil() && !r.admission.Admit(player, req.Area) {
			return Result{}, errors.Wrapf(common.ErrRejected, "%s can not enter area %d", player, req.Area)
		}
		connect := *req
		connect.Player = player
		res, err := r.filter.Route(&connect)
		res.Player = player
		return res, err
	case ActionQueryConnector:
		return r.filter.Route(req)
	case ActionLeaveArea:
		if r.scene == nil {
			return Result{}, errors.Wrapf(common.ErrNotFound, "%s has no scene", r.self)
		}
		snap, err := r.scene.Leave(req.Player)
		if err != nil {
			return Result{}, err
		}
		return Result{Outcome: Admitted, Player: req.Player, Server: r.self, Area: snap.AreaID}, nil
	case ActionLeaveInstance:
		if r.instances == nil {
			return Result{}, errors.Wrapf(common.ErrNotFound, "%s has no instance", r.self)
		}
		if err := r.instances.Release(req.Instance, req.Player); err != nil {
			return Result{}, err
		}
		return Result{Outcome: Admitted, Player: req.Player, Server: r.self, Instance: req.Instance}, nil
	case ActionMove:
		if r.scene == nil {
			return Result{}, errors.Wrapf(common.ErrNotFound, "%s has no scene", r.self)
		}
		if err := r.scene.Move(req.Player, req.X, req.Z); err != nil {
			return Result{}, err
		}
		return Result{Outcome: Admitted, Player: req.Player, Server: r.self}, nil
	}
	return Result{}, errors.Errorf("unknown action: %s", req.Action)
}
