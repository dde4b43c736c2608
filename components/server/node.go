package server

import (
	"time"

	"github.com/pkg/errors"
	"github.com/zoneworld/zoneworld/engine/area"
	"github.com/zoneworld/zoneworld/engine/areareg"
	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/config"
	"github.com/zoneworld/zoneworld/engine/gwlog"
	"github.com/zoneworld/zoneworld/engine/instance"
	"github.com/zoneworld/zoneworld/engine/membership"
	"github.com/zoneworld/zoneworld/engine/observer"
	"github.com/zoneworld/zoneworld/engine/routing"
	"github.com/zoneworld/zoneworld/engine/scene"
)

// SessionStore issues and validates session tokens
type SessionStore interface {
	routing.SessionValidator
	Issue(player common.PlayerID) (string, error)
	Revoke(token string) error
}

// Publisher publishes membership events to the cluster
type Publisher interface {
	Publish(ev membership.Event) (membership.Event, error)
}

// Deps are the external collaborators of a node, nil ones are not used
type Deps struct {
	Sink      common.SnapshotSink
	Sessions  SessionStore
	Publisher Publisher
	Observers []observer.Observer
}

// Node is one server process composed for its role
//
// Only the components of the role are set, the others stay nil.
type Node struct {
	ID      common.ServerID
	Role    common.Role
	Config  *config.ServerConfig
	Cluster *config.ZoneWorldConfig

	World       *area.World
	Registry    *areareg.Registry
	Coordinator *membership.Coordinator
	Areas       *area.Service
	Router      *routing.Router
	Online      *observer.OnlineUsers
	Observers   observer.Set

	Scene     *scene.Store   // area
	Instances *instance.Pool // instance
	Sessions  SessionStore   // area, instance, connector, auth
	Publisher Publisher      // manager

	retryAttempts int
	retryBackoff  time.Duration
}

// Compose builds the node of server sid from the loaded config
func Compose(sid common.ServerID, cfg *config.ZoneWorldConfig, world *area.World, deps Deps) (*Node, error) {
	sc := cfg.Servers[sid]
	if sc == nil {
		return nil, errors.Errorf("server %s is not configured", sid)
	}

	n := &Node{
		ID:            sid,
		Role:          sc.Role,
		Config:        sc,
		Cluster:       cfg,
		World:         world,
		Registry:      areareg.New(world),
		Online:        observer.NewOnlineUsers(),
		retryAttempts: cfg.World.RetryAttempts,
		retryBackoff:  cfg.World.RetryBackoff,
	}
	n.Observers = append(observer.Set{n.Online, observer.MembershipLogger{}}, deps.Observers...)

	n.Coordinator = membership.NewCoordinator(n.Registry, sid, n.Observers)
	if err := n.Coordinator.Bootstrap(RosterEvents(cfg)); err != nil {
		return nil, err
	}
	n.Areas = area.NewService(world, sid, n.Role, n.Registry)
	n.Coordinator.SetSelfHook(n.onSelfChanged)

	filterCfg := routing.FilterConfig{
		Self:     sid,
		Registry: n.Registry,
		Catalog:  world,
	}
	var statuses routing.StatusSource
	var localScene routing.LocalScene
	var localInstances routing.LocalInstances

	if n.Role.HostsPlayers() || n.Role == common.RoleConnector || n.Role == common.RoleAuth {
		if deps.Sessions == nil {
			return nil, errors.Errorf("%s server %s needs a session store", n.Role, sid)
		}
		n.Sessions = deps.Sessions
		filterCfg.Sessions = deps.Sessions
	}

	switch n.Role {
	case common.RoleArea:
		n.Scene = scene.NewStore(n.Areas, deps.Sink, n.Observers)
		filterCfg.Scene = n.Scene
		statuses, localScene = n.Scene, n.Scene
	case common.RoleInstance:
		n.Instances = instance.NewPool(sid, world, instance.Config{
			MaxInstances: cfg.World.MaxInstances,
			IdleTimeout:  cfg.World.IdleTimeout,
		}, n.Observers)
		filterCfg.Instances = n.Instances
		statuses, localInstances = n.Instances, n.Instances
	case common.RoleManager:
		n.Publisher = deps.Publisher
	case common.RoleConnector, common.RoleAuth, common.RoleGate, common.RoleChat:
	default:
		return nil, errors.Errorf("unknown role %s", n.Role)
	}

	n.Router = routing.NewRouter(sid, routing.NewPlayerAdmissionFilter(statuses), routing.NewRoutingFilter(filterCfg), localScene, localInstances)
	gwlog.Infof("%s composed as %s, local areas %v", sid, n.Role, n.Areas.LocalAreas().ToList())
	return n, nil
}

// RosterEvents converts the configured servers to bootstrap events
func RosterEvents(cfg *config.ZoneWorldConfig) []membership.Event {
	ids := make([]common.ServerID, 0, len(cfg.Servers))
	for id := range cfg.Servers {
		ids = append(ids, id)
	}
	common.SortServerIDs(ids)

	events := make([]membership.Event, 0, len(ids))
	for _, id := range ids {
		events = append(events, serverEvent(cfg.Servers[id], membership.ServerAdded))
	}
	return events
}

func serverEvent(sc *config.ServerConfig, typ membership.EventType) membership.Event {
	ev := membership.Event{
		Type:     typ,
		ServerID: sc.ID,
		Role:     sc.Role,
	}
	if typ == membership.ServerAdded {
		ev.Addr = sc.ClientAddr()
		ev.Areas = append([]common.AreaID(nil), sc.Areas...)
	}
	return ev
}

// onSelfChanged resyncs local areas after an event naming this server
//
// Occupants of areas which are no longer local are evicted and saved.
func (n *Node) onSelfChanged(snap *areareg.Snapshot) {
	n.Areas.Resync(snap)
	if n.Scene == nil {
		return
	}
	for id := range n.Scene.Areas() {
		if !n.Areas.IsLocal(id) {
			evicted := n.Scene.Evict(id)
			gwlog.Warnf("%s: area %d is no longer local, evicted %d occupants", n.ID, id, len(evicted))
		}
	}
}

// Shutdown releases resources of the role
func (n *Node) Shutdown() {
	if n.Instances != nil {
		reaped := n.Instances.Shutdown()
		gwlog.Infof("%s: reaped %d instances on shutdown", n.ID, len(reaped))
	}
	if n.Scene != nil {
		for id := range n.Scene.Areas() {
			n.Scene.Evict(id)
		}
	}
}
