package area

import (
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/consts"
	"github.com/zoneworld/zoneworld/engine/gwlog"
)

// OwnershipView is the read side of the area registry used by Service
type OwnershipView interface {
	ListOwnedAreas(sid common.ServerID) common.AreaIDSet
}

// Service answers area questions for the local server
//
// The set of local areas is read-only except for Resync, which replaces it as a whole.
type Service struct {
	world          *World
	self           common.ServerID
	hostsInstances bool
	local          atomic.Value // common.AreaIDSet
}

// NewService creates the area service of server self from the areas it owns in view
func NewService(world *World, self common.ServerID, role common.Role, view OwnershipView) *Service {
	s := &Service{
		world:          world,
		self:           self,
		hostsInstances: role.HostsInstances(),
	}
	s.local.Store(common.AreaIDSet{})
	s.Resync(view)
	return s
}

// World returns the static world metadata
func (s *Service) World() *World {
	return s.world
}

// Self returns the ID of local server
func (s *Service) Self() common.ServerID {
	return s.self
}

// Resync reloads local areas from the registry
//
// Called only when a membership event names this server.
func (s *Service) Resync(view OwnershipView) {
	owned := common.AreaIDSet{}
	for id := range view.ListOwnedAreas(s.self) {
		if !s.world.IsStatic(id) {
			gwlog.Warnf("%s: ignored owned area %d which is not a static area of the world", s.self, id)
			continue
		}
		owned.Add(id)
	}
	s.local.Store(owned)
	if consts.DEBUG_SCENES {
		gwlog.Debugf("%s: local areas = %v", s.self, owned.ToList())
	}
}

// LocalAreas returns the static areas owned by local server
func (s *Service) LocalAreas() common.AreaIDSet {
	return s.local.Load().(common.AreaIDSet)
}

// IsLocal returns if the area is handled by local server
//
// Instanced areas are local on every instance host.
func (s *Service) IsLocal(id common.AreaID) bool {
	a := s.world.areas[id]
	if a == nil {
		return false
	}
	if a.Instanced {
		return s.hostsInstances
	}
	return s.LocalAreas().Contains(id)
}

// HostsInstances returns if local server hosts instances
func (s *Service) HostsInstances() bool {
	return s.hostsInstances
}

// Neighbors returns areas reachable from the area
func (s *Service) Neighbors(id common.AreaID) ([]common.AreaID, error) {
	a, err := s.world.Area(id)
	if err != nil {
		return nil, err
	}
	exits := make([]common.AreaID, len(a.Exits))
	copy(exits, a.Exits)
	return exits, nil
}

// FindArea finds the area matching the criteria
func (s *Service) FindArea(c Criteria) (*Area, error) {
	var a *Area
	if !c.ID.IsNil() {
		a = s.world.areas[c.ID]
	} else if c.Name != "" {
		a = s.world.findByName(c.Name)
	} else {
		return nil, errors.Wrap(common.ErrNotFound, "empty area criteria")
	}

	if a == nil || !c.Kind.match(a) {
		return nil, errors.Wrapf(common.ErrNotFound, "area id=%d name=%q", c.ID, c.Name)
	}
	return a, nil
}
