package areareg

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/zoneworld/zoneworld/engine/common"
)

// ServerInfo is a live server in the registry
type ServerInfo struct {
	ID    common.ServerID
	Role  common.Role
	Addr  string
	Areas common.AreaIDSet
}

func (si *ServerInfo) String() string {
	return fmt.Sprintf("%s<%s|%s|%v>", si.ID, si.Role, si.Addr, si.Areas.ToList())
}

func (si *ServerInfo) equal(o *ServerInfo) bool {
	return si.ID == o.ID && si.Role == o.Role && si.Addr == o.Addr && si.Areas.Equal(o.Areas)
}

// Catalog tells static areas of the world from unknown ones
type Catalog interface {
	IsStatic(id common.AreaID) bool
}

// Snapshot is an immutable version of the registry
type Snapshot struct {
	version uint64
	catalog Catalog
	owners  map[common.AreaID]common.ServerID
	servers map[common.ServerID]*ServerInfo
}

func emptySnapshot(catalog Catalog) *Snapshot {
	return &Snapshot{
		catalog: catalog,
		owners:  map[common.AreaID]common.ServerID{},
		servers: map[common.ServerID]*ServerInfo{},
	}
}

func (s *Snapshot) clone() *Snapshot {
	c := &Snapshot{
		version: s.version + 1,
		catalog: s.catalog,
		owners:  make(map[common.AreaID]common.ServerID, len(s.owners)),
		servers: make(map[common.ServerID]*ServerInfo, len(s.servers)),
	}
	for id, sid := range s.owners {
		c.owners[id] = sid
	}
	for sid, si := range s.servers {
		c.servers[sid] = si
	}
	return c
}

// Version increases by 1 for every applied change
func (s *Snapshot) Version() uint64 {
	return s.version
}

// ResolveOwner returns the live owner of the area
//
// Static areas without a live owner are RetryableUnavailable, other areas are NotFound
func (s *Snapshot) ResolveOwner(id common.AreaID) (common.ServerID, error) {
	if sid, ok := s.owners[id]; ok {
		return sid, nil
	}
	if s.catalog != nil && s.catalog.IsStatic(id) {
		return "", errors.Wrapf(common.ErrRetryableUnavailable, "area %d has no live owner", id)
	}
	return "", errors.Wrapf(common.ErrNotFound, "area %d", id)
}

// ListOwnedAreas returns a copy of areas owned by the server
func (s *Snapshot) ListOwnedAreas(sid common.ServerID) common.AreaIDSet {
	si := s.servers[sid]
	if si == nil {
		return common.AreaIDSet{}
	}
	return si.Areas.Copy()
}

// IsLive returns if the server is live
func (s *Snapshot) IsLive(sid common.ServerID) bool {
	_, ok := s.servers[sid]
	return ok
}

// Server returns the info of live server
func (s *Snapshot) Server(sid common.ServerID) (*ServerInfo, bool) {
	si, ok := s.servers[sid]
	return si, ok
}

// LiveServers returns sorted IDs of live servers of the role, or all live servers if role is empty
func (s *Snapshot) LiveServers(role common.Role) []common.ServerID {
	ids := make([]common.ServerID, 0, len(s.servers))
	for sid, si := range s.servers {
		if role == "" || si.Role == role {
			ids = append(ids, sid)
		}
	}
	return common.SortServerIDs(ids)
}

// Owners returns a copy of the area ownership map
func (s *Snapshot) Owners() map[common.AreaID]common.ServerID {
	owners := make(map[common.AreaID]common.ServerID, len(s.owners))
	for id, sid := range s.owners {
		owners[id] = sid
	}
	return owners
}
