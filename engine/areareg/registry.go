package areareg

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/consts"
	"github.com/zoneworld/zoneworld/engine/gwlog"
)

// Registry maps areas to their live owners
//
// Writers build a new Snapshot and publish it atomically, readers never see a partial update.
type Registry struct {
	writeLock sync.Mutex
	current   atomic.Value // *Snapshot
}

// New creates an empty registry
func New(catalog Catalog) *Registry {
	r := &Registry{}
	r.current.Store(emptySnapshot(catalog))
	return r
}

// Snapshot returns the current snapshot
func (r *Registry) Snapshot() *Snapshot {
	return r.current.Load().(*Snapshot)
}

// Version returns the version of current snapshot
func (r *Registry) Version() uint64 {
	return r.Snapshot().Version()
}

// ResolveOwner returns the live owner of the area
func (r *Registry) ResolveOwner(id common.AreaID) (common.ServerID, error) {
	return r.Snapshot().ResolveOwner(id)
}

// ListOwnedAreas returns areas owned by the server
func (r *Registry) ListOwnedAreas(sid common.ServerID) common.AreaIDSet {
	return r.Snapshot().ListOwnedAreas(sid)
}

// IsLive returns if the server is live
func (r *Registry) IsLive(sid common.ServerID) bool {
	return r.Snapshot().IsLive(sid)
}

// LiveServers returns sorted IDs of live servers of the role
func (r *Registry) LiveServers(role common.Role) []common.ServerID {
	return r.Snapshot().LiveServers(role)
}

// ServerAddr returns the client address of live server
func (r *Registry) ServerAddr(sid common.ServerID) string {
	if si, ok := r.Snapshot().Server(sid); ok {
		return si.Addr
	}
	return ""
}

// AddServer inserts the server and its declared areas
//
// Adding the same server again is a no-op. Fails with ConflictingOwnership without any change
// if another live server owns any of the areas. Returns if the registry changed.
func (r *Registry) AddServer(info ServerInfo) (bool, error) {
	if info.ID.IsNil() {
		return false, errors.New("server id is empty")
	}
	si := &ServerInfo{ID: info.ID, Role: info.Role, Addr: info.Addr, Areas: info.Areas.Copy()}

	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	cur := r.Snapshot()
	if old, ok := cur.servers[si.ID]; ok && old.equal(si) {
		return false, nil
	}

	for id := range si.Areas {
		if owner, ok := cur.owners[id]; ok && owner != si.ID {
			return false, errors.Wrapf(common.ErrConflictingOwnership, "area %d declared by %s is owned by %s", id, si.ID, owner)
		}
	}

	next := cur.clone()
	next.removeServer(si.ID)
	next.servers[si.ID] = si
	for id := range si.Areas {
		next.owners[id] = si.ID
	}
	r.current.Store(next)

	if consts.DEBUG_MEMBERSHIP {
		gwlog.Debugf("registry v%d: added %s", next.version, si)
	}
	return true, nil
}

// RemoveServer deletes the server and its areas, returns if the registry changed
func (r *Registry) RemoveServer(sid common.ServerID) bool {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	cur := r.Snapshot()
	if _, ok := cur.servers[sid]; !ok {
		return false
	}

	next := cur.clone()
	next.removeServer(sid)
	r.current.Store(next)

	if consts.DEBUG_MEMBERSHIP {
		gwlog.Debugf("registry v%d: removed %s", next.version, sid)
	}
	return true
}

func (s *Snapshot) removeServer(sid common.ServerID) {
	si := s.servers[sid]
	if si == nil {
		return
	}
	for id := range si.Areas {
		if s.owners[id] == sid {
			delete(s.owners, id)
		}
	}
	delete(s.servers, sid)
}
