package areareg

import (
	"fmt"
	"math/rand"
	"reflect"
	"sync"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/pkg/errors"
	"github.com/zoneworld/zoneworld/engine/common"
)

type staticAreas common.AreaIDSet

func (s staticAreas) IsStatic(id common.AreaID) bool {
	return common.AreaIDSet(s).Contains(id)
}

func newTestRegistry() *Registry {
	return New(staticAreas(common.NewAreaIDSet(1, 2, 3, 4, 5, 6)))
}

func areaServer(sid common.ServerID, areas ...common.AreaID) ServerInfo {
	return ServerInfo{ID: sid, Role: common.RoleArea, Addr: string(sid) + ":1000", Areas: common.NewAreaIDSet(areas...)}
}

func TestResolveOwner(t *testing.T) {
	r := newTestRegistry()
	_, err := r.AddServer(areaServer("serverA", 1))
	assert.Equal(t, nil, err)
	_, err = r.AddServer(areaServer("serverB", 2))
	assert.Equal(t, nil, err)

	sid, err := r.ResolveOwner(2)
	assert.Equal(t, nil, err)
	assert.Equal(t, common.ServerID("serverB"), sid)

	_, err = r.ResolveOwner(3)
	assert.Equal(t, common.ErrRetryableUnavailable, errors.Cause(err))
	_, err = r.ResolveOwner(99)
	assert.Equal(t, common.ErrNotFound, errors.Cause(err))

	assert.Equal(t, "serverB:1000", r.ServerAddr("serverB"))
	assert.Equal(t, "", r.ServerAddr("serverC"))
}

func TestConflictingOwnership(t *testing.T) {
	r := newTestRegistry()
	r.AddServer(areaServer("serverA", 1, 2))
	v := r.Version()

	changed, err := r.AddServer(areaServer("serverB", 2, 3))
	assert.Equal(t, common.ErrConflictingOwnership, errors.Cause(err))
	assert.T(t, !changed, "conflict should not change registry")
	assert.Equal(t, v, r.Version())
	assert.T(t, !r.IsLive("serverB"), "serverB should not be added")
	_, err = r.ResolveOwner(3)
	assert.T(t, common.IsRetryable(err), "area 3 should stay unowned")
}

func TestAddServerIdempotent(t *testing.T) {
	r := newTestRegistry()
	changed, _ := r.AddServer(areaServer("serverA", 1, 2))
	assert.T(t, changed, "first add should change registry")
	once := r.Snapshot()

	changed, err := r.AddServer(areaServer("serverA", 2, 1))
	assert.Equal(t, nil, err)
	assert.T(t, !changed, "replayed add should not change registry")
	twice := r.Snapshot()
	assert.Equal(t, once.Version(), twice.Version())
	assert.T(t, reflect.DeepEqual(once.Owners(), twice.Owners()), "owners changed")
	assert.Equal(t, once.LiveServers(""), twice.LiveServers(""))
}

func TestReAddServerWithNewAreas(t *testing.T) {
	r := newTestRegistry()
	r.AddServer(areaServer("serverA", 1, 2))
	changed, err := r.AddServer(areaServer("serverA", 3))
	assert.Equal(t, nil, err)
	assert.T(t, changed, "should change")
	assert.Equal(t, []common.AreaID{3}, r.ListOwnedAreas("serverA").ToList())
	_, err = r.ResolveOwner(1)
	assert.T(t, common.IsRetryable(err), "area 1 should be released")
}

func TestRemoveServer(t *testing.T) {
	r := newTestRegistry()
	r.AddServer(areaServer("serverA", 1))
	r.AddServer(ServerInfo{ID: "instance1", Role: common.RoleInstance})
	assert.Equal(t, []common.ServerID{"instance1"}, r.LiveServers(common.RoleInstance))
	assert.Equal(t, []common.ServerID{"instance1", "serverA"}, r.LiveServers(""))

	assert.T(t, r.RemoveServer("serverA"), "should remove")
	v := r.Version()
	assert.T(t, !r.RemoveServer("serverA"), "second remove is a no-op")
	assert.Equal(t, v, r.Version())
	assert.Equal(t, 0, len(r.ListOwnedAreas("serverA")))
	_, err := r.ResolveOwner(1)
	assert.T(t, common.IsRetryable(err), "area 1 should be unowned")

	// area can be taken over after the owner is removed
	_, err = r.AddServer(areaServer("serverB", 1))
	assert.Equal(t, nil, err)
}

func TestSnapshotIsImmutable(t *testing.T) {
	r := newTestRegistry()
	r.AddServer(areaServer("serverA", 1))
	snap := r.Snapshot()
	r.RemoveServer("serverA")
	sid, err := snap.ResolveOwner(1)
	assert.Equal(t, nil, err)
	assert.Equal(t, common.ServerID("serverA"), sid)
	owned := snap.ListOwnedAreas("serverA")
	owned.Add(5)
	assert.T(t, !snap.ListOwnedAreas("serverA").Contains(5), "snapshot changed by caller")
}

// every owned area resolves to exactly one live server which lists it
func checkSingleOwner(t *testing.T, snap *Snapshot) {
	for id, sid := range snap.Owners() {
		assert.Tf(t, snap.IsLive(sid), "area %d owned by dead server %s", id, sid)
		holders := 0
		for _, other := range snap.LiveServers("") {
			if snap.ListOwnedAreas(other).Contains(id) {
				holders++
			}
		}
		assert.Tf(t, holders == 1, "area %d listed by %d servers", id, holders)
	}
}

func TestSingleOwnerUnderRandomMembership(t *testing.T) {
	r := newTestRegistry()
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		sid := common.ServerID(fmt.Sprintf("area%d", rnd.Intn(5)))
		if rnd.Intn(3) == 0 {
			r.RemoveServer(sid)
		} else {
			areas := []common.AreaID{common.AreaID(rnd.Intn(6) + 1), common.AreaID(rnd.Intn(6) + 1)}
			r.AddServer(areaServer(sid, areas...))
		}
		checkSingleOwner(t, r.Snapshot())
	}
}

func TestConcurrentReaders(t *testing.T) {
	r := newTestRegistry()
	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := r.Snapshot()
				// serverA owns 1 and 2 together or not at all
				a1, _ := snap.ResolveOwner(1)
				a2, _ := snap.ResolveOwner(2)
				if a1 != a2 {
					t.Errorf("partial update visible: %s %s", a1, a2)
					return
				}
			}
		}()
	}
	for i := 0; i < 1000; i++ {
		r.AddServer(areaServer("serverA", 1, 2))
		r.RemoveServer("serverA")
	}
	close(stop)
	wg.Wait()
}
