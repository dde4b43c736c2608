package scene

import (
	"sync"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/pkg/errors"
	"github.com/zoneworld/zoneworld/engine/common"
)

type localAreas common.AreaIDSet

func (l localAreas) IsLocal(id common.AreaID) bool {
	return common.AreaIDSet(l).Contains(id)
}

type memorySink struct {
	sync.Mutex
	saved []common.OccupantSnapshot
}

func (s *memorySink) SaveOccupant(snap common.OccupantSnapshot) {
	s.Lock()
	s.saved = append(s.saved, snap)
	s.Unlock()
}

type countingObserver struct {
	online map[common.AreaID]int
}

func (o *countingObserver) OnOccupantEntered(player common.PlayerID, area common.AreaID) {
	o.online[area]++
}

func (o *countingObserver) OnOccupantLeft(player common.PlayerID, area common.AreaID) {
	o.online[area]--
}

func newTestStore() (*Store, *memorySink, *countingObserver) {
	sink := &memorySink{}
	obs := &countingObserver{online: map[common.AreaID]int{}}
	return NewStore(localAreas(common.NewAreaIDSet(1, 2)), sink, obs), sink, obs
}

func TestEnterLeave(t *testing.T) {
	s, sink, obs := newTestStore()
	assert.Equal(t, nil, s.Enter("p1", 1, 10, 20))
	assert.Equal(t, 1, s.Count(1))
	assert.Equal(t, 1, obs.online[1])

	occ, ok := s.Occupant("p1")
	assert.T(t, ok, "p1 should be in scene")
	assert.Equal(t, common.AreaID(1), occ.AreaID)
	assert.Equal(t, float32(20), occ.Z)

	snap, err := s.Leave("p1")
	assert.Equal(t, nil, err)
	assert.Equal(t, float32(10), snap.X)
	assert.Equal(t, 0, s.Count(1))
	assert.Equal(t, 0, obs.online[1])
	assert.Equal(t, []common.OccupantSnapshot{snap}, sink.saved)
	assert.Equal(t, 0, len(s.Areas()))

	_, err = s.Leave("p1")
	assert.Equal(t, common.ErrNotFound, errors.Cause(err))
}

func TestEnterNotLocal(t *testing.T) {
	s, _, _ := newTestStore()
	err := s.Enter("p1", 3, 0, 0)
	assert.Equal(t, common.ErrNotFound, errors.Cause(err))
	assert.T(t, s.Enter("", 1, 0, 0) != nil, "empty player should fail")
}

func TestTransfer(t *testing.T) {
	s, sink, obs := newTestStore()
	s.Enter("p1", 1, 0, 0)
	s.Enter("p1", 1, 5, 5) // same area is a move
	assert.Equal(t, 0, len(sink.saved))

	s.Enter("p1", 2, 0, 0)
	assert.Equal(t, 0, s.Count(1))
	assert.Equal(t, 1, s.Count(2))
	assert.Equal(t, 1, len(sink.saved))
	assert.Equal(t, float32(5), sink.saved[0].X)
	assert.Equal(t, 0, obs.online[1])
	assert.Equal(t, 1, obs.online[2])
}

func TestNearby(t *testing.T) {
	s, _, _ := newTestStore()
	s.Enter("a", 1, 0, 0)
	s.Enter("b", 1, 10, 10)
	s.Enter("c", 1, 500, 500)
	s.Enter("d", 2, 0, 0)

	nearby, err := s.Nearby("a")
	assert.Equal(t, nil, err)
	assert.Equal(t, []common.PlayerID{"b"}, nearby)

	assert.Equal(t, nil, s.Move("c", 20, 20))
	nearby, _ = s.Nearby("a")
	assert.Equal(t, []common.PlayerID{"b", "c"}, nearby)

	s.Leave("b")
	nearby, _ = s.Nearby("c")
	assert.Equal(t, []common.PlayerID{"a"}, nearby)

	_, err = s.Nearby("b")
	assert.Equal(t, common.ErrNotFound, errors.Cause(err))
	assert.Equal(t, common.ErrNotFound, errors.Cause(s.Move("b", 0, 0)))
}

func TestStatus(t *testing.T) {
	s, sink, _ := newTestStore()
	assert.Equal(t, common.StatusAlive, s.Status("p1"))

	s.Enter("p1", 1, 0, 0)
	s.SetStatus("p1", common.StatusDefeated)
	s.Leave("p1")
	assert.Equal(t, common.StatusDefeated, sink.saved[0].Status)
	assert.Equal(t, common.StatusDefeated, s.Status("p1"))

	s.SetStatus("p1", common.StatusAlive)
	assert.Equal(t, common.StatusAlive, s.Status("p1"))
	assert.Equal(t, 0, len(s.statuses))
}

func TestEvict(t *testing.T) {
	s, sink, obs := newTestStore()
	s.Enter("a", 1, 0, 0)
	s.Enter("b", 1, 0, 0)
	s.Enter("c", 2, 0, 0)
	evicted := s.Evict(1)
	assert.Equal(t, 2, len(evicted))
	assert.Equal(t, 2, len(sink.saved))
	assert.Equal(t, 0, s.Count(1))
	assert.Equal(t, 0, obs.online[1])
	assert.Equal(t, []common.AreaID{2}, s.Areas().ToList())
	assert.Equal(t, 0, len(s.Evict(3)))
}
