package instance

import (
	"sync"
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"github.com/pkg/errors"
	"github.com/zoneworld/zoneworld/engine/area"
	"github.com/zoneworld/zoneworld/engine/common"
)

type fakeClock struct {
	sync.Mutex
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	c.Lock()
	defer c.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.Lock()
	c.t = c.t.Add(d)
	c.Unlock()
}

type templates map[common.AreaID]*area.Template

func (ts templates) Template(id common.AreaID) (*area.Template, error) {
	if t := ts[id]; t != nil {
		return t, nil
	}
	return nil, errors.Wrapf(common.ErrNotFound, "template %d", id)
}

type recordingObserver struct {
	sync.Mutex
	created, reaped int
	occupants       map[common.AreaID]int
}

func (o *recordingObserver) OnOccupantEntered(player common.PlayerID, area common.AreaID) {
	o.Lock()
	o.occupants[area]++
	o.Unlock()
}

func (o *recordingObserver) OnOccupantLeft(player common.PlayerID, area common.AreaID) {
	o.Lock()
	o.occupants[area]--
	o.Unlock()
}

func (o *recordingObserver) OnInstanceCreated(h Handle) {
	o.Lock()
	o.created++
	o.Unlock()
}

func (o *recordingObserver) OnInstanceReaped(h Handle) {
	o.Lock()
	o.reaped++
	o.Unlock()
}

func newTestPool(maxInstances int) (*Pool, *fakeClock, *recordingObserver) {
	ts := templates{
		10: {ID: 10, Capacity: 2, IdleTimeout: 5 * time.Second},
		11: {ID: 11, Capacity: 4},
	}
	clock := &fakeClock{t: time.Unix(1000, 0)}
	obs := &recordingObserver{occupants: map[common.AreaID]int{}}
	p := NewPool("instance1", ts, Config{MaxInstances: maxInstances, IdleTimeout: time.Minute}, obs)
	p.SetClock(clock.Now)
	return p, clock, obs
}

func TestConcurrentAcquireSameKey(t *testing.T) {
	p, _, obs := newTestPool(10)
	var wg sync.WaitGroup
	handles := make([]Handle, 2)
	errs := make([]error, 2)
	for i, player := range []common.PlayerID{"p1", "p2"} {
		wg.Add(1)
		go func(i int, player common.PlayerID) {
			defer wg.Done()
			handles[i], errs[i] = p.Acquire("party1", 10, player)
		}(i, player)
	}
	wg.Wait()

	assert.Equal(t, nil, errs[0])
	assert.Equal(t, nil, errs[1])
	assert.Equal(t, handles[0].ID, handles[1].ID)
	assert.Equal(t, 1, obs.created)
	h, _ := p.Get(handles[0].ID)
	assert.Equal(t, 2, h.Occupants)
	assert.T(t, h.Full(), "instance should be full")
	assert.Equal(t, 1, p.Stats().Live)
}

func TestCapacityCeiling(t *testing.T) {
	p, _, _ := newTestPool(2)
	var wg sync.WaitGroup
	errs := make(chan error, 3)
	for _, party := range []common.PartyID{"a", "b", "c"} {
		wg.Add(1)
		go func(party common.PartyID) {
			defer wg.Done()
			_, err := p.Acquire(party, 10, common.PlayerID(party))
			errs <- err
		}(party)
	}
	wg.Wait()
	close(errs)

	ok, exceeded := 0, 0
	for err := range errs {
		if err == nil {
			ok++
		} else if errors.Cause(err) == common.ErrCapacityExceeded {
			exceeded++
		}
	}
	assert.Equal(t, 2, ok)
	assert.Equal(t, 1, exceeded)
	assert.Equal(t, 2, p.Stats().Live)
}

func TestInstanceFull(t *testing.T) {
	p, _, _ := newTestPool(10)
	p.Acquire("party1", 10, "p1")
	p.Acquire("party1", 10, "p2")
	_, err := p.Acquire("party1", 10, "p3")
	assert.Equal(t, common.ErrInstanceFull, errors.Cause(err))

	// re-acquire by an occupant is idempotent
	h, err := p.Acquire("party1", 10, "p2")
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, h.Occupants)
}

func TestUnknownTemplate(t *testing.T) {
	p, _, _ := newTestPool(10)
	_, err := p.Acquire("party1", 99, "p1")
	assert.Equal(t, common.ErrNotFound, errors.Cause(err))
	_, err = p.Acquire("", 10, "p1")
	assert.T(t, err != nil, "empty party should fail")
}

func TestReapAfterIdleTimeout(t *testing.T) {
	p, clock, obs := newTestPool(1)
	h, _ := p.Acquire("party1", 10, "p1")
	assert.Equal(t, nil, p.Release(h.ID, "p1"))

	h, _ = p.Get(h.ID)
	assert.Equal(t, Draining, h.State)
	assert.Equal(t, 0, h.Occupants)

	clock.Advance(4 * time.Second)
	assert.Equal(t, 0, len(p.Reap()))
	h, _ = p.Get(h.ID)
	assert.Equal(t, Draining, h.State)

	// the draining instance still holds its slot
	_, err := p.Acquire("party2", 10, "p2")
	assert.Equal(t, common.ErrCapacityExceeded, errors.Cause(err))

	clock.Advance(time.Second)
	reaped := p.Reap()
	assert.Equal(t, 1, len(reaped))
	assert.Equal(t, Reaped, reaped[0].State)
	assert.Equal(t, 1, obs.reaped)
	_, err = p.Get(h.ID)
	assert.Equal(t, common.ErrNotFound, errors.Cause(err))

	_, err = p.Acquire("party2", 10, "p2")
	assert.Equal(t, nil, err)
}

func TestDrainingReactivated(t *testing.T) {
	p, clock, _ := newTestPool(10)
	h, _ := p.Acquire("party1", 10, "p1")
	p.Release(h.ID, "p1")
	clock.Advance(3 * time.Second)

	h2, err := p.Acquire("party1", 10, "p1")
	assert.Equal(t, nil, err)
	assert.Equal(t, h.ID, h2.ID)
	assert.Equal(t, Active, h2.State)

	clock.Advance(time.Hour)
	assert.Equal(t, 0, len(p.Reap()))
	h2, _ = p.Get(h.ID)
	assert.Equal(t, Active, h2.State)
	assert.Equal(t, 0, p.Stats().Draining)
}

func TestDefaultIdleTimeout(t *testing.T) {
	p, clock, _ := newTestPool(10)
	h, _ := p.Acquire("party1", 11, "p1")
	assert.Equal(t, h.ID, p.ReleasePlayer("p1"))
	assert.Equal(t, common.InstanceID(""), p.ReleasePlayer("p1"))
	clock.Advance(59 * time.Second)
	assert.Equal(t, 0, len(p.Reap()))
	clock.Advance(time.Second)
	assert.Equal(t, 1, len(p.Reap()))
}

func TestReleaseErrors(t *testing.T) {
	p, _, _ := newTestPool(10)
	h, _ := p.Acquire("party1", 10, "p1")
	assert.Equal(t, common.ErrNotFound, errors.Cause(p.Release("nope", "p1")))
	assert.Equal(t, common.ErrNotFound, errors.Cause(p.Release(h.ID, "p2")))
}

func TestSwitchInstance(t *testing.T) {
	p, _, _ := newTestPool(10)
	h1, _ := p.Acquire("party1", 10, "p1")
	h2, _ := p.Acquire("party2", 11, "p1")
	h1, _ = p.Get(h1.ID)
	assert.Equal(t, Draining, h1.State)
	cur, ok := p.InstanceOf("p1")
	assert.T(t, ok, "p1 should be in an instance")
	assert.Equal(t, h2.ID, cur.ID)

	found, ok := p.Lookup("party2", 11)
	assert.T(t, ok, "lookup failed")
	assert.Equal(t, h2.ID, found.ID)
	_, ok = p.Lookup("party3", 11)
	assert.T(t, !ok, "lookup should fail")
}

func TestShutdown(t *testing.T) {
	p, _, obs := newTestPool(10)
	h1, _ := p.Acquire("party1", 10, "p1")
	p.Acquire("party2", 10, "p2")
	p.Release(h1.ID, "p1")

	reaped := p.Shutdown()
	assert.Equal(t, 2, len(reaped))
	assert.Equal(t, 2, obs.reaped)
	assert.Equal(t, Stats{Max: 10}, p.Stats())
	_, ok := p.InstanceOf("p2")
	assert.T(t, !ok, "p2 should be dropped")
}

func TestOccupantEvents(t *testing.T) {
	p, _, obs := newTestPool(10)
	h1, _ := p.Acquire("party1", 10, "p1")
	p.Acquire("party1", 10, "p2")
	p.Acquire("party1", 10, "p2")
	assert.Equal(t, 2, obs.occupants[10])

	p.Acquire("party2", 11, "p1")
	assert.Equal(t, 1, obs.occupants[10])
	assert.Equal(t, 1, obs.occupants[11])

	assert.Equal(t, nil, p.Release(h1.ID, "p2"))
	assert.Equal(t, common.InstanceID(""), p.ReleasePlayer("p2"))
	assert.Equal(t, 0, obs.occupants[10])

	p.Shutdown()
	assert.Equal(t, 0, obs.occupants[11])
}

func TestStatus(t *testing.T) {
	p, _, _ := newTestPool(10)
	assert.Equal(t, common.StatusAlive, p.Status("p1"))
	p.SetStatus("p1", common.StatusDefeated)
	assert.Equal(t, common.StatusDefeated, p.Status("p1"))
	p.SetStatus("p1", common.StatusAlive)
	assert.Equal(t, common.StatusAlive, p.Status("p1"))
}
