package routing

import (
	"context"
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"github.com/pkg/errors"
	"github.com/zoneworld/zoneworld/engine/area"
	"github.com/zoneworld/zoneworld/engine/areareg"
	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/instance"
	"github.com/zoneworld/zoneworld/engine/scene"
)

type statusMap map[common.PlayerID]common.OccupantStatus

func (m statusMap) Status(player common.PlayerID) common.OccupantStatus {
	return m[player]
}

type tokens map[string]common.PlayerID

func (ts tokens) ValidateSession(token string) (common.PlayerID, error) {
	if p, ok := ts[token]; ok {
		return p, nil
	}
	return "", errors.Wrap(common.ErrUnauthenticated, "bad token")
}

type spyFilter struct {
	routed int
	last   Request
}

func (f *spyFilter) Authenticate(token string, claimed common.PlayerID) (common.PlayerID, error) {
	return claimed, nil
}

func (f *spyFilter) Route(req *Request) (Result, error) {
	f.routed++
	f.last = *req
	return Result{}, nil
}

func testWorld(t *testing.T) *area.World {
	w, err := area.NewWorld([]*area.Area{
		{ID: 1, Name: "Town"},
		{ID: 2, Name: "Forest"},
		{ID: 3, Name: "Harbor"},
		{ID: 10, Name: "Cave", Instanced: true},
	}, []*area.Template{{ID: 10, Capacity: 2}})
	if err != nil {
		t.Fatal(err)
	}
	return w
}

// cluster configured with areas {1: serverA, 2: serverB}
func testRegistry(t *testing.T, w *area.World) *areareg.Registry {
	reg := areareg.New(w)
	for _, si := range []areareg.ServerInfo{
		{ID: "serverA", Role: common.RoleArea, Addr: "10.0.0.1:14001", Areas: common.NewAreaIDSet(1)},
		{ID: "serverB", Role: common.RoleArea, Addr: "10.0.0.2:14001", Areas: common.NewAreaIDSet(2)},
		{ID: "instance1", Role: common.RoleInstance, Addr: "10.0.0.3:14101"},
		{ID: "connector1", Role: common.RoleConnector, Addr: "10.0.0.4:14201"},
	} {
		if _, err := reg.AddServer(si); err != nil {
			t.Fatal(err)
		}
	}
	return reg
}

func newAreaServerRouter(t *testing.T, statuses statusMap) (*Router, *scene.Store) {
	w := testWorld(t)
	reg := testRegistry(t, w)
	svc := area.NewService(w, "serverA", common.RoleArea, reg)
	store := scene.NewStore(svc, nil)
	filter := NewRoutingFilter(FilterConfig{
		Self:     "serverA",
		Registry: reg,
		Catalog:  w,
		Scene:    store,
		Sessions: tokens{"tok1": "p1"},
	})
	return NewRouter("serverA", NewPlayerAdmissionFilter(statuses), filter, store, nil), store
}

func TestRedirectToOwner(t *testing.T) {
	r, _ := newAreaServerRouter(t, statusMap{})
	res, err := r.Handle(&Request{Action: ActionEnterStaticArea, Player: "p1", Area: 2})
	assert.Equal(t, nil, err)
	assert.Equal(t, Redirected, res.Outcome)
	assert.Equal(t, common.ServerID("serverB"), res.Server)
	assert.Equal(t, "10.0.0.2:14001", res.Addr)
}

func TestAdmitLocally(t *testing.T) {
	r, store := newAreaServerRouter(t, statusMap{})
	res, err := r.Handle(&Request{Action: ActionEnterStaticArea, Player: "p1", Area: 1, X: 3, Z: 4})
	assert.Equal(t, nil, err)
	assert.Equal(t, Admitted, res.Outcome)
	assert.Equal(t, 1, store.Count(1))

	_, err = r.Handle(&Request{Action: ActionMove, Player: "p1", X: 5, Z: 6})
	assert.Equal(t, nil, err)
	occ, _ := store.Occupant("p1")
	assert.Equal(t, float32(5), occ.X)

	res, err = r.Handle(&Request{Action: ActionLeaveArea, Player: "p1"})
	assert.Equal(t, nil, err)
	assert.Equal(t, common.AreaID(1), res.Area)
	assert.Equal(t, 0, store.Count(1))
}

func TestUnownedAreaIsRetryable(t *testing.T) {
	r, _ := newAreaServerRouter(t, statusMap{})
	_, err := r.Handle(&Request{Action: ActionEnterStaticArea, Player: "p1", Area: 3})
	assert.Equal(t, KindRetryableUnavailable, KindOf(err))

	_, err = r.Handle(&Request{Action: ActionEnterStaticArea, Player: "p1", Area: 99})
	assert.Equal(t, KindNotFound, KindOf(err))
	_, err = r.Handle(&Request{Action: ActionEnterStaticArea, Player: "p1", Area: 10})
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestDefeatedPlayerNeverRouted(t *testing.T) {
	spy := &spyFilter{}
	admission := NewPlayerAdmissionFilter(statusMap{"p1": common.StatusDefeated})
	assert.T(t, !admission.Admit("p1", 1), "defeated player admitted")
	assert.T(t, admission.Admit("p2", 1), "alive player rejected")

	r := NewRouter("serverA", admission, spy, nil, nil)
	_, err := r.Handle(&Request{Action: ActionEnterStaticArea, Player: "p1", Area: 1})
	assert.Equal(t, KindRejected, KindOf(err))
	_, err = r.Handle(&Request{Action: ActionEnterInstance, Player: "p1", Template: 10})
	assert.Equal(t, KindRejected, KindOf(err))
	_, err = r.Handle(&Request{Action: ActionConnectSession, Player: "p1", Token: "t", Area: 1})
	assert.Equal(t, KindRejected, KindOf(err))
	assert.Equal(t, 0, spy.routed)

	_, err = r.Handle(&Request{Action: ActionEnterStaticArea, Player: "p2", Area: 1})
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, spy.routed)
}

func TestConnectSession(t *testing.T) {
	r, store := newAreaServerRouter(t, statusMap{})
	_, err := r.Handle(&Request{Action: ActionConnectSession, Token: "bad", Area: 1})
	assert.Equal(t, KindUnauthenticated, KindOf(err))
	_, err = r.Handle(&Request{Action: ActionConnectSession, Token: "tok1", Player: "p2"})
	assert.Equal(t, KindUnauthenticated, KindOf(err))
	assert.Equal(t, 0, store.Count(1))

	res, err := r.Handle(&Request{Action: ActionConnectSession, Token: "tok1"})
	assert.Equal(t, nil, err)
	assert.Equal(t, common.PlayerID("p1"), res.Player)

	res, err = r.Handle(&Request{Action: ActionConnectSession, Token: "tok1", Area: 2})
	assert.Equal(t, nil, err)
	assert.Equal(t, Redirected, res.Outcome)
	assert.Equal(t, common.PlayerID("p1"), res.Player)

	res, err = r.Handle(&Request{Action: ActionConnectSession, Token: "tok1", Area: 1})
	assert.Equal(t, nil, err)
	assert.Equal(t, Admitted, res.Outcome)
	assert.Equal(t, 1, store.Count(1))
}

func TestConnectSessionRoutedByFilter(t *testing.T) {
	spy := &spyFilter{}
	r := NewRouter("connector1", NewPlayerAdmissionFilter(nil), spy, nil, nil)
	res, err := r.Handle(&Request{Action: ActionConnectSession, Player: "p2", Token: "t", Area: 1})
	assert.Equal(t, nil, err)
	assert.Equal(t, common.PlayerID("p2"), res.Player)
	assert.Equal(t, 1, spy.routed)
	assert.Equal(t, ActionConnectSession, spy.last.Action)
	assert.Equal(t, common.PlayerID("p2"), spy.last.Player)
}

func TestNeedsSession(t *testing.T) {
	assert.T(t, ActionMove.NeedsSession())
	assert.T(t, ActionLeaveArea.NeedsSession())
	assert.T(t, ActionLeaveInstance.NeedsSession())
	assert.T(t, !ActionEnterStaticArea.NeedsSession())
	assert.T(t, !ActionConnectSession.NeedsSession())
}

func TestNoSessionValidator(t *testing.T) {
	f := NewRoutingFilter(FilterConfig{Self: "gate1"})
	_, err := f.Authenticate("tok", "")
	assert.Equal(t, KindUnauthenticated, KindOf(err))
}

func TestEnterInstance(t *testing.T) {
	w := testWorld(t)
	reg := testRegistry(t, w)
	pool := instance.NewPool("instance1", w, instance.Config{MaxInstances: 1})
	filter := NewRoutingFilter(FilterConfig{Self: "instance1", Registry: reg, Catalog: w, Instances: pool})
	r := NewRouter("instance1", NewPlayerAdmissionFilter(pool), filter, nil, pool)

	res, err := r.Handle(&Request{Action: ActionEnterInstance, Player: "p1", Party: "party1", Template: 10})
	assert.Equal(t, nil, err)
	assert.Equal(t, Admitted, res.Outcome)
	assert.T(t, !res.Instance.IsNil(), "instance id is empty")

	_, err = r.Handle(&Request{Action: ActionEnterInstance, Player: "p2", Party: "party2", Template: 10})
	assert.Equal(t, KindCapacityExceeded, KindOf(err))

	_, err = r.Handle(&Request{Action: ActionLeaveInstance, Player: "p1", Instance: res.Instance})
	assert.Equal(t, nil, err)
	h, _ := pool.Get(res.Instance)
	assert.Equal(t, instance.Draining, h.State)

	_, err = r.Handle(&Request{Action: ActionMove, Player: "p1"})
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestEnterInstanceRedirect(t *testing.T) {
	w := testWorld(t)
	reg := testRegistry(t, w)
	filter := NewRoutingFilter(FilterConfig{Self: "serverA", Registry: reg, Catalog: w})
	res, err := filter.Route(&Request{Action: ActionEnterInstance, Player: "p1", Party: "party1", Template: 10})
	assert.Equal(t, nil, err)
	assert.Equal(t, Redirected, res.Outcome)
	assert.Equal(t, common.ServerID("instance1"), res.Server)

	reg.RemoveServer("instance1")
	_, err = filter.Route(&Request{Action: ActionEnterInstance, Player: "p1", Party: "party1", Template: 10})
	assert.Equal(t, KindRetryableUnavailable, KindOf(err))

	res, err = filter.Route(&Request{Action: ActionQueryConnector, Player: "p1"})
	assert.Equal(t, nil, err)
	assert.Equal(t, "10.0.0.4:14201", res.Addr)
}

func TestRetry(t *testing.T) {
	calls := 0
	res, err := Retry(context.Background(), 5, time.Millisecond, func() (Result, error) {
		calls++
		if calls < 3 {
			return Result{}, errors.Wrap(common.ErrRetryableUnavailable, "area 1")
		}
		return Redirect("serverB", ""), nil
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, common.ServerID("serverB"), res.Server)

	calls = 0
	_, err = Retry(context.Background(), 3, time.Millisecond, func() (Result, error) {
		calls++
		return Result{}, errors.Wrap(common.ErrRetryableUnavailable, "area 1")
	})
	assert.Equal(t, KindRetryableUnavailable, KindOf(err))
	assert.Equal(t, 3, calls)

	calls = 0
	_, err = Retry(context.Background(), 3, time.Millisecond, func() (Result, error) {
		calls++
		return Result{}, common.ErrNotFound
	})
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, 1, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls = 0
	Retry(ctx, 3, time.Hour, func() (Result, error) {
		calls++
		return Result{}, common.ErrRetryableUnavailable
	})
	assert.Equal(t, 1, calls)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindOK, KindOf(nil))
	assert.Equal(t, KindInstanceFull, KindOf(errors.Wrap(common.ErrInstanceFull, "x")))
	assert.Equal(t, KindInternal, KindOf(errors.New("x")))
	assert.Equal(t, "CapacityExceeded", KindCapacityExceeded.String())
}
