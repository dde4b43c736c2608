package instance

import (
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/zoneworld/zoneworld/engine/area"
	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/consts"
	"github.com/zoneworld/zoneworld/engine/gwlog"
	"github.com/zoneworld/zoneworld/engine/opmon"
)

// Observer is notified when instances are created or reaped and when players enter or leave them
//
// Occupant events carry the template as area.
type Observer interface {
	OnInstanceCreated(h Handle)
	OnInstanceReaped(h Handle)
	OnOccupantEntered(player common.PlayerID, area common.AreaID)
	OnOccupantLeft(player common.PlayerID, area common.AreaID)
}

// Templates provides instance templates
type Templates interface {
	Template(id common.AreaID) (*area.Template, error)
}

// Config of Pool
type Config struct {
	MaxInstances int
	IdleTimeout  time.Duration // used by templates without idle timeout
}

// Stats of Pool
type Stats struct {
	Live      int
	Active    int
	Draining  int
	Occupants int
	Max       int
}

type occupancy struct {
	player   common.PlayerID
	template common.AreaID
}

type events struct {
	created []Handle
	reaped  []Handle
	entered []occupancy
	left    []occupancy
}

// Pool creates, assigns and reaps instances on an instance host
//
// All operations are serialized by the pool lock, so acquires of the same (party, template)
// never create two instances.
type Pool struct {
	host      common.ServerID
	templates Templates
	config    Config
	observers []Observer
	now       func() time.Time

	lock      sync.Mutex
	byKey     map[instanceKey]*instance
	byID      map[common.InstanceID]*instance
	byPlayer  map[common.PlayerID]*instance
	statuses  map[common.PlayerID]common.OccupantStatus
	drainTree *_DrainTree
}

// NewPool creates the instance pool of the host
func NewPool(host common.ServerID, templates Templates, config Config, observers ...Observer) *Pool {
	if config.MaxInstances <= 0 {
		config.MaxInstances = consts.DEFAULT_MAX_INSTANCES
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = consts.DEFAULT_INSTANCE_IDLE_TIMEOUT
	}
	return &Pool{
		host:      host,
		templates: templates,
		config:    config,
		observers: observers,
		now:       time.Now,
		byKey:     map[instanceKey]*instance{},
		byID:      map[common.InstanceID]*instance{},
		byPlayer:  map[common.PlayerID]*instance{},
		statuses:  map[common.PlayerID]common.OccupantStatus{},
		drainTree: newDrainTree(),
	}
}

// SetClock replaces the clock of the pool
func (p *Pool) SetClock(now func() time.Time) {
	p.now = now
}

// Acquire admits the player into the instance of (party, template), creating it if needed
//
// Acquiring again by the same player is a no-op. A player in another instance is released from it.
func (p *Pool) Acquire(party common.PartyID, template common.AreaID, player common.PlayerID) (Handle, error) {
	if party.IsNil() || player.IsNil() {
		return Handle{}, errors.New("empty party or player id")
	}
	tpl, err := p.templates.Template(template)
	if err != nil {
		return Handle{}, err
	}

	op := opmon.StartOperation("instance.acquire")
	defer op.Finish(consts.ROUTE_OPERATION_WARN_THRESHOLD)

	var evs events
	p.lock.Lock()
	h, err := p.acquireLocked(instanceKey{party, template}, tpl, player, &evs)
	p.lock.Unlock()

	p.notify(evs)
	return h, err
}

func (p *Pool) acquireLocked(key instanceKey, tpl *area.Template, player common.PlayerID, evs *events) (Handle, error) {
	inst := p.byKey[key]
	if inst != nil {
		if _, ok := inst.players[player]; ok {
			return inst.handle(), nil
		}
		if len(inst.players) >= inst.Capacity {
			return inst.handle(), errors.Wrapf(common.ErrInstanceFull, "%s", inst.handle())
		}
	} else if len(p.byID) >= p.config.MaxInstances {
		return Handle{}, errors.Wrapf(common.ErrCapacityExceeded, "%s has %d instances", p.host, len(p.byID))
	}

	if old := p.byPlayer[player]; old != nil {
		p.releaseLocked(old, player, evs)
	}

	if inst == nil {
		inst = p.createLocked(key, tpl)
		evs.created = append(evs.created, inst.handle())
	}

	if inst.State == Draining {
		p.drainTree.Remove(inst.ID, inst.deadline)
		inst.State = Active
		inst.deadline = time.Time{}
		if consts.DEBUG_INSTANCES {
			gwlog.Debugf("instance: %s reactivated", inst.handle())
		}
	}
	inst.players[player] = struct{}{}
	p.byPlayer[player] = inst
	evs.entered = append(evs.entered, occupancy{player, inst.Template})
	return inst.handle(), nil
}

func (p *Pool) createLocked(key instanceKey, tpl *area.Template) *instance {
	idleTimeout := tpl.IdleTimeout
	if idleTimeout <= 0 {
		idleTimeout = p.config.IdleTimeout
	}
	inst := &instance{
		Handle: Handle{
			ID:        common.GenInstanceID(p.host),
			Host:      p.host,
			Template:  key.template,
			Party:     key.party,
			CreatedAt: p.now(),
			Capacity:  tpl.Capacity,
			State:     Active,
		},
		idleTimeout: idleTimeout,
		players:     map[common.PlayerID]struct{}{},
	}
	p.byKey[key] = inst
	p.byID[inst.ID] = inst
	gwlog.Infof("instance: created %s", inst.handle())
	return inst
}

// Release removes the player from the instance
//
// An instance without occupants starts draining, it is only destroyed by Reap.
func (p *Pool) Release(id common.InstanceID, player common.PlayerID) error {
	var evs events
	var err error
	p.lock.Lock()
	if inst := p.byID[id]; inst == nil {
		err = errors.Wrapf(common.ErrNotFound, "instance %s", id)
	} else if _, ok := inst.players[player]; !ok {
		err = errors.Wrapf(common.ErrNotFound, "player %s in %s", player, id)
	} else {
		p.releaseLocked(inst, player, &evs)
	}
	p.lock.Unlock()

	p.notify(evs)
	return err
}

// ReleasePlayer removes the player from its instance, returns the instance ID or empty if not found
func (p *Pool) ReleasePlayer(player common.PlayerID) common.InstanceID {
	var evs events
	p.lock.Lock()
	inst := p.byPlayer[player]
	if inst != nil {
		p.releaseLocked(inst, player, &evs)
	}
	p.lock.Unlock()

	p.notify(evs)
	if inst == nil {
		return ""
	}
	return inst.ID
}

func (p *Pool) releaseLocked(inst *instance, player common.PlayerID, evs *events) {
	delete(inst.players, player)
	delete(p.byPlayer, player)
	evs.left = append(evs.left, occupancy{player, inst.Template})
	if len(inst.players) > 0 || inst.State != Active {
		return
	}
	inst.State = Draining
	inst.deadline = p.now().Add(inst.idleTimeout)
	p.drainTree.Insert(inst.ID, inst.deadline)
	if consts.DEBUG_INSTANCES {
		gwlog.Debugf("instance: %s draining until %s", inst.handle(), inst.deadline)
	}
}

// Reap destroys draining instances whose idle timeout elapsed
func (p *Pool) Reap() []Handle {
	var evs events
	p.lock.Lock()
	for _, id := range p.drainTree.PopExpired(p.now()) {
		evs.reaped = append(evs.reaped, p.reapLocked(p.byID[id]))
	}
	p.lock.Unlock()

	p.notify(evs)
	return evs.reaped
}

// Shutdown destroys all instances, occupants are dropped
func (p *Pool) Shutdown() []Handle {
	var evs events
	p.lock.Lock()
	ids := make([]string, 0, len(p.byID))
	for id := range p.byID {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	for _, id := range ids {
		inst := p.byID[common.InstanceID(id)]
		if inst.State == Draining {
			p.drainTree.Remove(inst.ID, inst.deadline)
		}
		for player := range inst.players {
			delete(p.byPlayer, player)
			evs.left = append(evs.left, occupancy{player, inst.Template})
		}
		evs.reaped = append(evs.reaped, p.reapLocked(inst))
	}
	p.lock.Unlock()

	if len(evs.reaped) > 0 {
		gwlog.Infof("instance: shutdown reaped %d instances", len(evs.reaped))
	}
	p.notify(evs)
	return evs.reaped
}

func (p *Pool) reapLocked(inst *instance) Handle {
	inst.State = Reaped
	delete(p.byKey, inst.key())
	delete(p.byID, inst.ID)
	h := inst.handle()
	gwlog.Infof("instance: reaped %s", h)
	return h
}

func (p *Pool) notify(evs events) {
	for _, h := range evs.created {
		for _, o := range p.observers {
			o.OnInstanceCreated(h)
		}
	}
	for _, occ := range evs.left {
		for _, o := range p.observers {
			o.OnOccupantLeft(occ.player, occ.template)
		}
	}
	for _, occ := range evs.entered {
		for _, o := range p.observers {
			o.OnOccupantEntered(occ.player, occ.template)
		}
	}
	for _, h := range evs.reaped {
		for _, o := range p.observers {
			o.OnInstanceReaped(h)
		}
	}
}

// Get returns the instance of the ID
func (p *Pool) Get(id common.InstanceID) (Handle, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	inst := p.byID[id]
	if inst == nil {
		return Handle{}, errors.Wrapf(common.ErrNotFound, "instance %s", id)
	}
	return inst.handle(), nil
}

// Lookup returns the live instance of (party, template)
func (p *Pool) Lookup(party common.PartyID, template common.AreaID) (Handle, bool) {
	p.lock.Lock()
	defer p.lock.Unlock()
	inst := p.byKey[instanceKey{party, template}]
	if inst == nil {
		return Handle{}, false
	}
	return inst.handle(), true
}

// InstanceOf returns the instance the player is in
func (p *Pool) InstanceOf(player common.PlayerID) (Handle, bool) {
	p.lock.Lock()
	defer p.lock.Unlock()
	inst := p.byPlayer[player]
	if inst == nil {
		return Handle{}, false
	}
	return inst.handle(), true
}

// Status returns the status of the player, players never seen are alive
func (p *Pool) Status(player common.PlayerID) common.OccupantStatus {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.statuses[player]
}

// SetStatus sets the status of the player, defeated status is kept until set back to alive
func (p *Pool) SetStatus(player common.PlayerID, status common.OccupantStatus) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if status == common.StatusAlive {
		delete(p.statuses, player)
		return
	}
	p.statuses[player] = status
}

// Stats returns statistics of the pool
func (p *Pool) Stats() Stats {
	p.lock.Lock()
	defer p.lock.Unlock()
	st := Stats{
		Live:      len(p.byID),
		Draining:  p.drainTree.Len(),
		Occupants: len(p.byPlayer),
		Max:       p.config.MaxInstances,
	}
	st.Active = st.Live - st.Draining
	return st
}
