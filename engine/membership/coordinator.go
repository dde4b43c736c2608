package membership

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/zoneworld/zoneworld/engine/areareg"
	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/consts"
	"github.com/zoneworld/zoneworld/engine/gwlog"
)

// Observer is notified after each membership event is applied to the registry
type Observer interface {
	OnMembershipApplied(ev Event, snap *areareg.Snapshot)
}

// SelfHook is called when an applied event names the local server
type SelfHook func(snap *areareg.Snapshot)

// Coordinator folds membership events into the area registry
//
// Events are applied in Seq order. Duplicates are ignored and early events are held until the
// gap before them is filled. The registry is only mutated here.
type Coordinator struct {
	registry  *areareg.Registry
	self      common.ServerID
	observers []Observer
	selfHook  SelfHook

	lock    sync.Mutex
	applied uint64
	pending map[uint64]Event
	log     []Event

	notifyLock sync.Mutex
}

// NewCoordinator creates the coordinator of server self
func NewCoordinator(registry *areareg.Registry, self common.ServerID, observers ...Observer) *Coordinator {
	return &Coordinator{
		registry:  registry,
		self:      self,
		observers: observers,
		pending:   map[uint64]Event{},
	}
}

// SetSelfHook sets the callback for events naming the local server
func (c *Coordinator) SetSelfHook(hook SelfHook) {
	c.selfHook = hook
}

// Registry returns the registry maintained by the coordinator
func (c *Coordinator) Registry() *areareg.Registry {
	return c.registry
}

// Bootstrap adds the configured roster before any event from the feed
//
// A conflicting roster is an error the caller must treat as fatal.
func (c *Coordinator) Bootstrap(roster []Event) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	for _, ev := range roster {
		ev.Type = ServerAdded
		if err := ev.Validate(); err != nil {
			return err
		}
		if _, err := c.registry.AddServer(ev.serverInfo()); err != nil {
			return errors.Wrapf(err, "bootstrap %s", ev.ServerID)
		}
	}
	gwlog.Infof("membership: bootstrapped %d servers, registry v%d", len(roster), c.registry.Version())
	return nil
}

// OnServerAdded handles a server added event
func (c *Coordinator) OnServerAdded(ev Event) {
	if ev.Type != ServerAdded {
		gwlog.Errorf("membership: dropped %s: not an add event", ev)
		return
	}
	c.Handle(ev)
}

// OnServerRemoved handles a server removed event
func (c *Coordinator) OnServerRemoved(ev Event) {
	if ev.Type != ServerRemoved {
		gwlog.Errorf("membership: dropped %s: not a remove event", ev)
		return
	}
	c.Handle(ev)
}

// Handle handles an event from the feed, which might be duplicated or out of order
func (c *Coordinator) Handle(ev Event) {
	if ev.Seq == 0 {
		gwlog.Errorf("membership: dropped %s: no sequence number", ev)
		return
	}

	c.lock.Lock()
	if ev.Seq <= c.applied {
		c.lock.Unlock()
		if consts.DEBUG_MEMBERSHIP {
			gwlog.Debugf("membership: ignored duplicate %s", ev)
		}
		return
	}
	if _, ok := c.pending[ev.Seq]; ok {
		c.lock.Unlock()
		return
	}

	c.pending[ev.Seq] = ev
	if len(c.pending) > consts.MEMBERSHIP_MAX_PENDING_EVENTS {
		c.skipGapLocked()
	}

	var applied []Event
	for {
		next, ok := c.pending[c.applied+1]
		if !ok {
			break
		}
		delete(c.pending, next.Seq)
		c.applied = next.Seq
		if c.applyLocked(next) {
			applied = append(applied, next)
		}
	}
	if len(c.pending) > 0 && consts.DEBUG_MEMBERSHIP {
		gwlog.Debugf("membership: holding %d events, waiting for #%d", len(c.pending), c.applied+1)
	}

	// notify in apply order without holding the event lock
	c.notifyLock.Lock()
	c.lock.Unlock()
	defer c.notifyLock.Unlock()

	if len(applied) == 0 {
		return
	}
	snap := c.registry.Snapshot()
	for _, ev := range applied {
		if ev.ServerID == c.self && c.selfHook != nil {
			c.selfHook(snap)
		}
		for _, o := range c.observers {
			o.OnMembershipApplied(ev, snap)
		}
	}
}

// skipGapLocked gives up waiting for missing events when too many events are held
func (c *Coordinator) skipGapLocked() {
	seqs := make([]uint64, 0, len(c.pending))
	for seq := range c.pending {
		seqs = append(seqs, seq)
	}
	sort.Slice(seqs, func(i, j int) bool {
		return seqs[i] < seqs[j]
	})
	gwlog.Errorf("membership: %d events pending, skipping missing events #%d ~ #%d", len(seqs), c.applied+1, seqs[0]-1)
	c.applied = seqs[0] - 1
}

// applyLocked applies the event to registry, returns false if the event is dropped
func (c *Coordinator) applyLocked(ev Event) bool {
	if err := ev.Validate(); err != nil {
		gwlog.Errorf("membership: dropped %s: %s", ev, err)
		return false
	}

	switch ev.Type {
	case ServerAdded:
		if _, err := c.registry.AddServer(ev.serverInfo()); err != nil {
			gwlog.Errorf("membership: dropped %s: %s", ev, err)
			return false
		}
	case ServerRemoved:
		c.registry.RemoveServer(ev.ServerID)
	}

	c.log = append(c.log, ev)
	gwlog.Infof("membership: applied %s, registry v%d", ev, c.registry.Version())
	return true
}

// Applied returns the Seq of last applied event
func (c *Coordinator) Applied() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.applied
}

// Pending returns the number of events waiting for missing events
func (c *Coordinator) Pending() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.pending)
}

// Log returns a copy of applied events in order
func (c *Coordinator) Log() []Event {
	c.lock.Lock()
	defer c.lock.Unlock()
	log := make([]Event, len(c.log))
	copy(log, c.log)
	return log
}
