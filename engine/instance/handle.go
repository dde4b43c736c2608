package instance

import (
	"fmt"
	"time"

	"github.com/zoneworld/zoneworld/engine/common"
)

// State of instances
type State int

const (
	// Active instances have occupants
	Active State = iota
	// Draining instances have no occupant and will be reaped after idle timeout
	Draining
	// Reaped instances are destroyed and their capacity slots freed
	Reaped
)

func (st State) String() string {
	switch st {
	case Active:
		return "Active"
	case Draining:
		return "Draining"
	case Reaped:
		return "Reaped"
	}
	return fmt.Sprintf("State<%d>", int(st))
}

// Handle is a snapshot of an instance
type Handle struct {
	ID        common.InstanceID
	Host      common.ServerID
	Template  common.AreaID
	Party     common.PartyID
	CreatedAt time.Time
	Occupants int
	Capacity  int
	State     State
}

// Full returns if the instance reached its occupant capacity
func (h Handle) Full() bool {
	return h.State == Active && h.Occupants >= h.Capacity
}

func (h Handle) String() string {
	st := h.State.String()
	if h.Full() {
		st = "Full"
	}
	return fmt.Sprintf("Instance<%s|%d|%s|%d/%d|%s>", h.ID, h.Template, h.Party, h.Occupants, h.Capacity, st)
}

type instanceKey struct {
	party    common.PartyID
	template common.AreaID
}

type instance struct {
	Handle
	idleTimeout time.Duration
	deadline    time.Time
	players     map[common.PlayerID]struct{}
}

func (inst *instance) handle() Handle {
	h := inst.Handle
	h.Occupants = len(inst.players)
	return h
}

func (inst *instance) key() instanceKey {
	return instanceKey{inst.Party, inst.Template}
}
