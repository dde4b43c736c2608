// Package observer holds the admin and monitoring hooks of a server
//
// Observers are declared statically when the server is composed and are
// called after the component which emits the event has released its locks.
package observer

import (
	"github.com/zoneworld/zoneworld/engine/areareg"
	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/instance"
	"github.com/zoneworld/zoneworld/engine/membership"
)

// Observer receives events of all components
type Observer interface {
	OnMembershipApplied(ev membership.Event, snap *areareg.Snapshot)
	OnInstanceCreated(h instance.Handle)
	OnInstanceReaped(h instance.Handle)
	OnOccupantEntered(player common.PlayerID, area common.AreaID)
	OnOccupantLeft(player common.PlayerID, area common.AreaID)
}

// Base ignores all events, embed it to observe only some of them
type Base struct{}

func (Base) OnMembershipApplied(ev membership.Event, snap *areareg.Snapshot) {}
func (Base) OnInstanceCreated(h instance.Handle)                             {}
func (Base) OnInstanceReaped(h instance.Handle)                              {}
func (Base) OnOccupantEntered(player common.PlayerID, area common.AreaID)    {}
func (Base) OnOccupantLeft(player common.PlayerID, area common.AreaID)       {}

// Set fans events out to a fixed list of observers
type Set []Observer

var (
	_ membership.Observer = Set(nil)
	_ instance.Observer   = Set(nil)
)

func (s Set) OnMembershipApplied(ev membership.Event, snap *areareg.Snapshot) {
	for _, o := range s {
		o.OnMembershipApplied(ev, snap)
	}
}

func (s Set) OnInstanceCreated(h instance.Handle) {
	for _, o := range s {
		o.OnInstanceCreated(h)
	}
}

func (s Set) OnInstanceReaped(h instance.Handle) {
	for _, o := range s {
		o.OnInstanceReaped(h)
	}
}

func (s Set) OnOccupantEntered(player common.PlayerID, area common.AreaID) {
	for _, o := range s {
		o.OnOccupantEntered(player, area)
	}
}

func (s Set) OnOccupantLeft(player common.PlayerID, area common.AreaID) {
	for _, o := range s {
		o.OnOccupantLeft(player, area)
	}
}
