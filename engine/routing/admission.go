package routing

import (
	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/consts"
	"github.com/zoneworld/zoneworld/engine/gwlog"
)

// StatusSource provides occupant statuses, read only
type StatusSource interface {
	Status(player common.PlayerID) common.OccupantStatus
}

// PlayerAdmissionFilter rejects players who can not enter areas in their current state
type PlayerAdmissionFilter struct {
	statuses StatusSource
}

// NewPlayerAdmissionFilter creates the filter, statuses might be nil on servers without occupants
func NewPlayerAdmissionFilter(statuses StatusSource) *PlayerAdmissionFilter {
	return &PlayerAdmissionFilter{statuses: statuses}
}

// Admit returns if the player can enter the area
func (f *PlayerAdmissionFilter) Admit(player common.PlayerID, area common.AreaID) bool {
	if f.statuses == nil {
		return true
	}
	if st := f.statuses.Status(player); st == common.StatusDefeated {
		if consts.DEBUG_ROUTING {
			gwlog.Debugf("admission: %s is %s, can not enter area %d", player, st, area)
		}
		return false
	}
	return true
}
