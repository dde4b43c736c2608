package scene

import (
	"fmt"

	"github.com/xiaonanln/go-aoi"
	"github.com/zoneworld/zoneworld/engine/common"
)

// Occupant is a player in a static area of local server
type Occupant struct {
	PlayerID common.PlayerID
	AreaID   common.AreaID
	X        aoi.Coord
	Z        aoi.Coord

	aoi       aoi.AOI
	neighbors map[common.PlayerID]struct{}
}

func newOccupant(player common.PlayerID, area common.AreaID, x, z aoi.Coord) *Occupant {
	occ := &Occupant{
		PlayerID:  player,
		AreaID:    area,
		X:         x,
		Z:         z,
		neighbors: map[common.PlayerID]struct{}{},
	}
	aoi.InitAOI(&occ.aoi, aoiDistance, occ, occ)
	return occ
}

func (occ *Occupant) String() string {
	return fmt.Sprintf("Occupant<%s|%d|%.1f,%.1f>", occ.PlayerID, occ.AreaID, occ.X, occ.Z)
}

// OnEnterAOI is called when other occupant comes nearby
func (occ *Occupant) OnEnterAOI(other *aoi.AOI) {
	occ.neighbors[other.Data.(*Occupant).PlayerID] = struct{}{}
}

// OnLeaveAOI is called when other occupant goes away
func (occ *Occupant) OnLeaveAOI(other *aoi.AOI) {
	delete(occ.neighbors, other.Data.(*Occupant).PlayerID)
}

func (occ *Occupant) snapshot(status common.OccupantStatus) common.OccupantSnapshot {
	return common.OccupantSnapshot{
		PlayerID: occ.PlayerID,
		AreaID:   occ.AreaID,
		X:        float32(occ.X),
		Z:        float32(occ.Z),
		Status:   status,
	}
}
