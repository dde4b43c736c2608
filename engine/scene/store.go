package scene

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/xiaonanln/go-aoi"
	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/consts"
	"github.com/zoneworld/zoneworld/engine/gwlog"
)

const aoiDistance = aoi.Coord(consts.AOI_DISTANCE)

// Observer is notified when occupants enter or leave local areas
type Observer interface {
	OnOccupantEntered(player common.PlayerID, area common.AreaID)
	OnOccupantLeft(player common.PlayerID, area common.AreaID)
}

// LocalAreas tells if an area is owned by local server
type LocalAreas interface {
	IsLocal(id common.AreaID) bool
}

type areaScene struct {
	id        common.AreaID
	aoiMgr    aoi.AOIManager
	occupants map[common.PlayerID]*Occupant
}

type notification struct {
	player  common.PlayerID
	area    common.AreaID
	entered bool
}

// Store holds occupants of static areas owned by local server
//
// Occupants leaving the store are handed to the snapshot sink for saving.
type Store struct {
	local     LocalAreas
	sink      common.SnapshotSink
	observers []Observer

	lock      sync.Mutex
	areas     map[common.AreaID]*areaScene
	occupants map[common.PlayerID]*Occupant
	statuses  map[common.PlayerID]common.OccupantStatus
}

// NewStore creates the scene store, sink might be nil
func NewStore(local LocalAreas, sink common.SnapshotSink, observers ...Observer) *Store {
	return &Store{
		local:     local,
		sink:      sink,
		observers: observers,
		areas:     map[common.AreaID]*areaScene{},
		occupants: map[common.PlayerID]*Occupant{},
		statuses:  map[common.PlayerID]common.OccupantStatus{},
	}
}

func (s *Store) getAreaLocked(id common.AreaID) *areaScene {
	as := s.areas[id]
	if as == nil {
		as = &areaScene{
			id:        id,
			aoiMgr:    aoi.NewXZListAOIManager(aoiDistance),
			occupants: map[common.PlayerID]*Occupant{},
		}
		s.areas[id] = as
	}
	return as
}

// Enter puts the player into the local area
//
// A player already in another local area is transferred.
func (s *Store) Enter(player common.PlayerID, area common.AreaID, x, z float32) error {
	if player.IsNil() {
		return errors.New("empty player id")
	}
	if !s.local.IsLocal(area) {
		return errors.Wrapf(common.ErrNotFound, "area %d is not local", area)
	}

	var notes []notification
	var saved []common.OccupantSnapshot

	s.lock.Lock()
	occ := s.occupants[player]
	if occ != nil && occ.AreaID == area {
		s.moveLocked(occ, aoi.Coord(x), aoi.Coord(z))
		s.lock.Unlock()
		return nil
	}
	if occ != nil {
		saved = append(saved, s.leaveLocked(occ))
		notes = append(notes, notification{player, occ.AreaID, false})
	}

	occ = newOccupant(player, area, aoi.Coord(x), aoi.Coord(z))
	as := s.getAreaLocked(area)
	as.occupants[player] = occ
	s.occupants[player] = occ
	as.aoiMgr.Enter(&occ.aoi, occ.X, occ.Z)
	notes = append(notes, notification{player, area, true})
	s.lock.Unlock()

	if consts.DEBUG_SCENES {
		gwlog.Debugf("scene: %s entered", occ)
	}
	s.emit(saved, notes)
	return nil
}

// Leave removes the player from local areas and returns its state
func (s *Store) Leave(player common.PlayerID) (common.OccupantSnapshot, error) {
	s.lock.Lock()
	occ := s.occupants[player]
	if occ == nil {
		s.lock.Unlock()
		return common.OccupantSnapshot{}, errors.Wrapf(common.ErrNotFound, "occupant %s", player)
	}
	snap := s.leaveLocked(occ)
	s.lock.Unlock()

	if consts.DEBUG_SCENES {
		gwlog.Debugf("scene: %s left", occ)
	}
	s.emit([]common.OccupantSnapshot{snap}, []notification{{player, occ.AreaID, false}})
	return snap, nil
}

func (s *Store) leaveLocked(occ *Occupant) common.OccupantSnapshot {
	as := s.areas[occ.AreaID]
	as.aoiMgr.Leave(&occ.aoi)
	delete(as.occupants, occ.PlayerID)
	if len(as.occupants) == 0 {
		delete(s.areas, occ.AreaID)
	}
	delete(s.occupants, occ.PlayerID)

	status := s.statuses[occ.PlayerID]
	if status == common.StatusAlive {
		delete(s.statuses, occ.PlayerID)
	}
	return occ.snapshot(status)
}

// Evict removes all occupants of the area, used when the area is no longer local
func (s *Store) Evict(area common.AreaID) []common.OccupantSnapshot {
	var saved []common.OccupantSnapshot
	var notes []notification

	s.lock.Lock()
	if as := s.areas[area]; as != nil {
		for _, occ := range as.occupants {
			saved = append(saved, s.leaveLocked(occ))
			notes = append(notes, notification{occ.PlayerID, area, false})
		}
	}
	s.lock.Unlock()

	if len(saved) > 0 {
		gwlog.Warnf("scene: evicted %d occupants from area %d", len(saved), area)
	}
	s.emit(saved, notes)
	return saved
}

func (s *Store) emit(saved []common.OccupantSnapshot, notes []notification) {
	if s.sink != nil {
		for _, snap := range saved {
			s.sink.SaveOccupant(snap)
		}
	}
	for _, n := range notes {
		for _, o := range s.observers {
			if n.entered {
				o.OnOccupantEntered(n.player, n.area)
			} else {
				o.OnOccupantLeft(n.player, n.area)
			}
		}
	}
}

// Move moves the player in its area
func (s *Store) Move(player common.PlayerID, x, z float32) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	occ := s.occupants[player]
	if occ == nil {
		return errors.Wrapf(common.ErrNotFound, "occupant %s", player)
	}
	s.moveLocked(occ, aoi.Coord(x), aoi.Coord(z))
	return nil
}

func (s *Store) moveLocked(occ *Occupant, x, z aoi.Coord) {
	occ.X, occ.Z = x, z
	s.areas[occ.AreaID].aoiMgr.Moved(&occ.aoi, x, z)
}

// Occupant returns the state of the player if it is in local areas
func (s *Store) Occupant(player common.PlayerID) (common.OccupantSnapshot, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	occ := s.occupants[player]
	if occ == nil {
		return common.OccupantSnapshot{}, false
	}
	return occ.snapshot(s.statuses[player]), true
}

// Status returns the status of the player, players never seen are alive
func (s *Store) Status(player common.PlayerID) common.OccupantStatus {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.statuses[player]
}

// SetStatus sets the status of the player
//
// Defeated status is kept after the player leaves, until it is set back to alive.
func (s *Store) SetStatus(player common.PlayerID, status common.OccupantStatus) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if status == common.StatusAlive && s.occupants[player] == nil {
		delete(s.statuses, player)
		return
	}
	s.statuses[player] = status
}

// Nearby returns players within AOI distance of the player
func (s *Store) Nearby(player common.PlayerID) ([]common.PlayerID, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	occ := s.occupants[player]
	if occ == nil {
		return nil, errors.Wrapf(common.ErrNotFound, "occupant %s", player)
	}
	players := make([]common.PlayerID, 0, len(occ.neighbors))
	for p := range occ.neighbors {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i] < players[j]
	})
	return players, nil
}

// Count returns the number of occupants in the area
func (s *Store) Count(area common.AreaID) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	if as := s.areas[area]; as != nil {
		return len(as.occupants)
	}
	return 0
}

// Areas returns areas which have occupants
func (s *Store) Areas() common.AreaIDSet {
	s.lock.Lock()
	defer s.lock.Unlock()
	ids := make(common.AreaIDSet, len(s.areas))
	for id := range s.areas {
		ids.Add(id)
	}
	return ids
}
