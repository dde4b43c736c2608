package common

import (
	"fmt"
	"strconv"
	"sync/atomic"
)

// AreaID identifies an area of the world, unique across the cluster
type AreaID int

func (id AreaID) String() string {
	return strconv.Itoa(int(id))
}

// IsNil returns if AreaID is nil
func (id AreaID) IsNil() bool {
	return id <= 0
}

// ServerID identifies a server process in the cluster, e.x. area1, instance2
type ServerID string

// IsNil returns if ServerID is nil
func (id ServerID) IsNil() bool {
	return id == ""
}

// PlayerID type
type PlayerID string

// IsNil returns if PlayerID is nil
func (id PlayerID) IsNil() bool {
	return id == ""
}

// PartyID identifies the player or player group an instance is allocated to
type PartyID string

// IsNil returns if PartyID is nil
func (id PartyID) IsNil() bool {
	return id == ""
}

// InstanceID identifies an instance, unique within its host
type InstanceID string

// IsNil returns if InstanceID is nil
func (id InstanceID) IsNil() bool {
	return id == ""
}

var instanceCounter uint64

// GenInstanceID generates a new InstanceID on the host
func GenInstanceID(host ServerID) InstanceID {
	n := atomic.AddUint64(&instanceCounter, 1)
	return InstanceID(fmt.Sprintf("%s#%d", host, n))
}

// OccupantStatus is the routing relevant status of an occupant
type OccupantStatus int8

const (
	// StatusAlive is the normal status
	StatusAlive OccupantStatus = iota
	// StatusDefeated players can not enter areas until revived
	StatusDefeated
)

func (st OccupantStatus) String() string {
	switch st {
	case StatusAlive:
		return "alive"
	case StatusDefeated:
		return "defeated"
	}
	return fmt.Sprintf("status<%d>", int8(st))
}

// OccupantSnapshot is the state of an occupant emitted to persistence
type OccupantSnapshot struct {
	PlayerID   PlayerID       `json:"player" msgpack:"player" bson:"player"`
	AreaID     AreaID         `json:"area" msgpack:"area" bson:"area"`
	InstanceID InstanceID     `json:"instance,omitempty" msgpack:"instance" bson:"instance"`
	X          float32        `json:"x" msgpack:"x" bson:"x"`
	Z          float32        `json:"z" msgpack:"z" bson:"z"`
	Status     OccupantStatus `json:"status" msgpack:"status" bson:"status"`
}

// SnapshotSink receives occupant snapshots for durability
type SnapshotSink interface {
	SaveOccupant(snapshot OccupantSnapshot)
}
