package storagecommon

import (
	"reflect"

	"github.com/xiaonanln/typeconv"
	"github.com/zoneworld/zoneworld/engine/common"
)

// OccupantStorage defines the interface of occupant storage backends
//
// Read returns nil data with a nil error when the player was never saved.
type OccupantStorage interface {
	List() ([]common.PlayerID, error)
	Write(playerID common.PlayerID, data map[string]interface{}) error
	Read(playerID common.PlayerID) (map[string]interface{}, error)
	Close()
	IsEOF(err error) bool
}

var (
	stringType  = reflect.TypeOf("")
	float64Type = reflect.TypeOf(float64(0))
)

// SnapshotToData converts a snapshot to the generic form stored by backends
func SnapshotToData(snap common.OccupantSnapshot) map[string]interface{} {
	return map[string]interface{}{
		"player":   string(snap.PlayerID),
		"area":     int(snap.AreaID),
		"instance": string(snap.InstanceID),
		"x":        float64(snap.X),
		"z":        float64(snap.Z),
		"status":   int(snap.Status),
	}
}

// SnapshotFromData converts backend data back to a snapshot
//
// Backends return numbers in different types (float64 from json, int64
// from msgpack, int from bson), so every field goes through typeconv.
func SnapshotFromData(data map[string]interface{}) common.OccupantSnapshot {
	var snap common.OccupantSnapshot
	if v, ok := data["player"]; ok && v != nil {
		snap.PlayerID = common.PlayerID(typeconv.Convert(v, stringType).String())
	}
	if v, ok := data["area"]; ok && v != nil {
		snap.AreaID = common.AreaID(typeconv.Int(v))
	}
	if v, ok := data["instance"]; ok && v != nil {
		snap.InstanceID = common.InstanceID(typeconv.Convert(v, stringType).String())
	}
	if v, ok := data["x"]; ok && v != nil {
		snap.X = float32(typeconv.Convert(v, float64Type).Float())
	}
	if v, ok := data["z"]; ok && v != nil {
		snap.Z = float32(typeconv.Convert(v, float64Type).Float())
	}
	if v, ok := data["status"]; ok && v != nil {
		snap.Status = common.OccupantStatus(typeconv.Int(v))
	}
	return snap
}
