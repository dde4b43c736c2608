package membership

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack"
	"github.com/zoneworld/zoneworld/engine/areareg"
	"github.com/zoneworld/zoneworld/engine/common"
)

// EventType is the type of membership events
type EventType string

const (
	// ServerAdded is emitted when a server joins the cluster
	ServerAdded EventType = "add"
	// ServerRemoved is emitted when a server leaves the cluster
	ServerRemoved EventType = "remove"
)

// ErrMalformedEvent is returned by Validate
var ErrMalformedEvent = errors.New("malformed membership event")

// Event is an entry of the cluster membership log
//
// Seq is assigned by the publisher and orders events cluster-wide, starting from 1.
type Event struct {
	Seq      uint64          `msgpack:"seq"`
	Type     EventType       `msgpack:"type"`
	ServerID common.ServerID `msgpack:"sid"`
	Role     common.Role     `msgpack:"role"`
	Addr     string          `msgpack:"addr"`
	Areas    []common.AreaID `msgpack:"areas"`
}

func (ev Event) String() string {
	if ev.Type == ServerAdded {
		return fmt.Sprintf("#%d add %s<%s|%s|%v>", ev.Seq, ev.ServerID, ev.Role, ev.Addr, ev.Areas)
	}
	return fmt.Sprintf("#%d %s %s", ev.Seq, ev.Type, ev.ServerID)
}

// Validate checks fields of the event except Seq
func (ev *Event) Validate() error {
	if ev.ServerID.IsNil() {
		return errors.Wrap(ErrMalformedEvent, "empty server id")
	}
	switch ev.Type {
	case ServerAdded:
		if _, err := common.ParseRole(string(ev.Role)); err != nil {
			return errors.Wrapf(ErrMalformedEvent, "%s: %s", ev.ServerID, err)
		}
		for _, id := range ev.Areas {
			if id.IsNil() {
				return errors.Wrapf(ErrMalformedEvent, "%s: invalid area %d", ev.ServerID, id)
			}
		}
		if len(ev.Areas) > 0 && !ev.Role.HostsAreas() {
			return errors.Wrapf(ErrMalformedEvent, "%s: %s server can not own areas", ev.ServerID, ev.Role)
		}
	case ServerRemoved:
	default:
		return errors.Wrapf(ErrMalformedEvent, "unknown event type %q", ev.Type)
	}
	return nil
}

func (ev *Event) serverInfo() areareg.ServerInfo {
	return areareg.ServerInfo{
		ID:    ev.ServerID,
		Role:  ev.Role,
		Addr:  ev.Addr,
		Areas: common.NewAreaIDSet(ev.Areas...),
	}
}

// Encode packs the event with msgpack
func (ev *Event) Encode() ([]byte, error) {
	return msgpack.Marshal(ev)
}

// DecodeEvent unpacks the event packed by Encode
func DecodeEvent(data []byte) (Event, error) {
	var ev Event
	if err := msgpack.Unmarshal(data, &ev); err != nil {
		return ev, errors.Wrap(ErrMalformedEvent, err.Error())
	}
	return ev, nil
}
