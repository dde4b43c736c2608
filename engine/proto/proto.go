// Package proto defines the msgpack envelope exchanged with clients
package proto

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack"
	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/routing"
)

// Code is the result code of a request
type Code uint16

const (
	// OK means the request was admitted by the server which answered
	OK Code = iota
	// REDIRECT means the client should resend the request to Addr
	REDIRECT
	NOT_FOUND
	// RETRY means the target is temporarily unavailable
	RETRY
	CAPACITY_EXCEEDED
	INSTANCE_FULL
	UNAUTHENTICATED
	// REJECTED means the admission filter refused the player
	REJECTED
	BAD_REQUEST
	INTERNAL
)

var codeNames = [...]string{
	OK:                "OK",
	REDIRECT:          "REDIRECT",
	NOT_FOUND:         "NOT_FOUND",
	RETRY:             "RETRY",
	CAPACITY_EXCEEDED: "CAPACITY_EXCEEDED",
	INSTANCE_FULL:     "INSTANCE_FULL",
	UNAUTHENTICATED:   "UNAUTHENTICATED",
	REJECTED:          "REJECTED",
	BAD_REQUEST:       "BAD_REQUEST",
	INTERNAL:          "INTERNAL",
}

func (c Code) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("Code<%d>", uint16(c))
}

// Actions which are not routed: they are served by the auth and manager roles
const (
	// ActionLogin asks an auth server for a session token
	ActionLogin = "login"
	// ActionAddServer asks the manager to announce a server
	ActionAddServer = "addServer"
	// ActionRemoveServer asks the manager to announce a server is gone
	ActionRemoveServer = "removeServer"
)

// ErrBadRequest is returned for requests which can not be routed at all
var ErrBadRequest = errors.New("bad request")

var knownActions = map[routing.Action]bool{
	routing.ActionEnterStaticArea: true,
	routing.ActionEnterInstance:   true,
	routing.ActionConnectSession:  true,
	routing.ActionLeaveArea:       true,
	routing.ActionLeaveInstance:   true,
	routing.ActionMove:            true,
	routing.ActionQueryConnector:  true,
}

// Request is a client request
type Request struct {
	Seq        uint32  `msgpack:"seq"`
	Action     string  `msgpack:"action"`
	PlayerID   string  `msgpack:"player"`
	Token      string  `msgpack:"token"`
	AreaID     int     `msgpack:"area"`
	TemplateID int     `msgpack:"template"`
	PartyID    string  `msgpack:"party"`
	InstanceID string  `msgpack:"instance"`
	ServerID   string  `msgpack:"server"`
	Secret     string  `msgpack:"secret"`
	X          float32 `msgpack:"x"`
	Z          float32 `msgpack:"z"`
}

// Result is the reply to a Request with the same Seq
type Result struct {
	Seq        uint32 `msgpack:"seq"`
	Code       Code   `msgpack:"code"`
	ServerID   string `msgpack:"server"`
	Addr       string `msgpack:"addr"`
	AreaID     int    `msgpack:"area"`
	InstanceID string `msgpack:"instance"`
	PlayerID   string `msgpack:"player"`
	Token      string `msgpack:"token"`
	Message    string `msgpack:"msg"`
}

func (r *Result) String() string {
	return fmt.Sprintf("Result<seq=%d %s server=%s addr=%s area=%d instance=%s %s>", r.Seq, r.Code, r.ServerID, r.Addr, r.AreaID, r.InstanceID, r.Message)
}

// ToRouting converts the request to a routing request
//
// player is the id bound to the connection; it overrides PlayerID once the
// session is established.
func (req *Request) ToRouting(player common.PlayerID) (*routing.Request, error) {
	action := routing.Action(req.Action)
	if !knownActions[action] {
		return nil, errors.Wrapf(ErrBadRequest, "unknown action %q", req.Action)
	}
	if player.IsNil() {
		player = common.PlayerID(req.PlayerID)
	}
	if player.IsNil() && action != routing.ActionConnectSession && action != routing.ActionQueryConnector {
		return nil, errors.Wrapf(ErrBadRequest, "%s: missing player", action)
	}
	return &routing.Request{
		Action:   action,
		Player:   player,
		Token:    req.Token,
		Area:     common.AreaID(req.AreaID),
		Template: common.AreaID(req.TemplateID),
		Party:    common.PartyID(req.PartyID),
		Instance: common.InstanceID(req.InstanceID),
		X:        req.X,
		Z:        req.Z,
	}, nil
}

var kindCodes = map[routing.Kind]Code{
	routing.KindNotFound:             NOT_FOUND,
	routing.KindRetryableUnavailable: RETRY,
	routing.KindCapacityExceeded:     CAPACITY_EXCEEDED,
	routing.KindInstanceFull:         INSTANCE_FULL,
	routing.KindUnauthenticated:      UNAUTHENTICATED,
	routing.KindRejected:             REJECTED,
}

// CodeOf maps an error to its result code
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	if errors.Cause(err) == ErrBadRequest {
		return BAD_REQUEST
	}
	if code, ok := kindCodes[routing.KindOf(err)]; ok {
		return code
	}
	return INTERNAL
}

// NewResult builds the reply of request seq from a routing outcome
func NewResult(seq uint32, res routing.Result, err error) *Result {
	if err != nil {
		return &Result{Seq: seq, Code: CodeOf(err), Message: err.Error()}
	}
	r := &Result{
		Seq:        seq,
		Code:       OK,
		PlayerID:   string(res.Player),
		ServerID:   string(res.Server),
		Addr:       res.Addr,
		AreaID:     int(res.Area),
		InstanceID: string(res.Instance),
	}
	if res.Outcome == routing.Redirected {
		r.Code = REDIRECT
	}
	return r
}

// Marshal encodes a message in msgpack
func Marshal(msg interface{}) ([]byte, error) {
	return msgpack.Marshal(msg)
}

// Unmarshal decodes a msgpack message
func Unmarshal(data []byte, msg interface{}) error {
	return msgpack.Unmarshal(data, msg)
}
