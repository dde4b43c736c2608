package routing

import (
	"fmt"

	"github.com/zoneworld/zoneworld/engine/common"
)

// Action of routing requests
type Action string

const (
	ActionEnterStaticArea Action = "enterStaticArea"
	ActionEnterInstance   Action = "enterInstance"
	ActionConnectSession  Action = "connectSession"
	ActionLeaveArea       Action = "leaveArea"
	ActionLeaveInstance   Action = "leaveInstance"
	ActionMove            Action = "move"
	// ActionQueryConnector asks a gate for a connector
	ActionQueryConnector Action = "queryConnector"
)

// NeedsSession returns if the action acts on a player already admitted by the server
func (a Action) NeedsSession() bool {
	return a == ActionLeaveArea || a == ActionLeaveInstance || a == ActionMove
}

// Request is a routing request of a player
type Request struct {
	Action   Action
	Player   common.PlayerID
	Token    string
	Area     common.AreaID
	Template common.AreaID
	Party    common.PartyID
	Instance common.InstanceID
	X        float32
	Z        float32
}

func (req *Request) String() string {
	return fmt.Sprintf("%s<player=%s area=%d template=%d party=%s instance=%s>", req.Action, req.Player, req.Area, req.Template, req.Party, req.Instance)
}

// Outcome of successful routing
type Outcome int

const (
	// Admitted means the request is handled by local server
	Admitted Outcome = iota
	// Redirected means the request should be sent to Server
	Redirected
)

func (o Outcome) String() string {
	if o == Redirected {
		return "Redirected"
	}
	return "Admitted"
}

// Result of successful routing
type Result struct {
	Outcome  Outcome
	Player   common.PlayerID
	Server   common.ServerID
	Addr     string
	Area     common.AreaID
	Instance common.InstanceID
}

func (r Result) String() string {
	if r.Outcome == Redirected {
		return fmt.Sprintf("Redirect(%s@%s)", r.Server, r.Addr)
	}
	return fmt.Sprintf("Admit(%s area=%d instance=%s)", r.Server, r.Area, r.Instance)
}

// Redirect creates a redirect result
func Redirect(sid common.ServerID, addr string) Result {
	return Result{Outcome: Redirected, Server: sid, Addr: addr}
}
