package observer

import (
	"github.com/zoneworld/zoneworld/engine/areareg"
	"github.com/zoneworld/zoneworld/engine/gwlog"
	"github.com/zoneworld/zoneworld/engine/membership"
)

// MembershipLogger logs every applied membership event
type MembershipLogger struct {
	Base
}

func (MembershipLogger) OnMembershipApplied(ev membership.Event, snap *areareg.Snapshot) {
	gwlog.Infof("membership: applied %s %s (%s) seq=%d, registry version=%d, %d areas owned", ev.Type, ev.ServerID, ev.Role, ev.Seq, snap.Version(), len(snap.Owners()))
}
