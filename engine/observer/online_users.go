package observer

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/instance"
)

// OnlineUsers counts online players per area and live instances per template
type OnlineUsers struct {
	Base

	lock      sync.Mutex
	areas     map[common.AreaID]int
	instances map[common.AreaID]int
}

// NewOnlineUsers creates an empty OnlineUsers
func NewOnlineUsers() *OnlineUsers {
	return &OnlineUsers{
		areas:     map[common.AreaID]int{},
		instances: map[common.AreaID]int{},
	}
}

func (ou *OnlineUsers) OnOccupantEntered(player common.PlayerID, area common.AreaID) {
	ou.lock.Lock()
	ou.areas[area]++
	ou.lock.Unlock()
}

func (ou *OnlineUsers) OnOccupantLeft(player common.PlayerID, area common.AreaID) {
	ou.lock.Lock()
	if ou.areas[area] <= 1 {
		delete(ou.areas, area)
	} else {
		ou.areas[area]--
	}
	ou.lock.Unlock()
}

func (ou *OnlineUsers) OnInstanceCreated(h instance.Handle) {
	ou.lock.Lock()
	ou.instances[h.Template]++
	ou.lock.Unlock()
}

func (ou *OnlineUsers) OnInstanceReaped(h instance.Handle) {
	ou.lock.Lock()
	if ou.instances[h.Template] <= 1 {
		delete(ou.instances, h.Template)
	} else {
		ou.instances[h.Template]--
	}
	ou.lock.Unlock()
}

// Count returns the number of players in area
func (ou *OnlineUsers) Count(area common.AreaID) int {
	ou.lock.Lock()
	defer ou.lock.Unlock()
	return ou.areas[area]
}

// Total returns the number of players in all areas
func (ou *OnlineUsers) Total() int {
	ou.lock.Lock()
	defer ou.lock.Unlock()
	total := 0
	for _, n := range ou.areas {
		total += n
	}
	return total
}

// Instances returns the number of live instances of template
func (ou *OnlineUsers) Instances(template common.AreaID) int {
	ou.lock.Lock()
	defer ou.lock.Unlock()
	return ou.instances[template]
}

// Dump formats the counters, areas in ascending order
func (ou *OnlineUsers) Dump() string {
	ou.lock.Lock()
	defer ou.lock.Unlock()

	var lines []string
	for _, id := range sortedKeys(ou.areas) {
		lines = append(lines, fmt.Sprintf("area %d: %d online", id, ou.areas[id]))
	}
	for _, id := range sortedKeys(ou.instances) {
		lines = append(lines, fmt.Sprintf("template %d: %d instances", id, ou.instances[id]))
	}
	return strings.Join(lines, "\n")
}

func sortedKeys(m map[common.AreaID]int) []common.AreaID {
	keys := make([]common.AreaID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
