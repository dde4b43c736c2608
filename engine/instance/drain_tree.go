package instance

import (
	"time"

	"github.com/petar/GoLLRB/llrb"
	"github.com/zoneworld/zoneworld/engine/common"
)

// _DrainTree orders draining instances by idle deadline
type _DrainTree struct {
	btree *llrb.LLRB
}

func newDrainTree() *_DrainTree {
	return &_DrainTree{
		btree: llrb.New(),
	}
}

type drainTreeItem struct {
	deadline time.Time
	id       common.InstanceID
}

func (it *drainTreeItem) Less(_other llrb.Item) bool {
	other := _other.(*drainTreeItem)
	return it.deadline.Before(other.deadline) || (it.deadline.Equal(other.deadline) && it.id < other.id)
}

func (dt *_DrainTree) Insert(id common.InstanceID, deadline time.Time) {
	dt.btree.ReplaceOrInsert(&drainTreeItem{
		deadline: deadline,
		id:       id,
	})
}

func (dt *_DrainTree) Remove(id common.InstanceID, deadline time.Time) {
	dt.btree.Delete(&drainTreeItem{
		deadline: deadline,
		id:       id,
	})
}

// PopExpired removes and returns instances whose deadline is not after now
func (dt *_DrainTree) PopExpired(now time.Time) []common.InstanceID {
	var expired []common.InstanceID
	for {
		min := dt.btree.Min()
		if min == nil || min.(*drainTreeItem).deadline.After(now) {
			break
		}
		dt.btree.DeleteMin()
		expired = append(expired, min.(*drainTreeItem).id)
	}
	return expired
}

func (dt *_DrainTree) Len() int {
	return dt.btree.Len()
}
