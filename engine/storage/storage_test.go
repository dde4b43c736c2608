package storage

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/post"
	"github.com/zoneworld/zoneworld/engine/storage/storage_common"
)

type memStorage struct {
	lock      sync.Mutex
	data      map[common.PlayerID]map[string]interface{}
	failWrite int
	closed    bool
}

func (m *memStorage) List() ([]common.PlayerID, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	var ids []common.PlayerID
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memStorage) Write(playerID common.PlayerID, data map[string]interface{}) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.failWrite > 0 {
		m.failWrite--
		return io.EOF
	}
	m.data[playerID] = data
	return nil
}

func (m *memStorage) Read(playerID common.PlayerID) (map[string]interface{}, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.data[playerID], nil
}

func (m *memStorage) Close() {
	m.closed = true
}

func (m *memStorage) IsEOF(err error) bool {
	return err == io.EOF
}

func tickUntil(t *testing.T, done func() bool) {
	deadline := time.Now().Add(5 * time.Second)
	for !done() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout")
		}
		post.Tick()
		time.Sleep(time.Millisecond)
	}
}

func TestSaveLoad(t *testing.T) {
	mem := &memStorage{data: map[common.PlayerID]map[string]interface{}{}}
	s := New(func() (storagecommon.OccupantStorage, error) { return mem, nil })
	s.Start()
	defer s.Shutdown()

	snap := common.OccupantSnapshot{PlayerID: "alice", AreaID: 3, X: 10, Z: 20, Status: common.StatusDefeated}
	saved := false
	s.Save(snap, func(err error) {
		assert.Equal(t, nil, err)
		saved = true
	})
	tickUntil(t, func() bool { return saved })

	var loaded *common.OccupantSnapshot
	loadDone := false
	s.Load("alice", func(got *common.OccupantSnapshot, err error) {
		assert.Equal(t, nil, err)
		loaded = got
		loadDone = true
	})
	tickUntil(t, func() bool { return loadDone })
	assert.NotEqual(t, (*common.OccupantSnapshot)(nil), loaded)
	assert.Equal(t, snap, *loaded)

	missingDone := false
	s.Load("bob", func(got *common.OccupantSnapshot, err error) {
		assert.Equal(t, nil, err)
		assert.T(t, got == nil)
		missingDone = true
	})
	tickUntil(t, func() bool { return missingDone })

	listDone := false
	s.List(func(ids []common.PlayerID, err error) {
		assert.Equal(t, nil, err)
		assert.Equal(t, []common.PlayerID{"alice"}, ids)
		listDone = true
	})
	tickUntil(t, func() bool { return listDone })
}

func TestSaveRetriesAfterEOF(t *testing.T) {
	mem := &memStorage{data: map[common.PlayerID]map[string]interface{}{}, failWrite: 2}
	opened := 0
	s := New(func() (storagecommon.OccupantStorage, error) {
		opened++
		return mem, nil
	})
	s.retryDelay = time.Millisecond
	s.Start()
	defer s.Shutdown()

	saved := false
	s.Save(common.OccupantSnapshot{PlayerID: "carol", AreaID: 1}, func(err error) {
		assert.Equal(t, nil, err)
		saved = true
	})
	tickUntil(t, func() bool { return saved })
	assert.Equal(t, 3, opened)
	_, ok := mem.data["carol"]
	assert.T(t, ok)
}

func TestSnapshotSink(t *testing.T) {
	var _ common.SnapshotSink = (*Storage)(nil)
}
