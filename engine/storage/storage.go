// Package storage persists occupant snapshots asynchronously
//
// Requests are queued and served by a single storage routine. Callbacks
// are posted to the logic goroutine through engine/post.
package storage

import (
	"time"

	"github.com/pkg/errors"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/config"
	"github.com/zoneworld/zoneworld/engine/consts"
	"github.com/zoneworld/zoneworld/engine/gwlog"
	"github.com/zoneworld/zoneworld/engine/opmon"
	"github.com/zoneworld/zoneworld/engine/post"
	"github.com/zoneworld/zoneworld/engine/storage/backend/filesystem"
	"github.com/zoneworld/zoneworld/engine/storage/backend/mongodb"
	"github.com/zoneworld/zoneworld/engine/storage/backend/redis"
	"github.com/zoneworld/zoneworld/engine/storage/backend/redis_cluster"
	"github.com/zoneworld/zoneworld/engine/storage/storage_common"
)

const (
	_MAX_SAVE_ATTEMPTS = 10
)

// Opener opens a storage backend
type Opener func() (storagecommon.OccupantStorage, error)

// SaveCallbackFunc is the callback type of storage Save
type SaveCallbackFunc func(err error)

// LoadCallbackFunc is the callback type of storage Load
//
// snap is nil when the player was never saved.
type LoadCallbackFunc func(snap *common.OccupantSnapshot, err error)

// ListCallbackFunc is the callback type of storage List
type ListCallbackFunc func([]common.PlayerID, error)

type saveRequest struct {
	Snapshot common.OccupantSnapshot
	Callback SaveCallbackFunc
}

type loadRequest struct {
	PlayerID common.PlayerID
	Callback LoadCallbackFunc
}

type listRequest struct {
	Callback ListCallbackFunc
}

// Storage saves and loads occupant snapshots off the caller's goroutine
type Storage struct {
	open           Opener
	engine         storagecommon.OccupantStorage
	operationQueue *xnsyncutil.SyncQueue
	terminated     *xnsyncutil.OneTimeCond
	retryDelay     time.Duration

	recentWarnedQueueLen int
}

// Open opens the storage described by cfg and starts the storage routine
func Open(cfg *config.StorageConfig) (*Storage, error) {
	var open Opener
	switch cfg.Type {
	case "filesystem":
		dir := config.ResolvePath(cfg.Directory)
		open = func() (storagecommon.OccupantStorage, error) {
			return occupantstoragefilesystem.OpenDirectory(dir)
		}
	case "mongodb":
		open = func() (storagecommon.OccupantStorage, error) {
			return occupantstoragemongodb.OpenMongoDB(cfg.Url, cfg.DB)
		}
	case "redis":
		open = func() (storagecommon.OccupantStorage, error) {
			return occupantstorageredis.OpenRedis(cfg.Url, cfg.DB)
		}
	case "redis_cluster":
		nodes := cfg.StartNodes.ToList()
		open = func() (storagecommon.OccupantStorage, error) {
			return occupantstoragerediscluster.OpenRedisCluster(nodes)
		}
	default:
		return nil, errors.Errorf("unknown storage type: %s", cfg.Type)
	}

	gwlog.Infof("Storage initializing, config:\n%s", config.DumpPretty(cfg))
	s := New(open)
	if err := s.assureEngineReady(); err != nil {
		return nil, err
	}
	go s.storageRoutine()
	return s, nil
}

// New creates a Storage on open without starting the routine
func New(open Opener) *Storage {
	return &Storage{
		open:           open,
		operationQueue: xnsyncutil.NewSyncQueue(),
		terminated:     xnsyncutil.NewOneTimeCond(),
		retryDelay:     time.Second,
	}
}

// Start starts the storage routine
func (s *Storage) Start() {
	go s.storageRoutine()
}

// SaveOccupant queues a snapshot for saving
func (s *Storage) SaveOccupant(snap common.OccupantSnapshot) {
	s.Save(snap, nil)
}

// Save saves an occupant snapshot
func (s *Storage) Save(snap common.OccupantSnapshot, callback SaveCallbackFunc) {
	s.operationQueue.Push(saveRequest{
		Snapshot: snap,
		Callback: callback,
	})
	s.checkOperationQueueLen()
}

// Load loads the last saved snapshot of player
func (s *Storage) Load(playerID common.PlayerID, callback LoadCallbackFunc) {
	s.operationQueue.Push(loadRequest{
		PlayerID: playerID,
		Callback: callback,
	})
	s.checkOperationQueueLen()
}

// List lists all saved players
func (s *Storage) List(callback ListCallbackFunc) {
	s.operationQueue.Push(listRequest{
		Callback: callback,
	})
	s.checkOperationQueueLen()
}

func (s *Storage) checkOperationQueueLen() {
	qlen := s.operationQueue.Len()
	if qlen > 100 && qlen%100 == 0 && s.recentWarnedQueueLen != qlen {
		gwlog.Warnf("Storage operation queue length = %d", qlen)
		s.recentWarnedQueueLen = qlen
	}
}

// Shutdown flushes queued requests and stops the storage routine
func (s *Storage) Shutdown() {
	s.operationQueue.Close()
	s.terminated.Wait()
}

func (s *Storage) assureEngineReady() (err error) {
	if s.engine != nil {
		return
	}
	s.engine, err = s.open()
	return
}

func (s *Storage) resetOnEOF(err error) {
	if err != nil && s.engine != nil && s.engine.IsEOF(err) {
		s.engine.Close()
		s.engine = nil
	}
}

func (s *Storage) storageRoutine() {
	defer func() {
		err := recover()
		if err != nil {
			gwlog.TraceError("storage routine paniced: %s, restarting ...", err)
			go s.storageRoutine()
		} else {
			if s.engine != nil {
				s.engine.Close()
			}
			s.terminated.Signal()
		}
	}()

	for {
		op := s.operationQueue.Pop()
		if op == nil { // queue closed
			break
		}

		switch req := op.(type) {
		case saveRequest:
			s.handleSave(req)
		case loadRequest:
			s.handleLoad(req)
		case listRequest:
			s.handleList(req)
		default:
			gwlog.Panicf("storage: unknown operation: %v", op)
		}
	}
}

func (s *Storage) handleSave(req saveRequest) {
	monop := opmon.StartOperation("storage.save")
	defer monop.Finish(consts.STORAGE_OPERATION_WARN_THRESHOLD)

	if consts.DEBUG_SAVE_LOAD {
		gwlog.Debugf("storage: SAVING %s ...", req.Snapshot.PlayerID)
	}
	data := storagecommon.SnapshotToData(req.Snapshot)
	var err error
	for attempt := 0; attempt < _MAX_SAVE_ATTEMPTS; attempt++ {
		if attempt > 0 {
			time.Sleep(s.retryDelay)
		}
		if err = s.assureEngineReady(); err != nil {
			gwlog.Errorf("Storage engine is not ready: %s", err)
			continue
		}
		if err = s.engine.Write(req.Snapshot.PlayerID, data); err == nil {
			break
		}
		gwlog.Errorf("storage: save %s failed: %s", req.Snapshot.PlayerID, err)
		s.resetOnEOF(err)
	}
	if err != nil {
		gwlog.Errorf("storage: giving up saving %+v", req.Snapshot)
	}
	if req.Callback != nil {
		post.Post(func() {
			req.Callback(err)
		})
	}
}

func (s *Storage) handleLoad(req loadRequest) {
	monop := opmon.StartOperation("storage.load")
	defer monop.Finish(consts.STORAGE_OPERATION_WARN_THRESHOLD)

	if consts.DEBUG_SAVE_LOAD {
		gwlog.Debugf("storage: LOADING %s ...", req.PlayerID)
	}
	var snap *common.OccupantSnapshot
	err := s.assureEngineReady()
	if err == nil {
		var data map[string]interface{}
		data, err = s.engine.Read(req.PlayerID)
		if err != nil {
			gwlog.TraceError("storage: load %s failed: %s", req.PlayerID, err)
			s.resetOnEOF(err)
		} else if data != nil {
			loaded := storagecommon.SnapshotFromData(data)
			snap = &loaded
		}
	}
	if req.Callback != nil {
		post.Post(func() {
			req.Callback(snap, err)
		})
	}
}

func (s *Storage) handleList(req listRequest) {
	monop := opmon.StartOperation("storage.list")
	defer monop.Finish(time.Second)

	var ids []common.PlayerID
	err := s.assureEngineReady()
	if err == nil {
		ids, err = s.engine.List()
		if err != nil {
			gwlog.TraceError("storage: list failed: %s", err)
			s.resetOnEOF(err)
		}
	}
	if req.Callback != nil {
		post.Post(func() {
			req.Callback(ids, err)
		})
	}
}
