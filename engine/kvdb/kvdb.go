package kvdb

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/zoneworld/zoneworld/engine/config"
	"github.com/zoneworld/zoneworld/engine/gwlog"
	"github.com/zoneworld/zoneworld/engine/kvdb/backend/kvdb_mongodb"
	"github.com/zoneworld/zoneworld/engine/kvdb/backend/kvdbredis"
	"github.com/zoneworld/zoneworld/engine/kvdb/backend/kvdbrediscluster"
	"github.com/zoneworld/zoneworld/engine/kvdb/types"
	"github.com/zoneworld/zoneworld/engine/opmon"
)

const (
	_OPERATION_WARN_THRESHOLD = 100 * time.Millisecond
)

// ErrDisabled is returned when no KVDB is configured
var ErrDisabled = errors.New("kvdb not configured")

// Opener opens a connection to a KVDB engine
type Opener func() (kvdbtypes.KVDBEngine, error)

// DB is a KVDB with lazy (re)connection
//
// Operations are synchronous and serialized on one connection. A connection
// error closes the engine and the next operation reopens it.
type DB struct {
	lock   sync.Mutex
	open   Opener
	engine kvdbtypes.KVDBEngine
}

// Open opens the KVDB described by cfg
func Open(cfg *config.KVDBConfig) (*DB, error) {
	var open Opener
	switch cfg.Type {
	case "":
		return nil, ErrDisabled
	case "mongodb":
		open = func() (kvdbtypes.KVDBEngine, error) {
			return kvdbmongo.OpenMongoKVDB(cfg.Url, cfg.DB, cfg.Collection)
		}
	case "redis":
		open = func() (kvdbtypes.KVDBEngine, error) {
			return kvdbredis.OpenRedisKVDB(cfg.Url, cfg.DB)
		}
	case "redis_cluster":
		nodes := cfg.StartNodes.ToList()
		open = func() (kvdbtypes.KVDBEngine, error) {
			return kvdbrediscluster.OpenRedisKVDB(nodes)
		}
	default:
		return nil, errors.Errorf("kvdb type %s is not implemented", cfg.Type)
	}

	gwlog.Infof("KVDB initializing, config:\n%s", config.DumpPretty(cfg))
	db := NewWithOpener(open)
	db.lock.Lock()
	err := db.assureReady()
	db.lock.Unlock()
	if err != nil {
		return nil, err
	}
	return db, nil
}

// NewWithOpener creates a DB that connects with open on first use
func NewWithOpener(open Opener) *DB {
	return &DB{open: open}
}

func (db *DB) assureReady() error {
	if db.engine != nil {
		return nil
	}
	engine, err := db.open()
	if err != nil {
		return errors.Wrap(err, "kvdb engine is not ready")
	}
	db.engine = engine
	return nil
}

func (db *DB) checkConnection(err error) {
	if err != nil && db.engine.IsConnectionError(err) {
		gwlog.Warnf("KVDB connection lost: %v", err)
		db.engine.Close()
		db.engine = nil
	}
}

// Get returns the value of key, or "" if key does not exist
func (db *DB) Get(key string) (string, error) {
	op := opmon.StartOperation("kvdb.get")
	defer op.Finish(_OPERATION_WARN_THRESHOLD)

	db.lock.Lock()
	defer db.lock.Unlock()
	if err := db.assureReady(); err != nil {
		return "", err
	}
	val, err := db.engine.Get(key)
	db.checkConnection(err)
	return val, err
}

// Put sets the value of key
func (db *DB) Put(key string, val string) error {
	op := opmon.StartOperation("kvdb.put")
	defer op.Finish(_OPERATION_WARN_THRESHOLD)

	db.lock.Lock()
	defer db.lock.Unlock()
	if err := db.assureReady(); err != nil {
		return err
	}
	err := db.engine.Put(key, val)
	db.checkConnection(err)
	return err
}

// Del removes key
func (db *DB) Del(key string) error {
	op := opmon.StartOperation("kvdb.del")
	defer op.Finish(_OPERATION_WARN_THRESHOLD)

	db.lock.Lock()
	defer db.lock.Unlock()
	if err := db.assureReady(); err != nil {
		return err
	}
	err := db.engine.Del(key)
	db.checkConnection(err)
	return err
}

// Close closes the underlying engine
func (db *DB) Close() {
	db.lock.Lock()
	defer db.lock.Unlock()
	if db.engine != nil {
		db.engine.Close()
		db.engine = nil
	}
}
