package kvdbrediscluster

import (
	"io"
	"net"
	"time"

	rediscluster "github.com/chasex/redis-go-cluster"
	"github.com/garyburd/redigo/redis"
	"github.com/pkg/errors"
	"github.com/zoneworld/zoneworld/engine/kvdb/types"
)

const (
	keyPrefix = "_KV_"
)

type clusterConn interface {
	Do(cmd string, args ...interface{}) (interface{}, error)
}

type redisClusterKVDB struct {
	c clusterConn
}

// OpenRedisKVDB opens a Redis Cluster for KVDB backend
func OpenRedisKVDB(startNodes []string) (kvdbtypes.KVDBEngine, error) {
	c, err := rediscluster.NewCluster(&rediscluster.Options{
		StartNodes:   startNodes,
		ConnTimeout:  10 * time.Second,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		KeepAlive:    1,
		AliveTime:    10 * time.Minute,
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect redis cluster failed")
	}

	return &redisClusterKVDB{c: c}, nil
}

func (db *redisClusterKVDB) Get(key string) (string, error) {
	val, err := redis.String(db.c.Do("GET", keyPrefix+key))
	if err == redis.ErrNil {
		return "", nil
	}
	return val, err
}

func (db *redisClusterKVDB) Put(key string, val string) error {
	_, err := db.c.Do("SET", keyPrefix+key, val)
	return err
}

func (db *redisClusterKVDB) Del(key string) error {
	_, err := db.c.Do("DEL", keyPrefix+key)
	return err
}

func (db *redisClusterKVDB) Close() {
	// the cluster client owns its node pools and has no Close
}

func (db *redisClusterKVDB) IsConnectionError(err error) bool {
	err = errors.Cause(err)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return true
	}
	_, ok := err.(net.Error)
	return ok
}
