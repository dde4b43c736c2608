package occupantstoragerediscluster

import (
	"io"
	"time"

	rediscluster "github.com/chasex/redis-go-cluster"
	"github.com/garyburd/redigo/redis"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack"
	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/storage/storage_common"
)

const (
	keyPrefix = "occupant$"
)

type clusterConn interface {
	Do(cmd string, args ...interface{}) (interface{}, error)
}

type redisClusterOccupantStorage struct {
	c clusterConn
}

// OpenRedisCluster opens a redis cluster as occupant storage
//
// Listing is not supported: SCAN would only see one node of the cluster.
func OpenRedisCluster(startNodes []string) (storagecommon.OccupantStorage, error) {
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

	return &redisClusterOccupantStorage{c: c}, nil
}

func (es *redisClusterOccupantStorage) List() ([]common.PlayerID, error) {
	return nil, errors.New("list is not supported on redis cluster")
}

func (es *redisClusterOccupantStorage) Write(playerID common.PlayerID, data map[string]interface{}) error {
	b, err := msgpack.Marshal(data)
	if err != nil {
		return err
	}
	_, err = es.c.Do("SET", keyPrefix+string(playerID), b)
	return err
}

func (es *redisClusterOccupantStorage) Read(playerID common.PlayerID) (map[string]interface{}, error) {
	b, err := redis.Bytes(es.c.Do("GET", keyPrefix+string(playerID)))
	if err == redis.ErrNil {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	var data map[string]interface{}
	if err := msgpack.Unmarshal(b, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (es *redisClusterOccupantStorage) Close() {
	// the cluster client owns its node pools and has no Close
}

func (es *redisClusterOccupantStorage) IsEOF(err error) bool {
	err = errors.Cause(err)
	return err == io.EOF || err == io.ErrUnexpectedEOF
}
