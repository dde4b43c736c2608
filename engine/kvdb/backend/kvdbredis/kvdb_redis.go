package kvdbredis

import (
	"io"
	"net"
	"strconv"

	"github.com/garyburd/redigo/redis"
	"github.com/pkg/errors"
	"github.com/zoneworld/zoneworld/engine/kvdb/types"
)

const (
	keyPrefix = "_KV_"
)

type redisKVDB struct {
	c redis.Conn
}

// OpenRedisKVDB opens Redis for KVDB backend
func OpenRedisKVDB(url string, dbindex string) (kvdbtypes.KVDBEngine, error) {
	c, err := redis.DialURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "redis dial failed")
	}

	if dbindex != "" {
		idx, err := strconv.Atoi(dbindex)
		if err != nil {
			c.Close()
			return nil, errors.Wrapf(err, "invalid redis db %q", dbindex)
		}
		if _, err := c.Do("SELECT", idx); err != nil {
			c.Close()
			return nil, errors.Wrap(err, "redis select db failed")
		}
	}

	return &redisKVDB{c: c}, nil
}

func (db *redisKVDB) Get(key string) (string, error) {
	val, err := redis.String(db.c.Do("GET", keyPrefix+key))
	if err == redis.ErrNil {
		return "", nil
	}
	return val, err
}

func (db *redisKVDB) Put(key string, val string) error {
	_, err := db.c.Do("SET", keyPrefix+key, val)
	return err
}

func (db *redisKVDB) Del(key string) error {
	_, err := db.c.Do("DEL", keyPrefix+key)
	return err
}

func (db *redisKVDB) Close() {
	db.c.Close()
}

func (db *redisKVDB) IsConnectionError(err error) bool {
	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	err = errors.Cause(err)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return true
	}
	_, ok := err.(net.Error)
	return ok
}
