package occupantstorageredis

import (
	"io"
	"net"
	"strconv"

	"github.com/garyburd/redigo/redis"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack"
	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/storage/storage_common"
)

const (
	keyPrefix = "occupant$"
)

type redisOccupantStorage struct {
	c redis.Conn
}

// OpenRedis opens redis as occupant storage
func OpenRedis(url string, dbindex string) (storagecommon.OccupantStorage, error) {
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

	return &redisOccupantStorage{c: c}, nil
}

func (es *redisOccupantStorage) List() ([]common.PlayerID, error) {
	return scanPlayers(es.c.Do)
}

func (es *redisOccupantStorage) Write(playerID common.PlayerID, data map[string]interface{}) error {
	b, err := msgpack.Marshal(data)
	if err != nil {
		return err
	}
	_, err = es.c.Do("SET", keyPrefix+string(playerID), b)
	return err
}

func (es *redisOccupantStorage) Read(playerID common.PlayerID) (map[string]interface{}, error) {
	return readPacked(es.c.Do("GET", keyPrefix+string(playerID)))
}

func (es *redisOccupantStorage) Close() {
	es.c.Close()
}

func (es *redisOccupantStorage) IsEOF(err error) bool {
	return isEOF(err)
}

func readPacked(reply interface{}, err error) (map[string]interface{}, error) {
	b, err := redis.Bytes(reply, err)
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

func scanPlayers(do func(cmd string, args ...interface{}) (interface{}, error)) ([]common.PlayerID, error) {
	keyMatch := keyPrefix + "*"
	var ids []common.PlayerID
	cursor := "0"
	for {
		r, err := redis.Values(do("SCAN", cursor, "MATCH", keyMatch, "COUNT", 10000))
		if err != nil {
			return nil, err
		}
		if len(r) != 2 {
			return nil, errors.Errorf("unexpected SCAN reply: %v", r)
		}
		cursor, err = redis.String(r[0], nil)
		if err != nil {
			return nil, err
		}
		keys, err := redis.Strings(r[1], nil)
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			ids = append(ids, common.PlayerID(key[len(keyPrefix):]))
		}
		if cursor == "0" {
			break
		}
	}
	return ids, nil
}

func isEOF(err error) bool {
	err = errors.Cause(err)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return true
	}
	_, ok := err.(net.Error)
	return ok
}
