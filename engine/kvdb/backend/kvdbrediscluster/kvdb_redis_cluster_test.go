package kvdbrediscluster

import (
	"testing"

	"github.com/bmizerany/assert"
	rediscluster "github.com/chasex/redis-go-cluster"
)

var _ clusterConn = rediscluster.Cluster(nil)

type memCluster map[string]interface{}

func (m memCluster) Do(cmd string, args ...interface{}) (interface{}, error) {
	key := args[0].(string)
	switch cmd {
	case "GET":
		return m[key], nil
	case "SET":
		m[key] = []byte(args[1].(string))
	case "DEL":
		delete(m, key)
	}
	return "OK", nil
}

func TestRedisClusterKVDB(t *testing.T) {
	mc := memCluster{}
	db := &redisClusterKVDB{c: mc}

	val, err := db.Get("token")
	assert.Equal(t, nil, err)
	assert.Equal(t, "", val)

	assert.Equal(t, nil, db.Put("token", "p1"))
	assert.T(t, mc[keyPrefix+"token"] != nil)
	val, err = db.Get("token")
	assert.Equal(t, nil, err)
	assert.Equal(t, "p1", val)

	assert.Equal(t, nil, db.Del("token"))
	val, _ = db.Get("token")
	assert.Equal(t, "", val)

	db.Close()
}
