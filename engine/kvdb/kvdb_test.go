package kvdb

import (
	"io"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/pkg/errors"
	"github.com/zoneworld/zoneworld/engine/config"
	"github.com/zoneworld/zoneworld/engine/kvdb/types"
)

type memEngine struct {
	data    map[string]string
	closed  bool
	failGet error
}

func (e *memEngine) Get(key string) (string, error) {
	if e.failGet != nil {
		return "", e.failGet
	}
	return e.data[key], nil
}

func (e *memEngine) Put(key string, val string) error {
	e.data[key] = val
	return nil
}

func (e *memEngine) Del(key string) error {
	delete(e.data, key)
	return nil
}

func (e *memEngine) Close() {
	e.closed = true
}

func (e *memEngine) IsConnectionError(err error) bool {
	return err == io.EOF
}

func TestBasic(t *testing.T) {
	e := &memEngine{data: map[string]string{}}
	db := NewWithOpener(func() (kvdbtypes.KVDBEngine, error) { return e, nil })

	val, err := db.Get("__key_not_exists__")
	assert.Equal(t, nil, err)
	assert.Equal(t, "", val)

	assert.Equal(t, nil, db.Put("a", "111"))
	val, err = db.Get("a")
	assert.Equal(t, nil, err)
	assert.Equal(t, "111", val)

	assert.Equal(t, nil, db.Del("a"))
	val, _ = db.Get("a")
	assert.Equal(t, "", val)
}

func TestReconnect(t *testing.T) {
	opened := 0
	var engines []*memEngine
	db := NewWithOpener(func() (kvdbtypes.KVDBEngine, error) {
		opened++
		e := &memEngine{data: map[string]string{"k": "v"}}
		engines = append(engines, e)
		return e, nil
	})

	_, err := db.Get("k")
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, opened)

	engines[0].failGet = io.EOF
	_, err = db.Get("k")
	assert.Equal(t, io.EOF, err)
	assert.T(t, engines[0].closed)

	val, err := db.Get("k")
	assert.Equal(t, nil, err)
	assert.Equal(t, "v", val)
	assert.Equal(t, 2, opened)
}

func TestNonConnectionErrorKeepsEngine(t *testing.T) {
	opened := 0
	e := &memEngine{data: map[string]string{}}
	db := NewWithOpener(func() (kvdbtypes.KVDBEngine, error) {
		opened++
		return e, nil
	})
	e.failGet = errors.New("bad value")
	_, err := db.Get("k")
	assert.NotEqual(t, nil, err)
	assert.T(t, !e.closed)
	e.failGet = nil
	_, err = db.Get("k")
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, opened)
}

func TestOpenFailure(t *testing.T) {
	db := NewWithOpener(func() (kvdbtypes.KVDBEngine, error) {
		return nil, errors.New("connection refused")
	})
	_, err := db.Get("k")
	assert.NotEqual(t, nil, err)
}

func TestOpenDisabled(t *testing.T) {
	_, err := Open(&config.KVDBConfig{})
	assert.Equal(t, ErrDisabled, err)

	_, err = Open(&config.KVDBConfig{Type: "leveldb"})
	assert.NotEqual(t, nil, err)
}
