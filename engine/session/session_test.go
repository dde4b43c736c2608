package session

import (
	"testing"

	"github.com/bmizerany/assert"
	"github.com/pkg/errors"
	"github.com/zoneworld/zoneworld/engine/common"
)

type mapStore struct {
	data map[string]string
	err  error
}

func (s *mapStore) Get(key string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.data[key], nil
}

func (s *mapStore) Put(key string, val string) error {
	s.data[key] = val
	return nil
}

func (s *mapStore) Del(key string) error {
	delete(s.data, key)
	return nil
}

func TestKVDBValidator(t *testing.T) {
	store := &mapStore{data: map[string]string{}}
	v := NewKVDBValidator(store, "")

	token, err := v.Issue("alice")
	assert.Equal(t, nil, err)
	_, ok := store.data[DefaultKeyPrefix+token]
	assert.T(t, ok)

	player, err := v.ValidateSession(token)
	assert.Equal(t, nil, err)
	assert.Equal(t, common.PlayerID("alice"), player)

	_, err = v.ValidateSession("bogus")
	assert.Equal(t, common.ErrUnauthenticated, errors.Cause(err))
	_, err = v.ValidateSession("")
	assert.Equal(t, common.ErrUnauthenticated, errors.Cause(err))

	assert.Equal(t, nil, v.Revoke(token))
	_, err = v.ValidateSession(token)
	assert.Equal(t, common.ErrUnauthenticated, errors.Cause(err))
}

func TestKVDBValidatorStoreDown(t *testing.T) {
	store := &mapStore{data: map[string]string{}, err: errors.New("connection refused")}
	v := NewKVDBValidator(store, "s$")
	_, err := v.ValidateSession("tok")
	assert.T(t, common.IsRetryable(err))
}

func TestIssueEmptyPlayer(t *testing.T) {
	v := NewKVDBValidator(&mapStore{data: map[string]string{}}, "")
	_, err := v.Issue("")
	assert.NotEqual(t, nil, err)
}

func TestStaticValidator(t *testing.T) {
	sv := NewStaticValidator(map[string]common.PlayerID{"t1": "bob"})
	player, err := sv.ValidateSession("t1")
	assert.Equal(t, nil, err)
	assert.Equal(t, common.PlayerID("bob"), player)

	tok, err := sv.Issue("carol")
	assert.Equal(t, nil, err)
	player, _ = sv.ValidateSession(tok)
	assert.Equal(t, common.PlayerID("carol"), player)

	sv.Revoke("t1")
	_, err = sv.ValidateSession("t1")
	assert.Equal(t, common.ErrUnauthenticated, errors.Cause(err))
}
