// Package session issues and validates client session tokens
//
// The auth role issues tokens into the session KV store and connectors
// validate them before any area resolution.
package session

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/gwlog"
	"github.com/zoneworld/zoneworld/engine/uuid"
)

const (
	// DefaultKeyPrefix prefixes session keys in the KV store
	DefaultKeyPrefix = "session$"
)

// Store is the KV store sessions are kept in
type Store interface {
	Get(key string) (string, error)
	Put(key string, val string) error
	Del(key string) error
}

// KVDBValidator keeps sessions in a KV store
type KVDBValidator struct {
	store  Store
	prefix string
}

// NewKVDBValidator creates a validator over store
func NewKVDBValidator(store Store, prefix string) *KVDBValidator {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &KVDBValidator{store: store, prefix: prefix}
}

func (v *KVDBValidator) key(token string) string {
	return v.prefix + token
}

// ValidateSession returns the player the token was issued to
//
// An unknown token is ErrUnauthenticated; a store failure is retryable.
func (v *KVDBValidator) ValidateSession(token string) (common.PlayerID, error) {
	if token == "" {
		return "", errors.Wrap(common.ErrUnauthenticated, "empty token")
	}
	val, err := v.store.Get(v.key(token))
	if err != nil {
		gwlog.Errorf("session lookup failed: %v", err)
		return "", errors.Wrapf(common.ErrRetryableUnavailable, "session store: %v", err)
	}
	if val == "" {
		return "", errors.Wrap(common.ErrUnauthenticated, "unknown token")
	}
	return common.PlayerID(val), nil
}

// Issue creates a new token for player
func (v *KVDBValidator) Issue(player common.PlayerID) (string, error) {
	if player.IsNil() {
		return "", errors.New("issue session: empty player id")
	}
	token, err := uuid.GenToken()
	if err != nil {
		return "", errors.Wrap(err, "generate token")
	}
	if err := v.store.Put(v.key(token), string(player)); err != nil {
		return "", errors.Wrap(err, "store session")
	}
	return token, nil
}

// Revoke invalidates token
func (v *KVDBValidator) Revoke(token string) error {
	return v.store.Del(v.key(token))
}

// StaticValidator validates against a fixed token table
type StaticValidator struct {
	lock   sync.RWMutex
	tokens map[string]common.PlayerID
}

// NewStaticValidator creates a validator from a token table
func NewStaticValidator(tokens map[string]common.PlayerID) *StaticValidator {
	sv := &StaticValidator{tokens: map[string]common.PlayerID{}}
	for tok, player := range tokens {
		sv.tokens[tok] = player
	}
	return sv
}

func (sv *StaticValidator) ValidateSession(token string) (common.PlayerID, error) {
	sv.lock.RLock()
	player, ok := sv.tokens[token]
	sv.lock.RUnlock()
	if !ok || token == "" {
		return "", errors.Wrap(common.ErrUnauthenticated, "unknown token")
	}
	return player, nil
}

// Issue adds a random token for player
func (sv *StaticValidator) Issue(player common.PlayerID) (string, error) {
	token, err := uuid.GenToken()
	if err != nil {
		return "", err
	}
	sv.lock.Lock()
	sv.tokens[token] = player
	sv.lock.Unlock()
	return token, nil
}

func (sv *StaticValidator) Revoke(token string) error {
	sv.lock.Lock()
	delete(sv.tokens, token)
	sv.lock.Unlock()
	return nil
}
