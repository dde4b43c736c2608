package routing

import (
	"github.com/pkg/errors"
	"github.com/zoneworld/zoneworld/engine/common"
)

// Kind classifies routing errors
type Kind int

const (
	// KindOK means no error
	KindOK Kind = iota
	KindNotFound
	KindConflictingOwnership
	KindRetryableUnavailable
	KindCapacityExceeded
	KindInstanceFull
	KindUnauthenticated
	KindRejected
	// KindInternal is any other error
	KindInternal
)

var kindNames = map[Kind]string{
	KindOK:                   "OK",
	KindNotFound:             "NotFound",
	KindConflictingOwnership: "ConflictingOwnership",
	KindRetryableUnavailable: "RetryableUnavailable",
	KindCapacityExceeded:     "CapacityExceeded",
	KindInstanceFull:         "InstanceFull",
	KindUnauthenticated:      "Unauthenticated",
	KindRejected:             "Rejected",
	KindInternal:             "Internal",
}

func (k Kind) String() string {
	return kindNames[k]
}

var errorKinds = map[error]Kind{
	common.ErrNotFound:             KindNotFound,
	common.ErrConflictingOwnership: KindConflictingOwnership,
	common.ErrRetryableUnavailable: KindRetryableUnavailable,
	common.ErrCapacityExceeded:     KindCapacityExceeded,
	common.ErrInstanceFull:         KindInstanceFull,
	common.ErrUnauthenticated:      KindUnauthenticated,
	common.ErrRejected:             KindRejected,
}

// KindOf returns the kind of the error
func KindOf(err error) Kind {
	if err == nil {
		return KindOK
	}
	if k, ok := errorKinds[errors.Cause(err)]; ok {
		return k
	}
	return KindInternal
}
