package gwvar

import (
	"expvar"
)

// Bool is a boolean exported on /debug/vars
type Bool struct {
	val *expvar.Int
}

// NewBool publishes a Bool under name
func NewBool(name string) *Bool {
	return &Bool{
		val: expvar.NewInt(name),
	}
}

func (b *Bool) Value() bool {
	return b.val.Value() > 0
}

func (b *Bool) Set(v bool) {
	if v {
		b.val.Set(1)
	} else {
		b.val.Set(0)
	}
}

// PublishInt exports the value of f under name, evaluated on every read
//
// Publishing a name twice keeps the first function.
func PublishInt(name string, f func() int) {
	if expvar.Get(name) != nil {
		return
	}
	expvar.Publish(name, expvar.Func(func() interface{} {
		return f()
	}))
}

var (
	// IsServiceReady is set once the server accepts clients
	IsServiceReady = NewBool("IsServiceReady")
)
