package gwvar

import (
	"expvar"
	"testing"

	"github.com/bmizerany/assert"
)

func TestBool(t *testing.T) {
	b := NewBool("TestBool")
	assert.T(t, !b.Value(), "should be false")
	b.Set(true)
	assert.T(t, b.Value(), "should be true")
	assert.Equal(t, "1", expvar.Get("TestBool").String())
	b.Set(false)
	assert.T(t, !b.Value(), "should be false")
}

func TestPublishInt(t *testing.T) {
	n := 3
	PublishInt("TestPublishInt", func() int { return n })
	PublishInt("TestPublishInt", func() int { return -1 })
	n = 5
	assert.Equal(t, "5", expvar.Get("TestPublishInt").String())
}
