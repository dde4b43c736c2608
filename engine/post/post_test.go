package post

import "testing"

func TestPost(t *testing.T) {
	var a int
	Post(func() {
		a = 1
		Post(func() {
			a = 2
		})
	})
	if Pending() != 1 {
		t.Errorf("should have 1 pending callback")
	}
	Tick()
	if a != 2 {
		t.Errorf("a should be 2, but is %d", a)
	}
	if Pending() != 0 {
		t.Errorf("should have no pending callback")
	}
}

func TestPostPanic(t *testing.T) {
	var ran bool
	Post(func() {
		panic("boom")
	})
	Post(func() {
		ran = true
	})
	Tick()
	if !ran {
		t.Errorf("callback after panic should run")
	}
}
