package gwutils

import (
	"fmt"
	"testing"
)

func TestRunPanicless(t *testing.T) {
	if !RunPanicless(func() {
		panic(1)
	}) {
		t.Errorf("panic should be reported")
	}
	if !RunPanicless(func() {
		panic(fmt.Errorf("bad"))
	}) {
		t.Errorf("panic should be reported")
	}
	if RunPanicless(func() {}) {
		t.Errorf("no panic should be reported")
	}
}

func TestRepeatUntilPanicless(t *testing.T) {
	n := 0
	RepeatUntilPanicless(func() {
		n += 1
		if n < 3 {
			panic(n)
		}
	})
	if n != 3 {
		t.Errorf("should run 3 times, but runs %d times", n)
	}
}

func TestRepeatUntilPaniclessReturns(t *testing.T) {
	n := 0
	RepeatUntilPanicless(func() {
		n += 1
	})
	if n != 1 {
		t.Errorf("should run once, but runs %d times", n)
	}
}

func TestHashString(t *testing.T) {
	if HashString("party-1") != HashString("party-1") {
		t.Errorf("hash should be stable")
	}
}
