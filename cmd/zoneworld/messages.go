package main

import (
	"fmt"
	"os"
)

// exit codes of the command
const (
	exitUsage  = 1
	exitFailed = 2
)

func infof(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, "> "+format+"\n", a...)
}

func quitf(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, "! "+format+"\n", a...)
	os.Exit(exitFailed)
}

// mustSucceed quits when err is not nil
func mustSucceed(err error, what string) {
	if err != nil {
		quitf("%s: %v", what, err)
	}
}
