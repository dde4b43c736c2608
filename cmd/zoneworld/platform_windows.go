//go:build windows
// +build windows

package main

import (
	"syscall"
)

const (
	// BinaryExtension extension used on windows
	BinaryExtension = ".exe"
	// StopSignal syscall used to stop server
	StopSignal = syscall.SIGKILL
)
