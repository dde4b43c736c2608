package gwlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bmizerany/assert"
)

func TestParseLevel(t *testing.T) {
	for name, lv := range map[string]Level{
		"debug":   DebugLevel,
		"info":    InfoLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"panic":   PanicLevel,
		"fatal":   FatalLevel,
	} {
		assert.Equal(t, lv, ParseLevel(name))
	}
}

func TestGWLog(t *testing.T) {
	SetSource("gwlog_test")
	SetOutput([]string{"stderr", filepath.Join(os.TempDir(), "gwlog_test.log")})
	defer SetOutput([]string{"stderr"})
	defer SetLevel(DebugLevel)

	SetLevel(DebugLevel)
	Debugf("debug %d", 1)
	SetLevel(InfoLevel)
	assert.Equal(t, InfoLevel, GetLevel())
	Debugf("filtered out")
	Infof("info %d", 2)
	Warnf("warning %d", 3)
	TraceError("trace error %d", 4)

	panicked := false
	func() {
		defer func() {
			panicked = recover() != nil
		}()
		Panicf("panic %d", 5)
	}()
	assert.T(t, panicked, "Panicf should panic")
}
