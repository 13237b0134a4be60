package exception

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/soltip/soltip/logx"
	"github.com/soltip/soltip/monitoring"
)

// SafeGo runs fn in a goroutine; a panic is logged and counted instead of crashing the process.
func SafeGo(name string, fn func()) {
	go func() {
		defer recoverAndLog(name)
		fn()
	}()
}

// SafeGoWithPanic is SafeGo for goroutines the process cannot live without.
func SafeGoWithPanic(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				LogPanic(name, r)
				os.Exit(1)
			}
		}()
		fn()
	}()
}

func recoverAndLog(name string) {
	if r := recover(); r != nil {
		LogPanic(name, r)
	}
}

// LogPanic records a panic recovered by the caller.
func LogPanic(name string, r interface{}) {
	monitoring.IncreasePanicCount()
	logx.Error("PANIC", fmt.Sprintf("%s: %v\n%s", name, r, debug.Stack()))
}
