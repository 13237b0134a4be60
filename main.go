package main

import (
	"os"
	"runtime/debug"

	"github.com/soltip/soltip/cmd"
	"github.com/soltip/soltip/logx"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			_ = logx.Errorf("SOLTIP CRASHED: %v\n%s", r, debug.Stack())
			os.Exit(1)
		}
	}()

	cmd.Execute()
}
