// Command diskforge is the CLI front-end over the DiskForge core: a thin
// cobra command tree that wires parsed flags into Session/Safety/Job calls
// and renders their results. The protocol it implements (commands, global
// flags, exit codes) is part of the core's external contract; the rendering
// and flag parsing here are platform glue.
package main

import (
	"fmt"
	"os"
)

func main() {
	os.Exit(run())
}

// run executes the command tree and returns the process exit code. Commands
// report operation failure and cancellation (exit 1 / 130) themselves via
// setExit and printing to stderr directly, since neither is a cobra usage
// error; only a genuine precondition failure (bad flags, safety denial
// before a job is even submitted) is returned as an error here.
func run() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitOperationFailure
	}
	return exitCode
}
