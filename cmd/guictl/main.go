// Guictl runs render hosts that remote scripts configure and drive over the
// network, and a demo script that drives them.
package main

import (
	"os"

	"src.guictl.dev/pkg/buildinfo"
	"src.guictl.dev/pkg/demo"
	"src.guictl.dev/pkg/prog"
	"src.guictl.dev/pkg/serve"
)

func main() {
	os.Exit(prog.Run(
		[3]*os.File{os.Stdin, os.Stdout, os.Stderr}, os.Args,
		prog.Composite(
			&buildinfo.Program{}, &serve.Program{}, &demo.Program{},
			noModeProgram{})))
}

type noModeProgram struct{}

func (noModeProgram) RegisterFlags(*prog.FlagSet) {}

func (noModeProgram) Run([3]*os.File, []string) error {
	return prog.BadUsage("one of -serve, -demo, -version or -buildinfo is required")
}
