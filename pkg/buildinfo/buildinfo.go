// Package buildinfo contains build information.
//
// Build information should be set during compilation by passing
// -ldflags "-X src.guictl.dev/pkg/buildinfo.VCSOverride=value" to "go build"
// when the VCS information recorded by the Go toolchain is not available.
package buildinfo

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	"src.guictl.dev/pkg/api"
	"src.guictl.dev/pkg/prog"
)

// VersionBase is the version of guictl. On development builds, it identifies
// the next release.
const VersionBase = "0.4.0"

// VCSOverride identifies the revision of a development build when the Go
// toolchain did not record it. It is empty by default.
var VCSOverride string

// Type contains all the build information fields.
type Type struct {
	Version   string `json:"version"`
	Protocol  int    `json:"protocol"`
	GoVersion string `json:"goversion"`
}

// Value contains all the build information.
var Value = Type{
	Version:   devVersion(VersionBase, VCSOverride, debug.ReadBuildInfo),
	Protocol:  api.Version,
	GoVersion: runtime.Version(),
}

func devVersion(base, vcsOverride string, read func() (*debug.BuildInfo, bool)) string {
	if vcsOverride != "" {
		return base + "-dev." + vcsOverride
	}
	bi, ok := read()
	if !ok {
		return base + "-dev.unknown"
	}
	if v := bi.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	var revision string
	var modified bool
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	if revision == "" {
		return base + "-dev.unknown"
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	v := base + "-dev." + revision
	if modified {
		v += "-dirty"
	}
	return v
}

// Program is the buildinfo subprogram.
type Program struct {
	version, buildInfo bool
	json               *bool
}

func (p *Program) RegisterFlags(fs *prog.FlagSet) {
	fs.BoolVar(&p.version, "version", false, "show version and quit")
	fs.BoolVar(&p.buildInfo, "buildinfo", false, "show build info and quit")
	p.json = fs.JSON()
}

func (p *Program) Run(fds [3]*os.File, _ []string) error {
	switch {
	case p.buildInfo:
		if *p.json {
			fmt.Fprintln(fds[1], mustToJSON(Value))
		} else {
			fmt.Fprintln(fds[1], "Version:", Value.Version)
			fmt.Fprintln(fds[1], "Protocol version:", Value.Protocol)
			fmt.Fprintln(fds[1], "Go version:", Value.GoVersion)
		}
	case p.version:
		if *p.json {
			fmt.Fprintln(fds[1], mustToJSON(Value.Version))
		} else {
			fmt.Fprintln(fds[1], Value.Version)
		}
	default:
		return prog.NextProgram()
	}
	return nil
}

func mustToJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
