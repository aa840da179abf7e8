// Package version describes the running cftutor binary: the release,
// commit and date stamped by the linker plus the toolchain that built it.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const (
	Name   = "cftutor"
	Module = "github.com/soyeahso/cftutor"
)

// Stamped by the linker:
//
//	go build -ldflags "-X github.com/soyeahso/cftutor/internal/version.Version=v0.3.0
//	  -X github.com/soyeahso/cftutor/internal/version.Commit=$(git rev-parse HEAD)
//	  -X github.com/soyeahso/cftutor/internal/version.Date=$(date -u +%F)"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Build is the metadata of one binary.
type Build struct {
	Name      string
	Module    string
	Version   string
	Commit    string
	Date      string
	GoVersion string
	Platform  string
}

// Current returns the running binary's build. A binary installed with
// go install carries no ldflags, so its module version stands in for the
// release.
func Current() Build {
	b := Build{
		Name:      Name,
		Module:    Module,
		Version:   Version,
		Commit:    abbrev(Commit),
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if b.Version == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Path == Module && released(info.Main.Version) {
			b.Version = info.Main.Version
		}
	}
	return b
}

// String is the one-line form shown by status and written to the log.
func (b Build) String() string {
	return fmt.Sprintf("%s %s (%s, %s)", b.Name, b.Version, b.Commit, b.Platform)
}

// Info returns the one-line description of the running binary.
func Info() string {
	return Current().String()
}

func released(v string) bool {
	return v != "" && v != "(devel)"
}

func abbrev(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}
