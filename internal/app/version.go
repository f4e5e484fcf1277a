package app

import (
	"runtime/debug"
	"strings"
)

// Build metadata of the recipestock binary, stamped by the release build:
//
//	go build -ldflags "-X .../internal/app.Version=v0.3.0 -X .../internal/app.Commit=$(git rev-parse --short HEAD)" ./cmd/recipestock
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

// BuildVersion renders the version reported by `recipestock version`, the
// /health endpoint and the serve startup log, e.g. "v0.3.0 (a1b2c3d, 2024-05-10)".
// Without ldflags the commit falls back to the VCS revision recorded by the
// Go toolchain.
func BuildVersion() string {
	commit := Commit
	if commit == "" {
		commit = vcsRevision()
	}

	var meta []string
	if commit != "" {
		meta = append(meta, commit)
	}
	if BuildTime != "" {
		meta = append(meta, BuildTime)
	}
	if len(meta) == 0 {
		return Version
	}
	return Version + " (" + strings.Join(meta, ", ") + ")"
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value[:min(len(s.Value), 7)]
		}
	}
	return ""
}
