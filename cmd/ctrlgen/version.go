package main

import (
	_ "embed"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/broady/ctrlgen/cmd/ctrlgen/internal/cli"
)

const modulePath = "github.com/broady/ctrlgen"

//go:embed VERSION
var embeddedVersion string

// buildVersion describes how the running ctrlgen binary was built.
type buildVersion struct {
	Release  string // contents of VERSION
	Module   string // module version, set when built from a tagged release
	Revision string // short VCS revision of a ctrlgen checkout
	Dirty    bool
	Go       string
}

// readBuildVersion finds the ctrlgen module in info. ctrlgen is the main
// module for `go install` and `go run`, and a dependency when it is run as a
// tool of another module; VCS settings only describe ctrlgen in the first case.
func readBuildVersion(info *debug.BuildInfo) buildVersion {
	v := buildVersion{Release: strings.TrimSpace(embeddedVersion)}
	if info == nil {
		return v
	}
	v.Go = info.GoVersion

	mod, isMain := &info.Main, true
	if mod.Path != modulePath {
		isMain = false
		for _, dep := range info.Deps {
			if dep.Path == modulePath {
				mod = dep
				if dep.Replace != nil {
					mod = dep.Replace
				}
				break
			}
		}
	}
	if mod.Version != "" && mod.Version != "(devel)" {
		v.Module = mod.Version
	}
	if !isMain {
		return v
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			v.Revision = s.Value[:min(7, len(s.Value))]
		case "vcs.modified":
			v.Dirty = s.Value == "true"
		}
	}
	return v
}

// String returns the module version of a release build, or
// "devel-<VERSION>+<revision>" for a development build.
func (v buildVersion) String() string {
	if v.Module != "" && !strings.HasPrefix(v.Module, "v0.0.0-") {
		return v.Module
	}
	s := "devel-" + v.Release
	if v.Revision != "" {
		s += "+" + v.Revision
		if v.Dirty {
			s += ".dirty"
		}
	}
	return s
}

type VersionCmd struct{}

func (c *VersionCmd) Run(g *cli.Globals) error {
	info, _ := debug.ReadBuildInfo()
	v := readBuildVersion(info)
	if !g.Verbose || v.Go == "" {
		_, err := fmt.Fprintf(g.Out(), "ctrlgen %s\n", v)
		return err
	}
	_, err := fmt.Fprintf(g.Out(), "ctrlgen %s (%s)\n", v, v.Go)
	return err
}
