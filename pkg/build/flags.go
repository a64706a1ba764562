// SPDX-License-Identifier: MIT
//
// Package build exposes the metadata stamped into the eqscope binary at link
// time. Development builds carry placeholder values and report the missing
// flags from Initialize, which callers treat as a warning.
package build

import (
	"errors"
	"fmt"
)

// Info holds build-time information injected during compilation, e.g.
//
//	go build -ldflags "-X eqscope/pkg/build.buildName=eqscope -X eqscope/pkg/build.buildVersion=0.3.0"
type Info struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// String renders the version line printed by `eqscope version`.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}

// Populated by -ldflags.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &Info{
		Name:        "eqscope",
		Description: "Real-time equalizer response and spectrum analyzer",
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
)

// Initialize copies the ldflags variables into the build info. Every flag
// that is missing is reported in the returned error; the ones that are set
// are applied regardless.
func Initialize() error {
	var errs []error
	apply := func(dst *string, v, name string) {
		if v == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
			return
		}
		*dst = v
	}

	apply(&buildFlags.Name, buildName, "BuildName")
	apply(&buildFlags.Time, buildTime, "BuildTime")
	apply(&buildFlags.Commit, buildCommit, "BuildCommit")
	apply(&buildFlags.Version, buildVersion, "BuildVersion")

	return errors.Join(errs...)
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *Info {
	return buildFlags
}
