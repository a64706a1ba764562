// SPDX-License-Identifier: MIT
package build

import (
	"os"
	"strings"
	"testing"
)

var (
	origName    string
	origTime    string
	origCommit  string
	origVersion string
	origFlags   Info
)

func TestMain(m *testing.M) {
	origName = buildName
	origTime = buildTime
	origCommit = buildCommit
	origVersion = buildVersion
	origFlags = *buildFlags

	exitCode := m.Run()

	buildName = origName
	buildTime = origTime
	buildCommit = origCommit
	buildVersion = origVersion
	*buildFlags = origFlags

	os.Exit(exitCode)
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name        string
		buildName   string
		buildTime   string
		buildCommit string
		buildVer    string
		wantErrMsg  string
	}{
		{"Missing BuildName", "", "2026-04-13", "abcdef123", "v1.0.0", "BuildName is required"},
		{"Missing BuildTime", "testapp", "", "abcdef123", "v1.0.0", "BuildTime is required"},
		{"Missing BuildCommit", "testapp", "2026-04-13", "", "v1.0.0", "BuildCommit is required"},
		{"Missing BuildVersion", "testapp", "2026-04-13", "abcdef123", "", "BuildVersion is required"},
		{"Success Case", "testapp", "2026-04-13", "abcdef123", "v1.0.0", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			*buildFlags = origFlags
			buildName = tt.buildName
			buildTime = tt.buildTime
			buildCommit = tt.buildCommit
			buildVersion = tt.buildVer

			err := Initialize()

			if tt.wantErrMsg != "" {
				if err == nil {
					t.Fatalf("Initialize() expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.wantErrMsg) {
					t.Errorf("Initialize() error = %v, want %v", err, tt.wantErrMsg)
				}
				return
			}

			if err != nil {
				t.Fatalf("Initialize() unexpected error: %v", err)
			}
			if buildFlags.Name != tt.buildName {
				t.Errorf("Name = %v, want %v", buildFlags.Name, tt.buildName)
			}
			if buildFlags.Version != tt.buildVer {
				t.Errorf("Version = %v, want %v", buildFlags.Version, tt.buildVer)
			}
		})
	}
}

func TestInitializeKeepsDefaultsForMissingFlags(t *testing.T) {
	*buildFlags = origFlags
	buildName, buildTime, buildCommit, buildVersion = "", "", "", "v2.0.0"

	if err := Initialize(); err == nil {
		t.Fatal("expected error for missing flags")
	}
	if buildFlags.Name != origFlags.Name {
		t.Errorf("Name = %q, want default %q", buildFlags.Name, origFlags.Name)
	}
	if buildFlags.Version != "v2.0.0" {
		t.Errorf("Version = %q, want v2.0.0", buildFlags.Version)
	}
}

func TestInfoString(t *testing.T) {
	info := Info{Name: "eqscope", Version: "v1.0.0", Commit: "abc", Time: "now"}
	if got := info.String(); got != "eqscope v1.0.0 (commit abc, built now)" {
		t.Errorf("String() = %q", got)
	}
}
