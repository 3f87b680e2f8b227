// Package version carries build metadata of the smartcast CLI. The
// variables are overridden at build time via -ldflags.
package version

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"

	"github.com/fatih/color"
)

var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// Info is the machine-readable build description.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version"`
}

// Current returns the build description.
func Current() Info {
	return Info{Version: Version, GitCommit: GitCommit, BuildDate: BuildDate, GoVersion: runtime.Version()}
}

// Colored renders Version with each numeric component in its own color.
// Components beyond major.minor.patch are kept verbatim.
func Colored() string {
	core, suffix, _ := strings.Cut(Version, "-")
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return Version
	}
	out := majorColor.Sprint(parts[0]) + "." + minorColor.Sprint(parts[1]) + "." + patchColor.Sprint(parts[2])
	if suffix != "" {
		out += "-" + suffix
	}
	return out
}

// Pretty renders the multi-line human form.
func Pretty() string {
	info := Current()
	var sb strings.Builder
	fmt.Fprintf(&sb, "smartcast %s\n", Colored())
	if info.GitCommit != "" {
		fmt.Fprintf(&sb, "commit: %s\n", info.GitCommit)
	}
	if info.BuildDate != "" {
		fmt.Fprintf(&sb, "built:  %s\n", info.BuildDate)
	}
	fmt.Fprintf(&sb, "go:     %s\n", info.GoVersion)
	return sb.String()
}

// JSON renders Current as indented JSON.
func JSON() ([]byte, error) {
	return json.MarshalIndent(Current(), "", "  ")
}
