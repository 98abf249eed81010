package version

import (
	"strings"

	"github.com/fatih/color"
)

// Build information for the qirc CLI. These variables can be overridden at
// build time via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// GitMessage is an optional git commit message.
	GitMessage = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// Pretty renders Version with the major, minor and patch components in
// their own colors. Pre-release and build suffixes are left plain.
func Pretty() string {
	core, suffix := Version, ""
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core, suffix = core[:i], core[i:]
	}
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return Version
	}
	return majorColor.Sprint(parts[0]) + "." +
		minorColor.Sprint(parts[1]) + "." +
		patchColor.Sprint(parts[2]) + suffix
}
