// Package version reports build information stamped in by the linker.
package version

import (
	"fmt"
	"runtime"
	"strings"
	"text/tabwriter"
)

// Set with -ldflags "-X github.com/grovetools/termestra/version.Version=..."
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Info holds all the versioning information.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// GetInfo returns the build information of the running binary.
func GetInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String renders the fields as aligned "Key: value" lines.
func (i Info) String() string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 1, ' ', 0)
	fmt.Fprintf(w, "  Commit:\t%s\n", i.Commit)
	fmt.Fprintf(w, "  Built:\t%s\n", i.BuildDate)
	fmt.Fprintf(w, "  Go:\t%s\n", i.GoVersion)
	fmt.Fprintf(w, "  Platform:\t%s", i.Platform)
	w.Flush()
	return b.String()
}
