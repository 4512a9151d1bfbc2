// SPDX-License-Identifier: Apache-2.0

// Package version carries build information set with -ldflags.
package version

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String is the one-line version banner.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}

// UserAgent is sent on outbound HTTP requests.
func UserAgent() string {
	return "stencil/" + Version
}
