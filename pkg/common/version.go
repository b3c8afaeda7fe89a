package common

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version returns the calculation engine version. Estimates fingerprint this
// so cached results from older engine releases never satisfy a lookup.
func Version() string {
	return strings.TrimSpace(version)
}
