// SPDX-License-Identifier: MPL-2.0

package platform

// OS name constants for runtime.GOOS comparisons.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// IsSupported reports whether the host application ships for goos, which is
// the set of platforms with a known install layout.
func IsSupported(goos string) bool {
	switch goos {
	case Windows, Darwin, Linux:
		return true
	default:
		return false
	}
}
