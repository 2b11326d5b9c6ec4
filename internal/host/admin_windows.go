// SPDX-License-Identifier: MPL-2.0

//go:build windows

package host

import "golang.org/x/sys/windows"

// isElevated reports whether the process token is elevated.
func isElevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}
