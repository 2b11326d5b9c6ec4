// SPDX-License-Identifier: MPL-2.0

package platform

import "strings"

// IsReservedName reports whether name is a DOS device name that Windows
// refuses as a file or directory name. Everything after the first dot is
// ignored, so "nul.tar.gz" is reserved too.
func IsReservedName(name string) bool {
	base, _, _ := strings.Cut(name, ".")
	base = strings.TrimRight(strings.ToUpper(base), " ")

	switch base {
	case "CON", "PRN", "AUX", "NUL":
		return true
	}
	if len(base) == 4 && (strings.HasPrefix(base, "COM") || strings.HasPrefix(base, "LPT")) {
		return base[3] >= '1' && base[3] <= '9'
	}
	return false
}
