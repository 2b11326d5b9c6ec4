// SPDX-License-Identifier: MPL-2.0

// Package issue holds the catalog of user-facing problems ilstrap knows how
// to explain, rendered as Markdown through glamour, and ActionableError, an
// error carrying the failed operation together with remediation hints.
package issue
