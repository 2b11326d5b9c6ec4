// SPDX-License-Identifier: MPL-2.0

// Package installer places ilstrap packages into a host installation.
//
// An Environment is bound to one host directory. Open writes the shims and
// loads the manifest; Install, Uninstall and Check operate on the package
// tree under plugins/ilstrap; Close removes the temporary directories of
// remote packages the environment took ownership of.
package installer
