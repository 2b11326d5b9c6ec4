// SPDX-License-Identifier: MPL-2.0

package istrap

import (
	"errors"
	"fmt"
)

var (
	// ErrDescriptorNotFound is returned when a directory has no istrap.json.
	ErrDescriptorNotFound = errors.New("package descriptor not found")

	// ErrNotValidPackage is returned when a downloaded or local archive holds
	// no descriptor.
	ErrNotValidPackage = errors.New("not a valid package")

	// ErrTemporarySource is returned by LinkTo for descriptors whose sources
	// live in a temporary directory that Close removes.
	ErrTemporarySource = errors.New("cannot link a package extracted to a temporary directory")

	// ErrNoSource is returned when placing a descriptor that is not bound to
	// a directory on disk.
	ErrNoSource = errors.New("descriptor has no source directory")

	// ErrSourceIsTarget is returned when the install target is the source itself.
	ErrSourceIsTarget = errors.New("install target is the package source")

	// ErrTargetOccupied is returned when the install target exists and may
	// not be replaced.
	ErrTargetOccupied = errors.New("install target already exists")

	// ErrInvalidDescriptor is returned when istrap.json does not match the
	// descriptor schema.
	ErrInvalidDescriptor = errors.New("invalid package descriptor")

	// ErrInvalidPackageName is the sentinel wrapped by InvalidPackageNameError.
	ErrInvalidPackageName = errors.New("invalid package name")

	// ErrUnsupportedManifestVersion is returned for manifests written by a
	// newer ilstrap.
	ErrUnsupportedManifestVersion = errors.New("unsupported manifest version")

	// ErrIncompleteDownload is returned when a release tarball stream breaks
	// off or arrives corrupted.
	ErrIncompleteDownload = errors.New("release download incomplete")

	// ErrNoLoader is returned when no registered Loader accepts a reference.
	ErrNoLoader = errors.New("no loader accepts reference")
)

// InvalidPackageNameError reports a descriptor name that cannot be used as a
// directory name inside the host plugin tree.
type InvalidPackageNameError struct {
	Name   string
	Reason string
}

// Error implements the error interface.
func (e *InvalidPackageNameError) Error() string {
	return fmt.Sprintf("invalid package name %q: %s", e.Name, e.Reason)
}

// Unwrap returns ErrInvalidPackageName.
func (e *InvalidPackageNameError) Unwrap() error { return ErrInvalidPackageName }
