// SPDX-License-Identifier: MPL-2.0

package istrap

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// TargetPath returns where the package lands inside installDir.
func (d *Descriptor) TargetPath(installDir string) string {
	return filepath.Join(installDir, d.Name)
}

// CopyTo copies the package sources to installDir/<name> and returns that
// path. With overwrite, whatever occupies the target (directory, file or
// symlink) is removed first so no stale files survive. Without it, the copy
// is merged over the existing tree.
func (d *Descriptor) CopyTo(installDir string, overwrite bool) (string, error) {
	target, err := d.prepareTarget(installDir, overwrite)
	if err != nil {
		return "", err
	}
	if info, ok := occupied(target); ok && info.Mode()&fs.ModeSymlink != 0 {
		// Copying through a dev-mode link would write into the linked sources.
		return "", fmt.Errorf("%w: %s is a symbolic link", ErrTargetOccupied, target)
	}
	// WalkDir does not descend into a root that is itself a symlink.
	src := realPath(d.path)
	if err := copyTree(src, target); err != nil {
		return "", fmt.Errorf("copying %s to %s: %w", d.path, target, err)
	}
	return target, nil
}

// LinkTo creates installDir/<name> as a symbolic link to the package
// sources and returns that path. It fails for temporary descriptors, and
// with ErrTargetOccupied when the target exists and overwrite is false.
func (d *Descriptor) LinkTo(installDir string, overwrite bool) (string, error) {
	if d.temporary {
		return "", ErrTemporarySource
	}
	target, err := d.prepareTarget(installDir, overwrite)
	if err != nil {
		return "", err
	}
	if _, ok := occupied(target); ok {
		return "", fmt.Errorf("%w: %s", ErrTargetOccupied, target)
	}
	if err := os.Symlink(d.path, target); err != nil {
		return "", fmt.Errorf("linking %s to %s: %w", target, d.path, err)
	}
	return target, nil
}

func (d *Descriptor) prepareTarget(installDir string, overwrite bool) (string, error) {
	if d.path == "" {
		return "", ErrNoSource
	}
	if err := ValidatePackageName(d.Name); err != nil {
		return "", err
	}

	target := d.TargetPath(installDir)
	if samePath(target, d.path) {
		return "", fmt.Errorf("%w: %s", ErrSourceIsTarget, target)
	}
	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", installDir, err)
	}

	if overwrite {
		if err := RemoveTarget(target); err != nil {
			return "", err
		}
	}
	return target, nil
}

// RemoveTarget deletes an installed package entry. A symlink is removed
// without touching what it points to. A missing target is not an error.
func RemoveTarget(target string) error {
	info, err := os.Lstat(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", target, err)
	}

	if info.IsDir() {
		err = os.RemoveAll(target)
	} else {
		err = os.Remove(target)
	}
	if err != nil {
		return fmt.Errorf("removing %s: %w", target, err)
	}
	return nil
}

// copyTree copies src into dst, creating dst as needed. Symlinks to files are
// copied as regular files; symlinked directories are skipped so a link cycle
// cannot recurse forever.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		out := filepath.Join(dst, rel)

		if entry.IsDir() {
			return os.MkdirAll(out, 0o755)
		}

		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil // dangling symlink
		}
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		return copyFile(path, out, info.Mode().Perm())
	})
}

func copyFile(src, dst string, perm fs.FileMode) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }() // read-only

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

// samePath reports whether target names the source directory itself. The
// last element of target is not resolved, so a dev-mode link pointing at
// source does not count.
func samePath(target, source string) bool {
	parent := realPath(filepath.Dir(target))
	return filepath.Join(parent, filepath.Base(target)) == realPath(source)
}

func occupied(target string) (fs.FileInfo, bool) {
	info, err := os.Lstat(target)
	return info, err == nil
}
