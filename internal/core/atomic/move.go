package atomic

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	cp "github.com/otiai10/copy"
)

// MoveOptions specifies options for move operations
type MoveOptions struct {
	AllowCrossDev bool        // Allow falling back to copy and delete across devices
	DirMode       os.FileMode // Mode for a missing destination parent, 0755 if zero
}

// Move relocates src to dst and never replaces an existing dst. A
// same-device move is a single rename. Across devices it copies src to dst and removes src afterwards, which is
// not atomic: an interrupted copy leaves the source in place.
func Move(src, dst string, opts MoveOptions) error {
	if err := validatePaths(src, dst); err != nil {
		return err
	}

	mode := opts.DirMode
	if mode == 0 {
		mode = 0755
	}
	if err := os.MkdirAll(filepath.Dir(dst), mode); err != nil {
		return &MoveError{Op: "create_parent", Src: src, Dst: dst, Err: err}
	}

	if _, err := os.Lstat(dst); err == nil {
		return &MoveError{Op: "check_destination", Src: src, Dst: dst, Err: ErrDestinationExists}
	}

	sameDevice, err := isSamePartition(src, dst)
	if err != nil {
		slog.Debug("failed to compare partitions", "src", src, "dst", dst, "error", err)
	}
	if sameDevice {
		err := os.Rename(src, dst)
		if err == nil {
			slog.Debug("file renamed", "from", src, "to", dst)
			return nil
		}
		// Only a cross-device error is worth a copy. Anything else, such as
		// a read-only source directory, would fail the copy's removal too.
		if !opts.AllowCrossDev || !errors.Is(err, syscall.EXDEV) {
			return &MoveError{Op: "rename", Src: src, Dst: dst, Err: err}
		}
		slog.Debug("rename crossed devices, falling back to copy", "error", err)
	} else if !opts.AllowCrossDev {
		return &MoveError{Op: "rename", Src: src, Dst: dst, Err: os.ErrInvalid}
	}

	return copyAndDelete(src, dst)
}

// copyAndDelete copies a file or directory and then deletes the original
func copyAndDelete(src, dst string) error {
	slog.Debug("different partitions detected, copying", "from", src, "to", dst)

	opts := cp.Options{
		OnSymlink: func(string) cp.SymlinkAction {
			return cp.Shallow // keep links as links
		},
		PreserveTimes: true,
		Sync:          true,
	}

	if err := cp.Copy(src, dst, opts); err != nil {
		// The source is untouched, drop whatever was copied so far
		if rmErr := os.RemoveAll(dst); rmErr != nil {
			slog.Error("failed to clean up partial copy", "path", dst, "error", rmErr)
		}
		return &MoveError{Op: "copy", Src: src, Dst: dst, Err: err}
	}

	// The copy is complete. If the source cannot be removed (even partly),
	// the copy is the only intact version left, so it stays.
	if err := os.RemoveAll(src); err != nil {
		return &MoveError{Op: "remove_source", Src: src, Dst: dst, Err: err}
	}

	return nil
}

// validatePaths performs basic path validation
func validatePaths(src, dst string) error {
	if src == "" || dst == "" {
		return ErrInvalidPath
	}

	if _, err := os.Lstat(src); err != nil {
		if os.IsNotExist(err) {
			return &MoveError{Op: "stat", Src: src, Dst: dst, Err: ErrSourceNotFound}
		}
		return &MoveError{Op: "stat", Src: src, Dst: dst, Err: err}
	}

	return nil
}
