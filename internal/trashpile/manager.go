// Package trashpile moves files into a recoverable trashpile instead of
// deleting them, and lists or purges that trashpile.
//
// Every discarded path gets its own entry directory below the trashpile,
// holding the original under its original basename. Nothing is kept in
// memory between runs: listing and purging re-read the filesystem.
//
// There is no locking. Two processes working on the same trashpile at the
// same time are not coordinated; a name clash between them makes the later
// move fail rather than overwrite.
package trashpile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/babarot/rubbish/internal/core/atomic"
	rfs "github.com/babarot/rubbish/internal/utils/fs"
	"github.com/samber/lo"
)

// Confirmer asks the user a yes/no question
type Confirmer interface {
	Confirm(question string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(question string) (bool, error)

func (f ConfirmFunc) Confirm(question string) (bool, error) {
	return f(question)
}

// Manager performs all trashpile operations of one run
type Manager struct {
	config  Config
	confirm Confirmer
	out     io.Writer
	now     func() time.Time
	remove  func(path string) error

	// hash input of the previous entry and how many entries were named
	lastNanos int64
	issued    int
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithConfirmer sets how questions are asked. Without it every question
// is answered with no.
func WithConfirmer(c Confirmer) ManagerOption {
	return func(m *Manager) {
		m.confirm = c
	}
}

// WithOutput sets where messages for the user are written
func WithOutput(w io.Writer) ManagerOption {
	return func(m *Manager) {
		m.out = w
	}
}

// WithClock replaces time.Now for entry naming
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a new trashpile manager with the given configuration
func NewManager(cfg Config, opts ...ManagerOption) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	m := &Manager{
		config: cfg,
		confirm: ConfirmFunc(func(string) (bool, error) {
			return false, nil
		}),
		out:    io.Discard,
		now:    time.Now,
		remove: removeAll,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Config returns the configuration of the run
func (m *Manager) Config() Config {
	return m.config
}

// Ensure makes sure the trashpile directory exists. If it is missing, the
// user is asked whether to create it; a refusal yields ErrInitDeclined.
func (m *Manager) Ensure() error {
	trash := m.config.TrashPath

	fi, err := os.Stat(trash)
	switch {
	case err == nil:
		if !fi.IsDir() {
			return NewOperationError("init", trash, ErrNotDirectory)
		}
		return nil
	case !os.IsNotExist(err):
		return NewOperationError("init", trash, err)
	}

	yes, err := m.confirm.Confirm(fmt.Sprintf("%s does not exist, should we create one for you?", trash))
	if err != nil {
		return NewOperationError("init", trash, err)
	}
	if !yes {
		slog.Info("trashpile initialization declined", "path", trash)
		return ErrInitDeclined
	}

	if err := os.MkdirAll(trash, DirMode); err != nil {
		return NewOperationError("init", trash, err)
	}
	slog.Info("trashpile created", "path", trash)
	fmt.Fprintln(m.out, "Successfully created a trashpile directory!")

	return nil
}

// Delete moves path into a new entry of the trashpile. Directories need
// confirmation unless the run is recursive.
func (m *Manager) Delete(path string) error {
	slog.Debug("delete started", "path", path)

	if err := m.checkPath(path); err != nil {
		return NewOperationError("delete", path, err)
	}

	// Lstat: a symlink is moved as a link and never counts as a directory
	fi, err := os.Lstat(path)
	if err != nil {
		return NewOperationError("delete", path, err)
	}

	if fi.IsDir() && !m.config.Recursive {
		yes, err := m.confirm.Confirm(fmt.Sprintf(
			"%s is a directory. You sure you want to throw it and all of its contents into trashpile?", path))
		if err != nil {
			return NewOperationError("delete", path, err)
		}
		if !yes {
			return NewOperationError("delete", path, ErrUserDeclined)
		}
	}

	target := filepath.Join(m.config.TrashPath, EntryName(path, m.config, m.nextNanos()))

	_, statErr := os.Lstat(target)
	created := os.IsNotExist(statErr)
	if err := os.MkdirAll(target, DirMode); err != nil {
		return NewOperationError("delete", path, err)
	}

	dst := filepath.Join(target, filepath.Base(filepath.Clean(path)))
	if err := atomic.Move(path, dst, atomic.MoveOptions{
		AllowCrossDev: true,
		DirMode:       DirMode,
	}); err != nil {
		if created {
			// Fails harmlessly if anything made it into the entry
			_ = os.Remove(target)
		}
		return NewOperationError("delete", path, err)
	}

	slog.Info("moved to trashpile", "from", path, "to", dst, "dir", fi.IsDir())
	if m.config.Verbose {
		fmt.Fprintf(m.out, "Move %s -> %s\n", path, dst)
	}

	return nil
}

// checkPath refuses paths that must not be moved into the trashpile
func (m *Manager) checkPath(path string) error {
	unsafe, err := rfs.IsUnsafePath(path)
	if err != nil {
		return err
	}
	if unsafe {
		return ErrProtectedPath
	}

	// The trashpile itself, anything above it, and anything already in it
	holdsTrash, err := rfs.Contains(path, m.config.TrashPath)
	if err != nil {
		return err
	}
	inTrash, err := rfs.Contains(m.config.TrashPath, path)
	if err != nil {
		return err
	}
	if holdsTrash || inTrash {
		return ErrProtectedPath
	}

	return nil
}

// nextNanos returns the hash input for the next entry. The first entry of
// a run uses the start time; later ones use a fresh clock reading that is
// strictly greater than the previous value, so no two entries of one run
// share a name.
func (m *Manager) nextNanos() int64 {
	n := m.config.TimeNanos
	if m.issued > 0 {
		n = m.now().UnixNano()
		if n <= m.lastNanos {
			n = m.lastNanos + 1
		}
	}
	m.lastNanos = n
	m.issued++
	return n
}

// Empty permanently removes every entry directory of the trashpile.
// Non-directories at the top level are left alone. A failing entry does
// not stop the others; all failures are returned joined.
func (m *Manager) Empty() error {
	trash := m.config.TrashPath
	slog.Debug("emptying trashpile started", "path", trash)
	defer slog.Debug("emptying trashpile finished", "path", trash)

	entries, err := os.ReadDir(trash)
	if err != nil {
		return NewOperationError("empty", trash, err)
	}

	dirs := lo.Filter(entries, func(e os.DirEntry, _ int) bool {
		return e.IsDir()
	})
	if skipped := len(entries) - len(dirs); skipped > 0 {
		slog.Warn("skipped non-directories in trashpile", "count", skipped)
	}

	var errs []error
	for _, e := range dirs {
		path := filepath.Join(trash, e.Name())
		if err := m.remove(path); err != nil {
			slog.Error("failed to remove entry", "path", path, "error", err)
			errs = append(errs, NewOperationError("empty", path, err))
			continue
		}
		slog.Info("entry removed", "path", path)
		if m.config.Verbose {
			fmt.Fprintf(m.out, "%s removed\n", path)
		}
	}

	return errors.Join(errs...)
}

// removeAll is os.RemoveAll, retried once after granting the owner write
// access to every directory, since read-only directories cannot be emptied.
func removeAll(path string) error {
	err := os.RemoveAll(path)
	if err == nil {
		return nil
	}

	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr == nil && d.IsDir() {
			_ = os.Chmod(p, 0700)
		}
		return nil
	})
	if retryErr := os.RemoveAll(path); retryErr != nil {
		return err
	}
	return nil
}

// List returns the entries of the trashpile and their contents, both
// sorted by name. Only directories count as entries. An entry that cannot
// be read is left out and its error returned joined with the others, like
// Empty does.
func (m *Manager) List() ([]Entry, error) {
	trash := m.config.TrashPath

	children, err := os.ReadDir(trash)
	if err != nil {
		return nil, NewOperationError("list", trash, err)
	}

	dirs := lo.Filter(children, func(e os.DirEntry, _ int) bool {
		return e.IsDir()
	})

	var errs []error
	entries := make([]Entry, 0, len(dirs))
	for _, d := range dirs {
		path := filepath.Join(trash, d.Name())
		contents, err := os.ReadDir(path)
		if err != nil {
			slog.Error("failed to read entry", "path", path, "error", err)
			errs = append(errs, NewOperationError("list", path, err))
			continue
		}

		entries = append(entries, Entry{
			Name: d.Name(),
			Path: path,
			Items: lo.Map(contents, func(c os.DirEntry, _ int) Item {
				p := filepath.Join(path, c.Name())
				return Item{Name: c.Name(), Path: p, Kind: kindOf(p)}
			}),
		})
	}

	return entries, errors.Join(errs...)
}

// kindOf follows symlinks, so a link to a directory is listed as a directory
func kindOf(path string) Kind {
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		return KindDir
	}
	return KindFile
}
