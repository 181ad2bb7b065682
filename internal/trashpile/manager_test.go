package trashpile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/babarot/rubbish/internal/core/atomic"
)

var frozen = time.Date(2024, 1, 2, 3, 4, 5, 6, time.UTC)

// answers returns a Confirmer replying with the given answers in order
// and failing the test when asked more often than expected.
func answers(t *testing.T, replies ...bool) Confirmer {
	t.Helper()
	return ConfirmFunc(func(question string) (bool, error) {
		if len(replies) == 0 {
			t.Fatalf("Unexpected question: %q", question)
		}
		r := replies[0]
		replies = replies[1:]
		return r, nil
	})
}

// newTestManager returns a manager over a fresh home with an existing
// trashpile, and a directory to create test files in.
func newTestManager(t *testing.T, opts Options, extra ...ManagerOption) (*Manager, string) {
	t.Helper()
	home := t.TempDir()
	cfg, err := NewConfig(home, "tester", frozen, opts)
	if err != nil {
		t.Fatalf("Failed to create config: %v", err)
	}
	if err := os.MkdirAll(cfg.TrashPath, DirMode); err != nil {
		t.Fatalf("Failed to create trashpile: %v", err)
	}

	mopts := append([]ManagerOption{
		WithConfirmer(answers(t)),
		WithClock(func() time.Time { return frozen }),
	}, extra...)
	m, err := NewManager(cfg, mopts...)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	work := filepath.Join(home, "work")
	if err := os.MkdirAll(work, 0755); err != nil {
		t.Fatalf("Failed to create work dir: %v", err)
	}
	return m, work
}

func createTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create parent directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
}

func readDirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", dir, err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestEnsure(t *testing.T) {
	testCases := []struct {
		name       string
		reply      bool
		wantErr    error
		wantExists bool
	}{
		{name: "accepted", reply: true, wantExists: true},
		{name: "declined", reply: false, wantErr: ErrInitDeclined},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(t.TempDir(), "tester", frozen, Options{})
			if err != nil {
				t.Fatalf("Failed to create config: %v", err)
			}
			var out bytes.Buffer
			m, err := NewManager(cfg, WithConfirmer(answers(t, tc.reply)), WithOutput(&out))
			if err != nil {
				t.Fatalf("Failed to create manager: %v", err)
			}

			err = m.Ensure()
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Ensure() error = %v, want %v", err, tc.wantErr)
			}

			fi, statErr := os.Stat(cfg.TrashPath)
			if exists := statErr == nil; exists != tc.wantExists {
				t.Fatalf("trashpile exists = %v, want %v", exists, tc.wantExists)
			}
			if !tc.wantExists {
				return
			}
			if !fi.IsDir() {
				t.Fatal("trashpile should be a directory")
			}
			if perm := fi.Mode().Perm(); perm&^DirMode != 0 {
				t.Errorf("trashpile mode %o exceeds %o", perm, DirMode)
			}
			if !strings.Contains(out.String(), "Successfully created a trashpile directory!") {
				t.Errorf("Missing success message, got %q", out.String())
			}

			// A second call must not ask again
			if err := m.Ensure(); err != nil {
				t.Errorf("Second Ensure() failed: %v", err)
			}
		})
	}
}

func TestEnsureNotDirectory(t *testing.T) {
	cfg, err := NewConfig(t.TempDir(), "tester", frozen, Options{})
	if err != nil {
		t.Fatalf("Failed to create config: %v", err)
	}
	createTestFile(t, cfg.TrashPath, "")
	m, err := NewManager(cfg, WithConfirmer(answers(t)))
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := m.Ensure(); !errors.Is(err, ErrNotDirectory) {
		t.Errorf("Expected ErrNotDirectory, got %v", err)
	}
}

func TestDeleteFile(t *testing.T) {
	m, work := newTestManager(t, Options{})
	src := filepath.Join(work, "a.txt")
	createTestFile(t, src, "hello")

	if err := m.Delete(src); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	if _, err := os.Lstat(src); !os.IsNotExist(err) {
		t.Fatal("Original file should be gone")
	}

	entries := readDirNames(t, m.Config().TrashPath)
	if len(entries) != 1 {
		t.Fatalf("Expected exactly one entry, got %v", entries)
	}
	if want := EntryName(src, m.Config(), frozen.UnixNano()); entries[0] != want {
		t.Errorf("Entry name = %q, want %q", entries[0], want)
	}

	entryDir := filepath.Join(m.Config().TrashPath, entries[0])
	if items := readDirNames(t, entryDir); len(items) != 1 || items[0] != "a.txt" {
		t.Fatalf("Entry should hold only a.txt, got %v", items)
	}
	got, err := os.ReadFile(filepath.Join(entryDir, "a.txt"))
	if err != nil {
		t.Fatalf("Failed to read trashed file: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("Trashed content = %q, want %q", got, "hello")
	}
}

func TestDeleteDirectory(t *testing.T) {
	testCases := []struct {
		name      string
		recursive bool
		replies   []bool
		wantMoved bool
		wantErr   error
	}{
		{name: "recursive does not ask", recursive: true, wantMoved: true},
		{name: "confirmed", replies: []bool{true}, wantMoved: true},
		{name: "declined", replies: []bool{false}, wantErr: ErrUserDeclined},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, work := newTestManager(t, Options{Recursive: tc.recursive},
				WithConfirmer(answers(t, tc.replies...)))
			dir := filepath.Join(work, "project")
			createTestFile(t, filepath.Join(dir, "sub", "b.txt"), "b")

			err := m.Delete(dir)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Delete() error = %v, want %v", err, tc.wantErr)
			}

			_, statErr := os.Lstat(dir)
			entries := readDirNames(t, m.Config().TrashPath)
			if !tc.wantMoved {
				if statErr != nil {
					t.Error("Declined directory must stay in place")
				}
				if len(entries) != 0 {
					t.Errorf("Declined delete must not create entries, got %v", entries)
				}
				if !IsUserDeclined(err) {
					t.Errorf("IsUserDeclined(%v) = false", err)
				}
				return
			}

			if !os.IsNotExist(statErr) {
				t.Error("Directory should be gone")
			}
			if len(entries) != 1 {
				t.Fatalf("Expected one entry, got %v", entries)
			}
			moved := filepath.Join(m.Config().TrashPath, entries[0], "project", "sub", "b.txt")
			if _, err := os.Stat(moved); err != nil {
				t.Errorf("Expected subtree at %s: %v", moved, err)
			}
		})
	}
}

func TestDeleteNamesAreUniqueWithinRun(t *testing.T) {
	for _, perFile := range []bool{false, true} {
		m, work := newTestManager(t, Options{EntryPerFile: perFile})
		first := filepath.Join(work, "same.txt")
		second := filepath.Join(work, "other", "same.txt")
		createTestFile(t, first, "1")
		createTestFile(t, second, "2")

		// The clock is frozen, so only the run-local counter separates them
		if err := m.Delete(first); err != nil {
			t.Fatalf("Delete(first) failed: %v", err)
		}
		if err := m.Delete(second); err != nil {
			t.Fatalf("Delete(second) failed: %v", err)
		}

		cfg := m.Config()
		entries := readDirNames(t, cfg.TrashPath)
		if len(entries) != 2 {
			t.Fatalf("entryPerFile=%v: expected two entries, got %v", perFile, entries)
		}
		want := map[string]bool{
			EntryName(first, cfg, cfg.TimeNanos):    true,
			EntryName(second, cfg, cfg.TimeNanos+1): true,
		}
		for _, e := range entries {
			if !want[e] {
				t.Errorf("entryPerFile=%v: unexpected entry %q", perFile, e)
			}
		}
	}
}

func TestDeleteErrors(t *testing.T) {
	m, work := newTestManager(t, Options{Recursive: true})
	cfg := m.Config()

	testCases := []struct {
		name  string
		path  string
		check func(error) bool
	}{
		{"missing", filepath.Join(work, "missing.txt"), os.IsNotExist},
		{"dot", ".", IsProtectedPath},
		{"root", "/", IsProtectedPath},
		{"trashpile", cfg.TrashPath, IsProtectedPath},
		{"home holds trashpile", cfg.HomePath, IsProtectedPath},
		{"inside trashpile", filepath.Join(cfg.TrashPath, "x"), IsProtectedPath},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := m.Delete(tc.path)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			var opErr *OperationError
			if !errors.As(err, &opErr) {
				t.Fatalf("Expected *OperationError, got %T", err)
			}
			if opErr.Path != tc.path {
				t.Errorf("OperationError.Path = %q, want %q", opErr.Path, tc.path)
			}
			if !tc.check(errors.Unwrap(err)) && !tc.check(err) {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}

	if entries := readDirNames(t, cfg.TrashPath); len(entries) != 0 {
		t.Errorf("Failed deletes must not leave entries, got %v", entries)
	}
}

func TestDeleteDoesNotOverwrite(t *testing.T) {
	m, work := newTestManager(t, Options{})
	cfg := m.Config()
	src := filepath.Join(work, "a.txt")
	createTestFile(t, src, "new")

	occupied := filepath.Join(cfg.TrashPath, EntryName(src, cfg, cfg.TimeNanos), "a.txt")
	createTestFile(t, occupied, "old")

	err := m.Delete(src)
	if !atomic.IsDestinationExists(err) {
		t.Fatalf("Expected destination exists error, got %v", err)
	}

	for path, want := range map[string]string{src: "new", occupied: "old"} {
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("Failed to read %s: %v", path, err)
		}
		if string(got) != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}
}

func TestDeleteVerbose(t *testing.T) {
	var out bytes.Buffer
	m, work := newTestManager(t, Options{Verbose: true}, WithOutput(&out))
	src := filepath.Join(work, "a.txt")
	createTestFile(t, src, "hello")

	if err := m.Delete(src); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	cfg := m.Config()
	want := "Move " + src + " -> " +
		filepath.Join(cfg.TrashPath, EntryName(src, cfg, cfg.TimeNanos), "a.txt") + "\n"
	if out.String() != want {
		t.Errorf("Output = %q, want %q", out.String(), want)
	}
}

func TestList(t *testing.T) {
	m, work := newTestManager(t, Options{EntryPerFile: true, Recursive: true})

	entries, err := m.List()
	if err != nil {
		t.Fatalf("List() on empty trashpile failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("Expected no entries, got %v", entries)
	}

	file := filepath.Join(work, "b.txt")
	dir := filepath.Join(work, "a-dir")
	createTestFile(t, file, "b")
	createTestFile(t, filepath.Join(dir, "inner.txt"), "inner")
	if err := m.Delete(file); err != nil {
		t.Fatalf("Delete(file) failed: %v", err)
	}

	entries, err = m.List()
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected one entry, got %v", entries)
	}
	if items := entries[0].Items; len(items) != 1 || items[0].Name != "b.txt" || items[0].Kind != KindFile {
		t.Fatalf("Expected single item (b.txt, file), got %+v", items)
	}

	if err := m.Delete(dir); err != nil {
		t.Fatalf("Delete(dir) failed: %v", err)
	}
	// A stray file at the top level is not an entry
	createTestFile(t, filepath.Join(m.Config().TrashPath, "stray"), "")

	entries, err = m.List()
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected two entries, got %v", entries)
	}
	// Sorted by name: "a-dir-..." before "b.txt-..."
	if !strings.HasPrefix(entries[0].Name, "a-dir-") || !strings.HasPrefix(entries[1].Name, "b.txt-") {
		t.Errorf("Entries not sorted: %q, %q", entries[0].Name, entries[1].Name)
	}
	if items := entries[0].Items; len(items) != 1 || items[0].Kind != KindDir || items[0].Kind.String() != "dir" {
		t.Errorf("Expected single dir item, got %+v", items)
	}
}

func TestEmpty(t *testing.T) {
	var out bytes.Buffer
	m, work := newTestManager(t, Options{Recursive: true, Verbose: true}, WithOutput(&out))
	cfg := m.Config()

	for _, name := range []string{"a.txt", "b.txt", "c"} {
		createTestFile(t, filepath.Join(work, name), name)
	}
	createTestFile(t, filepath.Join(work, "tree", "ro", "f"), "f")
	if err := os.Chmod(filepath.Join(work, "tree", "ro"), 0500); err != nil {
		t.Fatalf("Failed to chmod: %v", err)
	}
	for _, name := range []string{"a.txt", "b.txt", "c", "tree"} {
		if err := m.Delete(filepath.Join(work, name)); err != nil {
			t.Fatalf("Delete(%s) failed: %v", name, err)
		}
	}
	out.Reset()

	if err := m.Empty(); err != nil {
		t.Fatalf("Empty() failed: %v", err)
	}

	fi, err := os.Stat(cfg.TrashPath)
	if err != nil || !fi.IsDir() {
		t.Fatalf("Trashpile must still exist: %v", err)
	}
	if entries := readDirNames(t, cfg.TrashPath); len(entries) != 0 {
		t.Errorf("Expected empty trashpile, got %v", entries)
	}
	if n := strings.Count(out.String(), " removed\n"); n != 4 {
		t.Errorf("Expected 4 removal lines, got %d in %q", n, out.String())
	}

	// Calling it again on an empty trashpile is fine
	if err := m.Empty(); err != nil {
		t.Errorf("Empty() on empty trashpile failed: %v", err)
	}
}

func TestEmptyKeepsTopLevelFiles(t *testing.T) {
	m, _ := newTestManager(t, Options{})
	cfg := m.Config()
	stray := filepath.Join(cfg.TrashPath, "stray.txt")
	createTestFile(t, stray, "keep")
	createTestFile(t, filepath.Join(cfg.TrashPath, "entry", "x"), "x")

	if err := m.Empty(); err != nil {
		t.Fatalf("Empty() failed: %v", err)
	}
	if entries := readDirNames(t, cfg.TrashPath); len(entries) != 1 || entries[0] != "stray.txt" {
		t.Errorf("Expected only stray.txt to remain, got %v", entries)
	}
}

func TestDiskUsage(t *testing.T) {
	dir := t.TempDir()
	createTestFile(t, filepath.Join(dir, "a"), "12345")
	createTestFile(t, filepath.Join(dir, "sub", "b"), "123")

	got, err := DiskUsage(dir)
	if err != nil {
		t.Fatalf("DiskUsage() failed: %v", err)
	}
	if got != 8 {
		t.Errorf("DiskUsage() = %d, want 8", got)
	}
}

// skipWithoutPermissions skips tests that rely on the current user being
// denied access by file modes
func skipWithoutPermissions(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("needs POSIX permissions enforced for the current user")
	}
}

func TestDeleteRemovesEntryAfterFailedMove(t *testing.T) {
	skipWithoutPermissions(t)
	m, work := newTestManager(t, Options{})
	cfg := m.Config()

	locked := filepath.Join(work, "locked")
	src := filepath.Join(locked, "a.txt")
	createTestFile(t, src, "a")
	if err := os.Chmod(locked, 0500); err != nil {
		t.Fatalf("Failed to chmod: %v", err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0700) })

	err := m.Delete(src)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Op != "delete" || opErr.Path != src {
		t.Errorf("Expected delete error for %s, got %v", src, err)
	}

	if entries := readDirNames(t, cfg.TrashPath); len(entries) != 0 {
		t.Errorf("No entry may be left behind, got %v", entries)
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("Source should be untouched: %v", err)
	}
}

func TestListContinuesPastUnreadableEntry(t *testing.T) {
	skipWithoutPermissions(t)
	m, _ := newTestManager(t, Options{})
	cfg := m.Config()

	for _, name := range []string{"a-ok", "b-locked", "c-ok"} {
		createTestFile(t, filepath.Join(cfg.TrashPath, name, "file"), name)
	}
	locked := filepath.Join(cfg.TrashPath, "b-locked")
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatalf("Failed to chmod: %v", err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0700) })

	entries, err := m.List()
	if err == nil {
		t.Fatal("Expected error for the unreadable entry, got nil")
	}
	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Path != locked {
		t.Errorf("Expected error naming %s, got %v", locked, err)
	}
	if !errors.Is(err, os.ErrPermission) {
		t.Errorf("Expected permission error, got %v", err)
	}

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	if len(names) != 2 || names[0] != "a-ok" || names[1] != "c-ok" {
		t.Errorf("Expected the readable entries [a-ok c-ok], got %v", names)
	}
}

func TestEmptyContinuesPastFailures(t *testing.T) {
	var out bytes.Buffer
	m, _ := newTestManager(t, Options{Verbose: true}, WithOutput(&out))
	cfg := m.Config()

	for _, name := range []string{"a", "b", "c"} {
		createTestFile(t, filepath.Join(cfg.TrashPath, name, "file"), name)
	}
	stuck := filepath.Join(cfg.TrashPath, "b")
	m.remove = func(path string) error {
		if path == stuck {
			return os.ErrPermission
		}
		return removeAll(path)
	}

	err := m.Empty()
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok || len(joined.Unwrap()) != 1 {
		t.Fatalf("Expected exactly one joined error, got %v", err)
	}
	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Op != "empty" || opErr.Path != stuck {
		t.Errorf("Expected empty error for %s, got %v", stuck, err)
	}

	if entries := readDirNames(t, cfg.TrashPath); len(entries) != 1 || entries[0] != "b" {
		t.Errorf("Expected only b to remain, got %v", entries)
	}
	if n := strings.Count(out.String(), " removed\n"); n != 2 {
		t.Errorf("Expected 2 removal lines, got %d in %q", n, out.String())
	}
}
