package trashpile

import (
	"io/fs"
	"path/filepath"
)

// Kind tells whether an item inside an entry is a directory or a file
type Kind int

const (
	KindFile Kind = iota
	KindDir
)

func (k Kind) String() string {
	if k == KindDir {
		return "dir"
	}
	return "file"
}

// Entry is one directory directly below the trashpile. It normally wraps
// exactly one discarded original.
type Entry struct {
	Name  string
	Path  string
	Items []Item
}

// Item is a direct child of an entry, usually the discarded original
type Item struct {
	Name string
	Path string
	Kind Kind
}

// DiskUsage sums the sizes of all non-directory files under path without
// following symlinks.
func DiskUsage(path string) (int64, error) {
	var total int64
	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
