package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/babarot/rubbish/internal/trashpile"
)

// Put throws every path into the trashpile, one entry each
func (c *CLI) Put(m *trashpile.Manager, paths []string) {
	slog.Debug("cli.put started", "count", len(paths))
	defer slog.Debug("cli.put finished")

	for _, path := range paths {
		if err := m.Delete(path); err != nil {
			slog.Error("failed to delete", "path", path, "error", err)
			fmt.Fprintf(c.stderr, "%s was not deleted: %v\n", path, cause(err))
		}
	}
}

// cause strips the operation and path from a trashpile error, since the
// messages around it already name them
func cause(err error) error {
	var opErr *trashpile.OperationError
	if errors.As(err, &opErr) {
		return opErr.Err
	}
	return err
}
