package cli

import (
	"fmt"
	"log/slog"

	"github.com/babarot/rubbish/internal/trashpile"
)

// Empty purges the trashpile, reporting each entry that could not be removed
func (c *CLI) Empty(m *trashpile.Manager) {
	slog.Debug("cli.empty started")
	defer slog.Debug("cli.empty finished")

	err := m.Empty()
	if err == nil {
		return
	}

	for _, e := range unjoin(err) {
		fmt.Fprintf(c.stderr, "Could not empty trashpile: %v\n", e)
	}
}

// unjoin splits an error built by errors.Join into its parts
func unjoin(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
