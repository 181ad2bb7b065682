package cli

import (
	"fmt"
	"log/slog"

	"github.com/babarot/rubbish/internal/trashpile"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// Show prints every entry of the trashpile followed by its contents.
// Entries that cannot be read get one error line each.
func (c *CLI) Show(m *trashpile.Manager) {
	slog.Debug("cli.show started")
	defer slog.Debug("cli.show finished")

	entries, err := m.List()
	if err != nil {
		for _, e := range unjoin(err) {
			fmt.Fprintf(c.stderr, "Could not show trashpile: %v\n", e)
		}
	}

	entryName := color.New(color.FgHiGreen).SprintFunc()
	for _, e := range entries {
		fmt.Fprintln(c.stdout, entryName(e.Name))
		for _, item := range e.Items {
			line := fmt.Sprintf("\t-> %s (%s)", item.Name, item.Kind)
			if c.option.Verbose {
				if size, err := trashpile.DiskUsage(item.Path); err == nil {
					line += " " + humanize.Bytes(uint64(size))
				}
			}
			fmt.Fprintln(c.stdout, line)
		}
	}
}
