package log

import (
	"log/slog"
	"strings"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

var (
	defaultStylesOnce sync.Once
	defaultStyles     *Styles
)

// DefaultStyles returns the charm styles with fixed-width, colored level labels
func DefaultStyles() *Styles {
	defaultStylesOnce.Do(func() {
		styles := charmlog.DefaultStyles()
		for _, ls := range levelStyles {
			levelStr := strings.ToUpper(ls.level.String())
			if len(levelStr) < levelWidth {
				levelStr += strings.Repeat(" ", levelWidth-len(levelStr))
			}
			styles.Levels[ls.level] = ls.style.SetString(levelStr)
		}
		defaultStyles = styles
	})
	return defaultStyles
}

// New creates a new logger with the given options
func New(opts ...Option) *slog.Logger {
	o := DefaultOptions()
	o.Apply(opts...)

	handler := charmlog.NewWithOptions(o.Writer, o.Options)
	handler.SetStyles(o.Styles)

	logger := slog.New(handler)

	if o.Default {
		charmlog.SetDefault(handler)
		slog.SetDefault(logger)
	}

	return logger
}
