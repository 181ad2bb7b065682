package debug

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/babarot/rubbish/internal/env"
	"github.com/mattn/go-isatty"
	"github.com/nxadm/tail"
)

var ErrLoggingDisabled = errors.New("logging is disabled: unset RUBBISH_LOG_ENABLED or set it to true")

// Logs prints the log file to w. In live mode it keeps following new
// entries until ctx is done, as long as w is a terminal.
func Logs(ctx context.Context, w io.Writer, cfg env.Logging, live bool) error {
	if live && isTerminal(w) {
		return tailLiveLogs(ctx, w, cfg)
	}
	return showExistingLogs(w, cfg)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// tailLiveLogs follows log entries in real-time until ctx is done. It only
// writes to w: the logger is not set up while viewing logs.
func tailLiveLogs(ctx context.Context, w io.Writer, cfg env.Logging) error {
	if !cfg.Enabled {
		return ErrLoggingDisabled
	}

	if _, err := os.Stat(cfg.Path); os.IsNotExist(err) {
		return fmt.Errorf("log file does not exist: try running some commands with logging enabled")
	}

	t, err := tail.TailFile(cfg.Path, tail.Config{
		ReOpen: true,
		Follow: true,
		Poll:   true,
		Logger: tail.DiscardingLogger,
		Location: &tail.SeekInfo{
			Offset: 0,
			Whence: io.SeekEnd,
		},
	})
	if err != nil {
		return err
	}
	defer t.Cleanup()

	for {
		select {
		case <-ctx.Done():
			return t.Stop()
		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err != nil {
				return line.Err
			}
			fmt.Fprintln(w, line.Text)
		}
	}
}

// showExistingLogs displays the current content of the log file
func showExistingLogs(w io.Writer, cfg env.Logging) error {
	if _, err := os.Stat(cfg.Path); os.IsNotExist(err) {
		if !cfg.Enabled {
			return ErrLoggingDisabled
		}
		return fmt.Errorf("no log file exists yet: try running some commands first")
	}

	f, err := os.Open(cfg.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fmt.Fprintln(w, scanner.Text())
	}

	return scanner.Err()
}
