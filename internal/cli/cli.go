package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/babarot/rubbish/internal/env"
	"github.com/babarot/rubbish/internal/trashpile"
	"github.com/babarot/rubbish/internal/ui"
	"github.com/babarot/rubbish/internal/utils/debug"
	"github.com/babarot/rubbish/internal/utils/log"
	"github.com/jessevdk/go-flags"
	"github.com/rs/xid"
)

const (
	ExitCodeOK    int = 0
	ExitCodeError int = 1 // also a missing home or a failed trashpile setup
	ExitCodeUsage int = 2
)

type Option struct {
	Recursive      bool `short:"r" long:"recursive" description:"Throw directory into trashpile without asking"`
	EmptyTrashpile bool `long:"empty-trashpile" description:"Empty trashpile, which means REMOVE ALL FILES FROM IT PERMANENTLY"`
	Verbose        bool `short:"V" long:"verbose" description:"Explicitly say where files have been moved"`
	ShowTrashpile  bool `short:"S" long:"show-trashpile" description:"Show contents of the trashpile"`
	EntryPerFile   bool `short:"e" long:"entry-per-file" description:"Store each file in a unique directory"`

	Meta MetaOption `group:"Meta Options"`
}

type MetaOption struct {
	Version bool   `long:"version" description:"Show version"`
	Debug   string `long:"debug" description:"View debug logs (default: \"full\")" optional-value:"full" optional:"yes" choice:"full" choice:"live"`
}

type CLI struct {
	version Version
	option  Option
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	now     func() time.Time
}

var runID = sync.OnceValue(func() string {
	return xid.New().String()
})

// Run runs the command line with os.Args and returns the exit code
func Run(v Version) int {
	return New(v, os.Stdin, os.Stdout, os.Stderr).Run(os.Args[1:])
}

func New(v Version, stdin io.Reader, stdout, stderr io.Writer) *CLI {
	return &CLI{
		version: v,
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
		now:     time.Now,
	}
}

func (c *CLI) Run(args []string) int {
	paths, code, ok := c.parse(args)
	if !ok {
		return code
	}
	opt := c.option

	if opt.Meta.Version {
		fmt.Fprint(c.stdout, c.version.Print())
		return ExitCodeOK
	}

	home := env.Home()
	logging := env.LoggingFromEnv(home)

	if opt.Meta.Debug != "" {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := debug.Logs(ctx, c.stdout, logging, opt.Meta.Debug == "live"); err != nil {
			fmt.Fprintf(c.stderr, "%s: %v\n", c.version.AppName, err)
			return ExitCodeError
		}
		return ExitCodeOK
	}

	// Resolve home before anything is written below it, logs included
	cfg, err := trashpile.NewConfig(home, env.User(), c.now(), trashpile.Options{
		Verbose:      opt.Verbose,
		Recursive:    opt.Recursive,
		EntryPerFile: opt.EntryPerFile,
	})
	if err != nil {
		if trashpile.IsHomeMissing(err) {
			fmt.Fprintln(c.stderr, "Homeless user, can't create trashpile directory. Aborted.")
			return ExitCodeError
		}
		fmt.Fprintf(c.stderr, "%s: %v\n", c.version.AppName, err)
		return ExitCodeError
	}

	// Held in memory until the trashpile is in place, so a declined setup
	// leaves nothing behind
	logw := setupLogger(logging)
	defer logw.Close()

	slog.Debug("main function started",
		"version", c.version.Version,
		"revision", c.version.Revision,
		"user", cfg.Username,
		"trashpile", cfg.TrashPath)
	defer slog.Debug("main function finished")

	manager, err := trashpile.NewManager(cfg,
		trashpile.WithConfirmer(ui.NewPrompt(c.stdin, c.stdout)),
		trashpile.WithOutput(c.stdout),
	)
	if err != nil {
		fmt.Fprintf(c.stderr, "%s: %v\n", c.version.AppName, err)
		return ExitCodeError
	}

	return c.dispatch(manager, logw, paths)
}

// parse fills c.option. When ok is false the run is over and code is the
// exit code to use.
func (c *CLI) parse(args []string) (paths []string, code int, ok bool) {
	var opt Option
	parser := flags.NewParser(&opt, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = c.version.AppName
	parser.Usage = "[OPTIONS] [PATH...]"
	parser.LongDescription = "A file removal tool for anxious people"

	paths, err := parser.ParseArgs(args)
	if err != nil {
		if flags.WroteHelp(err) {
			fmt.Fprintln(c.stdout, err)
			return nil, ExitCodeOK, false
		}
		fmt.Fprintf(c.stderr, "%s: %v\n", c.version.AppName, err)
		return nil, ExitCodeUsage, false
	}

	if opt.EmptyTrashpile && opt.ShowTrashpile {
		fmt.Fprintf(c.stderr, "%s: --empty-trashpile and --show-trashpile cannot be used together\n", c.version.AppName)
		return nil, ExitCodeUsage, false
	}

	c.option = opt
	return paths, ExitCodeOK, true
}

// dispatch runs the requested operations in order. Failures are reported
// and never stop the remaining work.
func (c *CLI) dispatch(m *trashpile.Manager, logw *log.DeferredWriter, paths []string) int {
	if err := m.Ensure(); err != nil {
		logw.Discard()
		if trashpile.IsInitDeclined(err) {
			fmt.Fprintln(c.stdout, "Initialization did not complete, nothing I can do here now, bye!")
			return ExitCodeOK
		}
		fmt.Fprintf(c.stderr, "Could not initialize trashpile: %v\n", cause(err))
		return ExitCodeError
	}
	// Logging is best effort: an unopenable log file only drops the logs
	_ = logw.Open()

	switch {
	case c.option.EmptyTrashpile:
		c.Empty(m)
	case c.option.ShowTrashpile:
		c.Show(m)
	}

	c.Put(m, paths)

	return ExitCodeOK
}

// setupLogger installs the default logger. Its output stays in memory
// until the returned writer is opened.
func setupLogger(cfg env.Logging) *log.DeferredWriter {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.DebugLevel
	}

	var open func() (io.WriteCloser, error)
	if cfg.Enabled {
		open = func() (io.WriteCloser, error) {
			rw, err := log.NewRotateWriter(cfg.Path, cfg.MaxSize, cfg.MaxFiles)
			if err != nil {
				return nil, err
			}
			return rw, nil
		}
	}
	w := log.NewDeferredWriter(open)

	log.New(
		log.UseOutput(w),
		log.UseLevel(level),
		log.UseReportCaller(true),
		log.UseReportTimestamp(true),
		log.UseTimeFormat(time.DateTime),
		log.UseFields("run_id", runID()),
		log.AsDefault(),
	)

	return w
}
