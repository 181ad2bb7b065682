package trashpile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// Dir is the trashpile location relative to the home directory
	Dir = ".local/share/rubbish/trashpile"

	// TimestampFormat renders as YYYY-MM-DD-HH-MM-SS
	TimestampFormat = "2006-01-02-15-04-05"

	// DirMode is used for the trashpile and every entry directory
	DirMode os.FileMode = 0750
)

var validate = validator.New()

// Config is built once per run and never modified afterwards.
type Config struct {
	Username  string
	HomePath  string `validate:"required,dir"`
	TrashPath string `validate:"required"`

	// Verbose prints every move and removal
	Verbose bool
	// Recursive skips the confirmation before trashing a directory
	Recursive bool
	// EntryPerFile puts the original basename into the entry name
	EntryPerFile bool

	// Timestamp is the human readable start time of the run
	Timestamp string `validate:"required"`
	// TimeNanos is the start time of the run in nanoseconds, used only as hash input
	TimeNanos int64
}

// Options are the user-selectable switches of a run
type Options struct {
	Verbose      bool
	Recursive    bool
	EntryPerFile bool
}

// NewConfig derives the trashpile layout from home and captures the start
// time from now. It fails with ErrHomeMissing when home does not exist.
func NewConfig(home, user string, now time.Time, opts Options) (Config, error) {
	cfg := Config{
		Username:     user,
		HomePath:     home,
		Verbose:      opts.Verbose,
		Recursive:    opts.Recursive,
		EntryPerFile: opts.EntryPerFile,
		Timestamp:    now.Format(TimestampFormat),
		TimeNanos:    now.UnixNano(),
	}
	if home != "" {
		cfg.TrashPath = filepath.Join(home, Dir)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the config. A missing or non-directory home path is
// reported as ErrHomeMissing.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		if fe.Field() == "HomePath" {
			return fmt.Errorf("%q: %w", c.HomePath, ErrHomeMissing)
		}
	}
	fe := verrs[0]
	return fmt.Errorf("invalid config: field %s, %q is invalid (%s)", fe.Field(), fe.Value(), fe.Tag())
}
