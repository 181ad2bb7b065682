package env

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	defaultXDGDataDirname = ".local/share"

	defaultLogLevel    = "debug"
	defaultLogMaxSize  = "10MB"
	defaultLogMaxFiles = 3
)

// Home returns $HOME as is. It is not checked for existence here.
func Home() string {
	return os.Getenv("HOME")
}

// User returns $USER.
func User() string {
	return os.Getenv("USER")
}

// DataDir follows https://specifications.freedesktop.org/basedir-spec/latest/
func DataDir(home string) string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(home, defaultXDGDataDirname)
}

// Logging holds the RUBBISH_LOG_* settings.
type Logging struct {
	Enabled  bool
	Path     string
	Level    string
	MaxSize  string
	MaxFiles int
}

// LoggingFromEnv reads the log settings, falling back to defaults for
// anything unset or unparsable.
func LoggingFromEnv(home string) Logging {
	l := Logging{
		Enabled:  true,
		Path:     filepath.Join(DataDir(home), "rubbish", "debug.log"),
		Level:    defaultLogLevel,
		MaxSize:  defaultLogMaxSize,
		MaxFiles: defaultLogMaxFiles,
	}

	if e := os.Getenv("RUBBISH_LOG_ENABLED"); e != "" {
		if enabled, err := strconv.ParseBool(e); err == nil {
			l.Enabled = enabled
		}
	}
	if e := os.Getenv("RUBBISH_LOG_PATH"); e != "" {
		l.Path = e
	}
	if e := os.Getenv("RUBBISH_LOG_LEVEL"); e != "" {
		l.Level = strings.ToLower(e)
	}
	if e := os.Getenv("RUBBISH_LOG_MAX_SIZE"); e != "" {
		l.MaxSize = e
	}
	if e := os.Getenv("RUBBISH_LOG_MAX_FILES"); e != "" {
		if n, err := strconv.Atoi(e); err == nil && n >= 0 {
			l.MaxFiles = n
		}
	}

	return l
}
