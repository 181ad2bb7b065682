package trashpile

import "errors"

var (
	// ErrHomeMissing is returned when $HOME is unset or does not exist.
	// Nothing can be done without it.
	ErrHomeMissing = errors.New("home directory does not exist")

	// ErrInitDeclined is returned when the user refuses to create the trashpile
	ErrInitDeclined = errors.New("trashpile initialization declined")

	// ErrUserDeclined is returned when the user refuses to trash a directory
	ErrUserDeclined = errors.New("user denied to remove the directory")

	// ErrProtectedPath is returned for paths that must never be trashed,
	// such as "/", "." or the trashpile itself
	ErrProtectedPath = errors.New("refusing to trash a protected path")

	// ErrNotDirectory is returned when the trashpile path exists but is not a directory
	ErrNotDirectory = errors.New("not a directory")
)

// OperationError wraps a failure of a single trashpile operation on a single path
type OperationError struct {
	// Op is the operation that failed (e.g., "init", "delete", "empty", "list")
	Op string

	// Path is the path the operation was working on
	Path string

	// Err is the underlying error
	Err error
}

// Error implements the error interface
func (e *OperationError) Error() string {
	if e.Path == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	return e.Err
}

// NewOperationError creates a new OperationError
func NewOperationError(op, path string, err error) error {
	return &OperationError{
		Op:   op,
		Path: path,
		Err:  err,
	}
}

// IsHomeMissing returns true if the error is ErrHomeMissing
func IsHomeMissing(err error) bool {
	return errors.Is(err, ErrHomeMissing)
}

// IsInitDeclined returns true if the error is ErrInitDeclined
func IsInitDeclined(err error) bool {
	return errors.Is(err, ErrInitDeclined)
}

// IsUserDeclined returns true if the error is ErrUserDeclined
func IsUserDeclined(err error) bool {
	return errors.Is(err, ErrUserDeclined)
}

// IsProtectedPath returns true if the error is ErrProtectedPath
func IsProtectedPath(err error) bool {
	return errors.Is(err, ErrProtectedPath)
}
