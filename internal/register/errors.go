package register

import (
	"errors"
	"strings"

	"github.com/zjrosen/paneron/internal/git"
)

// Register errors.
var (
	// ErrPathNotFound indicates an entity's path does not exist on disk.
	ErrPathNotFound = errors.New("path does not exist")

	// ErrNotADirectory indicates a register, data set or item class path is not a directory.
	ErrNotADirectory = errors.New("path is not a directory")

	// ErrNotAFile indicates an item path is not a regular file.
	ErrNotAFile = errors.New("path is not a file")

	// ErrMissingMetadataFile indicates a required metadata file is absent.
	ErrMissingMetadataFile = errors.New("metadata file does not exist")

	// ErrInvalidIdentifier indicates an empty or malformed name or UUID.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrParentMismatch indicates a supplied parent does not own the given path.
	ErrParentMismatch = errors.New("parent does not match path")

	// ErrNameConflict indicates a rename or move target is already taken.
	ErrNameConflict = errors.New("name already in use")

	// ErrValidationFailure is matched by every *ValidationError.
	ErrValidationFailure = errors.New("validation failed")

	// ErrGitConfigConflict indicates a cached clone points at a different remote.
	ErrGitConfigConflict = errors.New("repository remote conflicts with requested URL")

	// ErrGitTimeout indicates clone, pull or push exceeded the client timeout.
	ErrGitTimeout = git.ErrTimeout

	// ErrNoRemoteConfigured indicates Sync was called on a local-only register.
	ErrNoRemoteConfigured = errors.New("no remote configured")

	// ErrNoRepository indicates a commit was requested before a repository
	// was opened or initialized.
	ErrNoRepository = errors.New("no repository open")

	// ErrNotFound indicates a lookup by identifier matched nothing.
	ErrNotFound = errors.New("not found")
)

// PathError records a structural failure at a path.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// ValidationError carries every message collected in one validation pass.
type ValidationError struct {
	Kind     string
	Messages []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind)
	b.WriteString(" is not valid:")
	for _, m := range e.Messages {
		b.WriteString("\n  - ")
		b.WriteString(m)
	}
	return b.String()
}

// Is makes errors.Is(err, ErrValidationFailure) hold.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailure
}

// validationResult returns nil when msgs is empty.
func validationResult(kind string, msgs []string) error {
	if len(msgs) == 0 {
		return nil
	}
	return &ValidationError{Kind: kind, Messages: msgs}
}
