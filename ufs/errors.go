package ufs

import "fmt"

// Errno is the file system's error taxonomy, following the teacher's
// DiskoError pattern: a named, string-backed error value that supports
// errors.Is comparisons and can be wrapped with extra context via
// WithMessage without losing its identity.
type Errno string

const (
	// EInvalidInode means the referenced inode is absent, out of range,
	// corrupt, or of the wrong kind for the operation's preconditions.
	EInvalidInode = Errno("invalid inode")
	// EInvalidType means the operation's kind constraint was violated, e.g.
	// a write to a directory or a name colliding with the wrong type.
	EInvalidType = Errno("invalid type")
	// EInvalidName means a name was empty or longer than MaxNameLength.
	EInvalidName = Errno("invalid name")
	// EInvalidSize means a negative size was passed to Write.
	EInvalidSize = Errno("invalid size")
	// ENotEnoughSpace means no free inode or data slot was available, or a
	// parent directory is at capacity.
	ENotEnoughSpace = Errno("not enough space")
	// EDirNotEmpty means Unlink's target is a directory with children.
	EDirNotEmpty = Errno("directory not empty")
	// EUnlinkNotAllowed means an attempt was made to unlink "." or "..".
	EUnlinkNotAllowed = Errno("unlink not allowed")
	// ENotFound means Lookup found no entry with the given name.
	ENotFound = Errno("not found")
)

func (e Errno) Error() string {
	return string(e)
}

// wrappedErrno pairs an Errno with additional context, while still
// comparing equal to the base Errno under errors.Is.
type wrappedErrno struct {
	errno   Errno
	message string
}

func (e wrappedErrno) Error() string {
	return e.message
}

func (e wrappedErrno) Is(target error) bool {
	return e.errno == target
}

func (e wrappedErrno) Unwrap() error {
	return e.errno
}

// WithMessage attaches additional diagnostic context to an Errno. The
// result still satisfies errors.Is(result, e).
func (e Errno) WithMessage(message string) error {
	return wrappedErrno{errno: e, message: fmt.Sprintf("%s: %s", string(e), message)}
}
