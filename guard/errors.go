package guard

import (
	"errors"
	"fmt"
	"reflect"
)

// Error taxonomy shared by every package in the module. Callers match with
// errors.Is; none of these are transient.
var (
	// ErrInvalidArgument reports malformed or missing input (nil target,
	// empty field mapping, nil argument without a null marker).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNoMatchingConstructor reports that no registered overload accepts
	// the derived argument types.
	ErrNoMatchingConstructor = errors.New("no matching constructor")

	// ErrTypeMismatch reports a value that does not convert to the expected type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrMemberNotFound reports a field, property or method that does not exist
	// or is not accessible.
	ErrMemberNotFound = errors.New("member not found")

	// ErrBuild reports an internal synthesis failure. It indicates a defect.
	ErrBuild = errors.New("build error")
)

// ArgumentError names the offending argument of an ErrInvalidArgument failure.
type ArgumentError struct {
	Arg string
	Msg string
}

func (e *ArgumentError) Error() string {
	if e.Arg == "" {
		return "invalid argument: " + e.Msg
	}
	return fmt.Sprintf("invalid argument %q: %s", e.Arg, e.Msg)
}

func (e *ArgumentError) Unwrap() error { return ErrInvalidArgument }

// Argument returns an ArgumentError for arg.
func Argument(arg, format string, args ...any) error {
	return &ArgumentError{Arg: arg, Msg: formatOrNot(format, args...)}
}

// InvalidCast reports that a value of type from cannot bind to type to.
func InvalidCast(from, to reflect.Type) error {
	return fmt.Errorf("%w: cannot convert %s to %s", ErrTypeMismatch, typeString(from), typeString(to))
}

// MemberNotFound reports that member does not exist on owner.
func MemberNotFound(owner reflect.Type, member string) error {
	return fmt.Errorf("%w: %s has no accessible member %q", ErrMemberNotFound, typeString(owner), member)
}

// Build wraps a synthesis failure.
func Build(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBuild, formatOrNot(format, args...))
}

func formatOrNot(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

func typeString(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
