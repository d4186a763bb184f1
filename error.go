package ctxioc

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrNotRegistered is the kind of a failed resolution where no container in the
	// parent chain has a matching registration.
	ErrNotRegistered = errors.New("service not registered")

	// ErrRecursiveRegistration is the kind of a failed resolution where a factory
	// re-entered the resolution of its own service before completing.
	ErrRecursiveRegistration = errors.New("recursive registration")

	// ErrFactoryFailed is the kind of a failed resolution where the factory itself
	// returned an error.
	ErrFactoryFailed = errors.New("factory failed")

	// ErrDisposed is returned by operations on a container that has been disposed.
	ErrDisposed = errors.New("container disposed")

	// ErrInvalidArgument is returned for nil or malformed arguments to the public API.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ResolutionError describes a failed resolution. Kind is one of ErrNotRegistered,
// ErrRecursiveRegistration or ErrFactoryFailed, and errors.Is matches against it.
type ResolutionError struct {
	Kind        error
	ServiceType reflect.Type
	ArgTypes    []reflect.Type
	// Key is nil for unkeyed services.
	Key         any
	Status      string
	SourceError error
}

func newResolutionError(kind error, key serviceKey, source error) *ResolutionError {
	e := &ResolutionError{
		Kind:        kind,
		ServiceType: key.service,
		ArgTypes:    key.argTypes(),
		SourceError: source,
	}
	if key.keyed() {
		e.Key = key.key
	}
	return e
}

func (e *ResolutionError) Error() string {
	b := strings.Builder{}
	b.WriteString(e.Kind.Error())
	b.WriteString(": ")
	b.WriteString(fmt.Sprintf("%v", e.ServiceType))
	b.WriteString("(")
	for i, t := range e.ArgTypes {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.String())
	}
	b.WriteString(")")
	if e.Key != nil {
		b.WriteString(fmt.Sprintf(" [key=%v]", e.Key))
	}
	if e.SourceError != nil {
		b.WriteString(fmt.Sprintf(" (%v)", e.SourceError))
	}
	return b.String()
}

func (e *ResolutionError) Is(target error) bool {
	return target == e.Kind
}

func (e *ResolutionError) Unwrap() error {
	return e.SourceError
}

// isContainerError reports whether err originates from this package. Such errors
// raised as panics by Must* helpers inside a factory are turned back into errors.
func isContainerError(err error) bool {
	var re *ResolutionError
	if errors.As(err, &re) {
		return true
	}
	return errors.Is(err, ErrDisposed) || errors.Is(err, ErrInvalidArgument)
}

func disposedError(op string) error {
	return errors.Wrapf(ErrDisposed, "%s", op)
}

func invalidArgument(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}
