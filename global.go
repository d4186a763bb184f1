package ctxioc

import (
	"context"
	"reflect"
)

// TimingMode selects which factory calls are recorded with go-timing.
type TimingMode int

const (
	// TimingDisable will disable timing for all factory calls.
	TimingDisable TimingMode = iota

	// TimingFactories will start a timing context for each factory that is called. The
	// span is a child of whatever timing context the resolving container carries, so
	// nested resolutions show up nested. Attach a timing root with WithContext.
	TimingFactories
)

// EnableTiming is the timing mode used by every container.
var EnableTiming = TimingDisable

// RecursionLimit bounds how many constructions of one registration may be in flight
// at once. A factory that resolves through a captured container rather than the one
// passed to it starts a new resolution chain, so a cycle among such factories is only
// caught once this limit is exceeded. Zero disables the limit.
var RecursionLimit = 1000

type containerOptions struct {
	scope any
	ctx   context.Context
}

// Option configures a container created by New or CreateChild.
type Option func(*containerOptions) error

// WithScope sets the scope token of the container. Registrations configured with
// ReusedWithin(token) share one instance per container carrying that token. The
// token must be non-nil and comparable.
func WithScope(token any) Option {
	return func(o *containerOptions) error {
		if err := checkScopeToken(token); err != nil {
			return err
		}
		o.scope = token
		return nil
	}
}

// WithContext sets the base context resolutions on the container start from. It is
// handed to factories through Container.Context and is where timing spans are
// recorded. Children inherit the context of their parent unless they set their own.
func WithContext(ctx context.Context) Option {
	return func(o *containerOptions) error {
		if ctx == nil {
			return invalidArgument("nil context")
		}
		o.ctx = ctx
		return nil
	}
}

func buildOptions(ctx context.Context, opts []Option) (*containerOptions, error) {
	o := &containerOptions{ctx: ctx}
	for _, opt := range opts {
		if opt == nil {
			return nil, invalidArgument("nil option")
		}
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func checkScopeToken(token any) error {
	if token == nil {
		return invalidArgument("nil scope token")
	}
	if !reflect.ValueOf(token).Comparable() {
		return invalidArgument("scope token of type %T is not comparable", token)
	}
	return nil
}

// Resolve returns the service of type T produced by the factory registered for T and
// the types of args. Arguments are matched by their dynamic type; wrap them with Arg
// to match an interface parameter. The error is a *ResolutionError for missing,
// recursive or failing registrations.
func Resolve[T any](c *Container, args ...any) (T, error) {
	v, _, err := resolveTyped[T](c, nil, false, true, args)
	return v, err
}

// ResolveKeyed is Resolve for a service registered with RegisterKeyed.
func ResolveKeyed[T any](c *Container, key any, args ...any) (T, error) {
	v, _, err := resolveTyped[T](c, key, true, true, args)
	return v, err
}

// MustResolve behaves like Resolve except it panics with the error. Inside a factory
// the panic is turned back into a resolution error for the outer caller.
func MustResolve[T any](c *Container, args ...any) T {
	v, err := Resolve[T](c, args...)
	if err != nil {
		panic(err)
	}
	return v
}

// MustResolveKeyed behaves like ResolveKeyed except it panics with the error.
func MustResolveKeyed[T any](c *Container, key any, args ...any) T {
	v, err := ResolveKeyed[T](c, key, args...)
	if err != nil {
		panic(err)
	}
	return v
}

func resolveTyped[T any](c *Container, key any, keyed, required bool, args []any) (T, bool, error) {
	var zero T
	if c == nil {
		return zero, false, invalidArgument("nil container")
	}
	types, values, err := unpackArgs(args)
	if err != nil {
		return zero, false, err
	}
	sk, err := makeKey(TypeOf[T](), types, key, keyed)
	if err != nil {
		return zero, false, err
	}
	v, found, err := c.resolveKey(sk, values, required)
	if err != nil {
		return zero, false, err
	}
	return as[T](v), found, nil
}
