package ctxioc

import "reflect"

// TryResolve behaves like Resolve except a missing registration yields the zero
// value of T and a nil error. A registered factory that legitimately produces the
// zero value is indistinguishable; use CanResolve or TryResolveOk when that matters.
// Recursive and failing factories are still reported.
func TryResolve[T any](c *Container, args ...any) (T, error) {
	v, _, err := resolveTyped[T](c, nil, false, false, args)
	return v, err
}

// TryResolveKeyed is TryResolve for a keyed service.
func TryResolveKeyed[T any](c *Container, key any, args ...any) (T, error) {
	v, _, err := resolveTyped[T](c, key, true, false, args)
	return v, err
}

// TryResolveOk is TryResolve that also reports whether a registration was found.
func TryResolveOk[T any](c *Container, args ...any) (T, bool, error) {
	return resolveTyped[T](c, nil, false, false, args)
}

// CanResolve reports whether T with the given argument types is registered on c or
// one of its ancestors. No factory is called. A disposed container resolves nothing.
func CanResolve[T any](c *Container, argTypes ...reflect.Type) bool {
	return canResolve(c, TypeOf[T](), argTypes, nil, false)
}

// CanResolveKeyed is CanResolve for a keyed service.
func CanResolveKeyed[T any](c *Container, key any, argTypes ...reflect.Type) bool {
	return canResolve(c, TypeOf[T](), argTypes, key, true)
}

func canResolve(c *Container, service reflect.Type, argTypes []reflect.Type, key any, keyed bool) bool {
	if c == nil || c.core.disposed.Load() {
		return false
	}
	sk, err := makeKey(service, argTypes, key, keyed)
	if err != nil {
		return false
	}
	return c.core.lookup(sk) != nil
}
