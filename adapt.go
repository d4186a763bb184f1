package ctxioc

import (
	"fmt"
	"reflect"
)

// LazyResolve returns a function that resolves T with args when called. Nothing is
// looked up or validated until then, so the service may be registered after the
// lazy function is created.
func LazyResolve[T any](c *Container, args ...any) func() (T, error) {
	return func() (T, error) {
		return Resolve[T](c, args...)
	}
}

// LazyResolveKeyed is LazyResolve for a keyed service.
func LazyResolveKeyed[T any](c *Container, key any, args ...any) func() (T, error) {
	return func() (T, error) {
		return ResolveKeyed[T](c, key, args...)
	}
}

// LazyFunc returns a function of type F that resolves a service each time it is
// called. F's parameters are the resolution arguments and its first result is the
// service type, optionally followed by an error:
//
//	type ParserFactory func(name string, r io.Reader) (*Parser, error)
//
//	c.Register(func(c *Container, name string, r io.Reader) *Parser { ... })
//	newParser := LazyFunc[ParserFactory](c)
//	p, err := newParser("config", file)
//
// As with LazyResolve, the registration is looked up on each call. When F has no
// error result, failures panic. LazyFunc panics if F is not such a function type.
func LazyFunc[F any](c *Container) F {
	return makeLazyFunc[F](c, nil, false)
}

// LazyFuncKeyed is LazyFunc for a keyed service.
func LazyFuncKeyed[F any](c *Container, key any) F {
	return makeLazyFunc[F](c, key, true)
}

func makeLazyFunc[F any](c *Container, key any, keyed bool) F {
	if c == nil {
		panic(invalidArgument("nil container"))
	}
	targetType := TypeOf[F]()
	shape, err := funcShapeFor(targetType)
	if err != nil {
		panic(err)
	}
	sk, err := makeKey(shape.serviceType, shape.argTypes, key, keyed)
	if err != nil {
		panic(err)
	}

	fn := reflect.MakeFunc(targetType, func(args []reflect.Value) []reflect.Value {
		v, _, err := c.resolveKey(sk, args, true)

		result := reflect.New(shape.serviceType).Elem()
		if err == nil && v != nil {
			result.Set(reflect.ValueOf(v))
		}

		if !shape.hasError {
			if err != nil {
				panic(err)
			}
			return []reflect.Value{result}
		}

		errResult := reflect.New(errorType).Elem()
		if err != nil {
			errResult.Set(reflect.ValueOf(err))
		}
		return []reflect.Value{result, errResult}
	})

	out, ok := fn.Interface().(F)
	if !ok {
		// We should never get here.
		panic(fmt.Sprintf("lazy function has unexpected type %v", fn.Type()))
	}
	return out
}
