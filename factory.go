package ctxioc

import (
	"reflect"
)

// factoryInfo is a validated factory function together with its cached shape.
type factoryInfo struct {
	fn    reflect.Value
	shape *factoryShape
}

// analyzeFactory validates a factory function and returns its metadata. Accepted
// shapes are func([*Container,] A1..An) T and func([*Container,] A1..An) (T, error).
func analyzeFactory(factory any) (*factoryInfo, error) {
	if factory == nil {
		return nil, invalidArgument("nil factory")
	}
	fv := reflect.ValueOf(factory)
	shape, err := getFactoryShape(fv.Type())
	if err != nil {
		return nil, err
	}
	if fv.IsNil() {
		return nil, invalidArgument("nil factory of type %v", fv.Type())
	}
	return &factoryInfo{fn: fv, shape: shape}, nil
}

// call invokes the factory with the container handle and the resolution arguments.
// A nil interface result is returned as a nil any.
func (f *factoryInfo) call(c *Container, args []reflect.Value) (any, error) {
	params := make([]reflect.Value, 0, len(args)+1)
	if f.shape.takesContainer {
		params = append(params, reflect.ValueOf(c))
	}
	params = append(params, args...)

	results := f.fn.Call(params)

	if f.shape.hasError {
		if errVal := results[1]; !errVal.IsNil() {
			return nil, errVal.Interface().(error)
		}
	}
	return valueOf(results[0]), nil
}

// valueOf unwraps a reflected result, mapping nil interfaces to a nil any.
func valueOf(v reflect.Value) any {
	if v.Kind() == reflect.Interface && v.IsNil() {
		return nil
	}
	return v.Interface()
}

// as converts a resolved value back to T. A nil value yields the zero T.
func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}
