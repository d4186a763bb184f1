package ctxioc

import (
	"reflect"
	"sync"
)

var (
	errorType     = reflect.TypeOf((*error)(nil)).Elem()
	containerType = reflect.TypeOf((*Container)(nil))
)

// factoryShape caches the reflection work needed to call a factory of a given
// function type.
type factoryShape struct {
	serviceType    reflect.Type
	argTypes       []reflect.Type
	takesContainer bool
	hasError       bool
}

// Global shape cache to avoid repeated reflection on the same factory types
var globalShapeCache sync.Map // map[reflect.Type]*factoryShape

// getFactoryShape returns the cached shape of a factory function type, computing
// and validating it if necessary.
func getFactoryShape(t reflect.Type) (*factoryShape, error) {
	if cached, ok := globalShapeCache.Load(t); ok {
		return cached.(*factoryShape), nil
	}

	if t.Kind() != reflect.Func {
		return nil, invalidArgument("factory must be a function, got %v", t)
	}
	if t.IsVariadic() {
		return nil, invalidArgument("factory %v must not be variadic", t)
	}

	shape := &factoryShape{}

	switch t.NumOut() {
	case 1:
	case 2:
		if t.Out(1) != errorType {
			return nil, invalidArgument("second result of factory %v must be error", t)
		}
		shape.hasError = true
	default:
		return nil, invalidArgument("factory %v must return T or (T, error)", t)
	}
	shape.serviceType = t.Out(0)
	if shape.serviceType == errorType {
		return nil, invalidArgument("factory %v must not produce a bare error", t)
	}

	first := 0
	if t.NumIn() > 0 && t.In(0) == containerType {
		shape.takesContainer = true
		first = 1
	}
	for i := first; i < t.NumIn(); i++ {
		shape.argTypes = append(shape.argTypes, t.In(i))
	}
	if len(shape.argTypes) > MaxArity {
		return nil, invalidArgument("factory %v takes %d arguments, at most %d are supported", t, len(shape.argTypes), MaxArity)
	}

	actual, _ := globalShapeCache.LoadOrStore(t, shape)
	return actual.(*factoryShape), nil
}

// funcShapeFor inspects a function type used as a typed lazy resolver. The
// parameters are the resolution arguments and the first result is the service.
func funcShapeFor(t reflect.Type) (*factoryShape, error) {
	if t.Kind() != reflect.Func {
		return nil, invalidArgument("lazy target type must be a function, got %v", t)
	}
	shape, err := getFactoryShape(t)
	if err != nil {
		return nil, err
	}
	if shape.takesContainer {
		return nil, invalidArgument("lazy target type %v must not take *Container", t)
	}
	return shape, nil
}
