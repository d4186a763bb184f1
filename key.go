package ctxioc

import (
	"fmt"
	"reflect"
	"strings"
)

// MaxArity is the largest number of arguments a factory may take besides the
// container itself.
const MaxArity = 14

// noKey marks an unkeyed registration. Being unexported, no caller can produce a
// value equal to it.
type noKey struct{}

// serviceKey identifies a registration: the service type, the ordered argument
// types of the factory and the registration key. It is comparable and used directly
// as the registry map key.
type serviceKey struct {
	service reflect.Type
	arity   int
	args    [MaxArity]reflect.Type
	key     any
}

func newServiceKey(service reflect.Type, args []reflect.Type) (serviceKey, error) {
	if service == nil {
		return serviceKey{}, invalidArgument("nil service type")
	}
	if len(args) > MaxArity {
		return serviceKey{}, invalidArgument("%v takes %d arguments, at most %d are supported", service, len(args), MaxArity)
	}
	k := serviceKey{
		service: service,
		arity:   len(args),
		key:     noKey{},
	}
	for i, a := range args {
		if a == nil {
			return serviceKey{}, invalidArgument("nil argument type at position %d for %v", i, service)
		}
		k.args[i] = a
	}
	return k, nil
}

func newKeyedServiceKey(service reflect.Type, args []reflect.Type, key any) (serviceKey, error) {
	if key == nil {
		return serviceKey{}, invalidArgument("nil key for %v", service)
	}
	if !reflect.ValueOf(key).Comparable() {
		return serviceKey{}, invalidArgument("key of type %T is not comparable", key)
	}
	k, err := newServiceKey(service, args)
	if err != nil {
		return serviceKey{}, err
	}
	k.key = key
	return k, nil
}

func (k serviceKey) keyed() bool {
	_, unkeyed := k.key.(noKey)
	return !unkeyed
}

func (k serviceKey) argTypes() []reflect.Type {
	if k.arity == 0 {
		return nil
	}
	out := make([]reflect.Type, k.arity)
	copy(out, k.args[:k.arity])
	return out
}

func (k serviceKey) String() string {
	b := strings.Builder{}
	b.WriteString(fmt.Sprintf("%v", k.service))
	b.WriteString("(")
	for i := 0; i < k.arity; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k.args[i].String())
	}
	b.WriteString(")")
	if k.keyed() {
		b.WriteString(fmt.Sprintf(" [key=%v]", k.key))
	}
	return b.String()
}

// argument pins the declared type of a resolution argument.
type argument struct {
	typ   reflect.Type
	value reflect.Value
}

// Arg wraps a resolution argument so that its declared type A, rather than the
// dynamic type of v, is used to find the registration. This is required for
// interface-typed factory parameters and for nil arguments.
//
//	c.Register(func(c *Container, r io.Reader) *Parser { ... })
//	p, err := Resolve[*Parser](c, Arg[io.Reader](buf))
func Arg[A any](v A) any {
	return argument{
		typ:   TypeOf[A](),
		value: reflect.ValueOf(&v).Elem(),
	}
}

// TypeOf returns the reflect.Type of A, including interface types.
func TypeOf[A any]() reflect.Type {
	return reflect.TypeOf((*A)(nil)).Elem()
}

// unpackArgs splits resolution arguments into their types and values.
func unpackArgs(args []any) ([]reflect.Type, []reflect.Value, error) {
	if len(args) == 0 {
		return nil, nil, nil
	}
	types := make([]reflect.Type, len(args))
	values := make([]reflect.Value, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case argument:
			types[i] = v.typ
			values[i] = v.value
		case nil:
			return nil, nil, invalidArgument("untyped nil argument at position %d, wrap it with Arg", i)
		default:
			types[i] = reflect.TypeOf(a)
			values[i] = reflect.ValueOf(a)
		}
	}
	return types, values, nil
}
