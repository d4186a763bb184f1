package ctxioc

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/gburgyan/go-timing"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/gburgyan/go-ctxioc/internal/logger"
)

// Container holds registrations and the instances they produced. Containers form a
// tree: a child created with CreateChild resolves anything its ancestors registered,
// while its own registrations stay invisible to them.
//
// A *Container is a handle onto the shared container state. Factories receive a
// handle bound to the resolution chain that called them, which is how recursive
// registrations are detected. Resolving through that handle keeps the chain intact;
// resolving through another handle starts a new chain.
type Container struct {
	core *containerCore
	ctx  context.Context
}

type containerCore struct {
	registry sync.Map // map[serviceKey]*registration
	children containerCollection
	parent   *containerCore
	scope    any
	disposed atomic.Bool
	handle   *Container
}

// New creates a root container. Without WithScope the container gets a unique
// scope token. New panics if an option is invalid.
func New(opts ...Option) *Container {
	o, err := buildOptions(context.Background(), opts)
	if err != nil {
		panic(err)
	}
	return newContainer(nil, o)
}

func newContainer(parent *containerCore, o *containerOptions) *Container {
	core := &containerCore{
		parent: parent,
		scope:  o.scope,
	}
	if core.scope == nil {
		core.scope = uuid.New()
	}
	c := &Container{core: core, ctx: o.ctx}
	core.handle = c

	// Every container resolves itself. It is never owned, so disposing the
	// container does not try to dispose itself through its registry.
	key, _ := newServiceKey(containerType, nil)
	core.registry.Store(key, newInstanceRegistration(core, key, c))

	return c
}

// CreateChild creates a container whose lookups fall back to c. The child is
// disposed together with c.
func (c *Container) CreateChild(opts ...Option) (*Container, error) {
	if c.core.disposed.Load() {
		return nil, disposedError("create child")
	}
	o, err := buildOptions(c.core.handle.ctx, opts)
	if err != nil {
		return nil, err
	}

	child := newContainer(c.core, o)
	c.core.children.add(child.core)

	// A concurrent Dispose may have taken its snapshot before the add.
	if c.core.disposed.Load() {
		_ = child.Dispose()
		return nil, disposedError("create child")
	}
	return child, nil
}

// Register adds a factory to the container and returns a handle to configure its
// reuse and ownership. The factory has the shape
//
//	func([c *Container,] a1 A1, ..., an An) T
//	func([c *Container,] a1 A1, ..., an An) (T, error)
//
// with at most MaxArity arguments. It is looked up by T and the argument types.
// Registering the same signature again replaces the earlier registration; an
// instance it had cached is dropped without being disposed.
//
// Register panics if the factory is malformed or the container is disposed.
func (c *Container) Register(factory any) *Registration {
	return c.register(nil, false, factory)
}

// RegisterKeyed is Register for a keyed service. Keyed and unkeyed registrations
// of the same signature are independent. The key must be non-nil and comparable.
func (c *Container) RegisterKeyed(key any, factory any) *Registration {
	return c.register(key, true, factory)
}

func (c *Container) register(key any, keyed bool, factory any) *Registration {
	if c.core.disposed.Load() {
		panic(disposedError("register"))
	}
	info, err := analyzeFactory(factory)
	if err != nil {
		panic(err)
	}
	sk, err := makeKey(info.shape.serviceType, info.shape.argTypes, key, keyed)
	if err != nil {
		panic(err)
	}

	reg := newRegistration(c.core, sk, info)
	if _, replaced := c.core.registry.Swap(sk, reg); replaced {
		logger.Debug("replaced registration", "service", sk.String())
	}
	return &Registration{reg: reg}
}

func makeKey(service reflect.Type, args []reflect.Type, key any, keyed bool) (serviceKey, error) {
	if keyed {
		return newKeyedServiceKey(service, args, key)
	}
	return newServiceKey(service, args)
}

// lookup walks from core up through its ancestors for a registration of key.
func (core *containerCore) lookup(key serviceKey) *registration {
	for cur := core; cur != nil; cur = cur.parent {
		if v, ok := cur.registry.Load(key); ok {
			return v.(*registration)
		}
	}
	return nil
}

// resolveKey is the single resolution algorithm behind every typed helper. The
// boolean result reports whether a registration was found; it is only false when
// required is not set.
func (c *Container) resolveKey(key serviceKey, args []reflect.Value, required bool) (any, bool, error) {
	if c.core.disposed.Load() {
		return nil, false, disposedError("resolve " + key.String())
	}

	found := c.core.lookup(key)
	if found == nil {
		if !required {
			return nil, false, nil
		}
		err := newResolutionError(ErrNotRegistered, key, nil)
		err.Status = c.Status()
		return nil, false, err
	}

	reg, save := found.reuseScope().prepare(found, c.core)
	if v, ok := reg.cached(); ok {
		return v, true, nil
	}

	v, err := c.invoke(reg, args)
	if err != nil {
		return nil, false, err
	}
	if !save {
		return v, true, nil
	}

	actual, lost := reg.store(v)
	if lost && !sameInstance(actual, v) {
		// Another chain finished first; its instance is the one everybody sees.
		logger.Debug("discarding duplicate instance", "service", key.String())
		releaseInstance(reg, v)
	}
	if reg.owner.disposed.Load() {
		if inst, hook, ok := reg.takeForDisposal(); ok {
			_ = disposeInstance(reg.key, inst, hook)
		}
		return nil, false, disposedError("resolve " + key.String())
	}
	return actual, true, nil
}

// invoke calls the factory of reg on the resolution chain of c.
func (c *Container) invoke(reg *registration, args []reflect.Value) (result any, err error) {
	n := reg.inFlight.Add(1)
	defer reg.inFlight.Add(-1)
	if limit := RecursionLimit; limit > 0 && int(n) > limit {
		logger.Warn("resolution limit exceeded", "service", reg.key.String(), "limit", limit)
		rerr := newResolutionError(ErrRecursiveRegistration, reg.key, nil)
		rerr.Status = fmt.Sprintf("more than %d constructions in flight", limit)
		return nil, rerr
	}

	ctx, exit, err := enterResolution(c.ctx, reg.key)
	if err != nil {
		return nil, err
	}
	defer exit()

	if EnableTiming == TimingFactories {
		timingCtx, complete := timing.Start(ctx, reg.key.String())
		defer complete()
		ctx = timingCtx
	}

	defer func() {
		if p := recover(); p != nil {
			perr, ok := p.(error)
			if !ok || !isContainerError(perr) {
				panic(p)
			}
			result, err = nil, factoryError(reg.key, perr)
		}
	}()

	result, err = reg.factory.call(&Container{core: c.core, ctx: ctx}, args)
	if err != nil {
		return nil, factoryError(reg.key, err)
	}
	return result, nil
}

// factoryError wraps a failure raised by a factory. Recursion errors pass through
// untouched so the caller sees the cycle itself.
func factoryError(key serviceKey, err error) error {
	var re *ResolutionError
	if errors.As(err, &re) && re.Kind == ErrRecursiveRegistration {
		return err
	}
	return newResolutionError(ErrFactoryFailed, key, err)
}

func sameInstance(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) || !reflect.TypeOf(a).Comparable() {
		return false
	}
	return a == b
}

// releaseInstance disposes an instance that was produced but never cached.
func releaseInstance(reg *registration, v any) {
	reg.mu.Lock()
	owned, hook := reg.owned, reg.onDispose
	reg.mu.Unlock()
	if !owned {
		return
	}
	if err := disposeInstance(reg.key, v, hook); err != nil {
		logger.Warn("failed to dispose discarded instance", "service", reg.key.String(), "error", err)
	}
}

// Dispose tears the container down: children first, then every cached instance the
// container owns, then the link from its parent. It is idempotent. Failures do not
// stop the cascade; they are returned together.
func (c *Container) Dispose() error {
	core := c.core
	if !core.disposed.CompareAndSwap(false, true) {
		return nil
	}

	var err error
	for _, child := range core.children.snapshot() {
		err = multierr.Append(err, child.handle.Dispose())
	}

	core.registry.Range(func(_, value any) bool {
		reg := value.(*registration)
		inst, hook, ok := reg.takeForDisposal()
		if !ok {
			return true
		}
		if derr := disposeInstance(reg.key, inst, hook); derr != nil {
			logger.Warn("failed to dispose service", "service", reg.key.String(), "error", derr)
			err = multierr.Append(err, derr)
		}
		return true
	})

	if core.parent != nil {
		core.parent.children.remove(core)
	}
	return err
}

// Close disposes the container, making it an io.Closer.
func (c *Container) Close() error {
	return c.Dispose()
}

// Disposed reports whether Dispose has been called.
func (c *Container) Disposed() bool {
	return c.core.disposed.Load()
}

// Scope returns the scope token the container was created with.
func (c *Container) Scope() any {
	return c.core.scope
}

// Parent returns the container c was created from, or nil for a root container.
func (c *Container) Parent() *Container {
	if c.core.parent == nil {
		return nil
	}
	return c.core.parent.handle
}

// Children returns a snapshot of the live child containers in creation order.
func (c *Container) Children() []*Container {
	cores := c.core.children.snapshot()
	out := make([]*Container, len(cores))
	for i, cc := range cores {
		out[i] = cc.handle
	}
	return out
}

// Context returns the context of the resolution chain this handle belongs to.
// Inside a factory it carries the chain and, when enabled, the timing span.
func (c *Container) Context() context.Context {
	return c.ctx
}

// Same reports whether two handles refer to the same container.
func (c *Container) Same(other *Container) bool {
	return other != nil && c.core == other.core
}
