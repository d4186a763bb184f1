package ctxioc

import (
	"fmt"
	"io"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Disposer is implemented by services that release resources without reporting an
// error. Services implementing io.Closer are closed instead.
type Disposer interface {
	Dispose()
}

// registration binds a factory to its reuse and ownership policy and holds the
// cached instance, if any. A cached instance is never replaced once set.
type registration struct {
	key     serviceKey
	factory *factoryInfo
	owner   *containerCore

	// inFlight counts factory calls currently running for this registration.
	inFlight atomic.Int32

	mu         sync.Mutex
	service    any
	hasService bool
	reuse      reuseScope
	owned      bool
	onDispose  func(any) error
}

func newRegistration(owner *containerCore, key serviceKey, factory *factoryInfo) *registration {
	return &registration{
		key:     key,
		factory: factory,
		owner:   owner,
		reuse:   reuseHierarchy{},
		owned:   true,
	}
}

// newInstanceRegistration makes a registration that is resolved from the start and
// never disposed by its container.
func newInstanceRegistration(owner *containerCore, key serviceKey, instance any) *registration {
	return &registration{
		key:        key,
		owner:      owner,
		service:    instance,
		hasService: true,
		reuse:      reuseHierarchy{},
	}
}

func (r *registration) reuseScope() reuseScope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reuse
}

func (r *registration) cached() (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.service, r.hasService
}

// store caches v unless an instance is already present. It returns the instance
// callers should observe and whether v lost to an earlier store.
func (r *registration) store(v any) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hasService {
		return r.service, true
	}
	r.service = v
	r.hasService = true
	return v, false
}

// cloneInto returns the registration serving target: r itself when target owns it,
// otherwise a fresh uncached copy stored in target's registry.
func (r *registration) cloneInto(target *containerCore) *registration {
	if target == r.owner {
		return r
	}
	r.mu.Lock()
	c := &registration{
		key:       r.key,
		factory:   r.factory,
		owner:     target,
		reuse:     r.reuse,
		owned:     r.owned,
		onDispose: r.onDispose,
	}
	r.mu.Unlock()
	actual, _ := target.registry.LoadOrStore(r.key, c)
	return actual.(*registration)
}

// takeForDisposal empties the cache slot and returns the instance if the container
// is responsible for disposing it.
func (r *registration) takeForDisposal() (any, func(any) error, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hasService || !r.owned {
		return nil, nil, false
	}
	v := r.service
	r.service = nil
	r.hasService = false
	return v, r.onDispose, true
}

// disposeInstance releases a service instance, turning panics into errors.
func disposeInstance(key serviceKey, v any, hook func(any) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic disposing %v: %v", key, p)
		}
	}()

	if hook != nil {
		return errors.Wrapf(hook(v), "disposing %v", key)
	}
	switch d := v.(type) {
	case io.Closer:
		return errors.Wrapf(d.Close(), "closing %v", key)
	case Disposer:
		d.Dispose()
	}
	return nil
}

// Registration is the fluent handle returned by Register. Configure it immediately
// after registering, before the service is first resolved; later changes apply to
// whatever has not been cached yet.
type Registration struct {
	reg *registration
}

// Ownership is returned by the reuse setters to choose who disposes the service.
type Ownership struct {
	reg *registration
}

func (r *Registration) setReuse(scope reuseScope) *Ownership {
	r.reg.mu.Lock()
	r.reg.reuse = scope
	r.reg.mu.Unlock()
	return &Ownership{reg: r.reg}
}

// ReusedWithinNone makes every resolution call the factory.
func (r *Registration) ReusedWithinNone() *Ownership {
	return r.setReuse(reuseNone{})
}

// ReusedWithinContainer caches one instance in each container the service is
// resolved from.
func (r *Registration) ReusedWithinContainer() *Ownership {
	return r.setReuse(reuseContainer{})
}

// ReusedWithinHierarchy caches a single instance in the registering container and
// shares it with all descendants. This is the default.
func (r *Registration) ReusedWithinHierarchy() *Ownership {
	return r.setReuse(reuseHierarchy{})
}

// ReusedWithin caches one instance in the nearest container, starting from the
// resolving one and walking up, whose scope token equals scope. When no such
// container exists the resolution is not cached.
func (r *Registration) ReusedWithin(scope any) *Ownership {
	if err := checkScopeToken(scope); err != nil {
		panic(err)
	}
	return r.setReuse(reuseCustom{scope: scope})
}

// OwnedByContainer lets the container dispose the cached instance. This is the
// default.
func (r *Registration) OwnedByContainer() *Registration {
	setOwned(r.reg, true)
	return r
}

// OwnedByExternal stops the container from disposing the cached instance.
func (r *Registration) OwnedByExternal() *Registration {
	setOwned(r.reg, false)
	return r
}

// OnDispose replaces the default io.Closer / Disposer handling with fn for
// instances of this registration owned by the container.
func (r *Registration) OnDispose(fn func(service any) error) *Registration {
	if fn == nil {
		panic(invalidArgument("nil dispose function for %v", r.reg.key))
	}
	r.reg.mu.Lock()
	r.reg.onDispose = fn
	r.reg.mu.Unlock()
	return r
}

// ServiceType is the type produced by the registered factory.
func (r *Registration) ServiceType() reflect.Type {
	return r.reg.key.service
}

// OwnedByContainer lets the container dispose the cached instance.
func (o *Ownership) OwnedByContainer() *Registration {
	setOwned(o.reg, true)
	return &Registration{reg: o.reg}
}

// OwnedByExternal stops the container from disposing the cached instance.
func (o *Ownership) OwnedByExternal() *Registration {
	setOwned(o.reg, false)
	return &Registration{reg: o.reg}
}

func setOwned(reg *registration, owned bool) {
	reg.mu.Lock()
	reg.owned = owned
	reg.mu.Unlock()
}
