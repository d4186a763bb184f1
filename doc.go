// Package ctxioc is a dependency injection container built around explicitly
// registered factories and a tree of containers.
//
// A factory is a plain function whose result is the service and whose parameters,
// after an optional leading *Container, are the arguments a caller supplies at
// resolution time:
//
//	c := ctxioc.New()
//	c.Register(func(c *ctxioc.Container) *Database { return openDatabase() })
//	c.Register(func(c *ctxioc.Container, name string) (*Repo, error) {
//	    db, err := ctxioc.Resolve[*Database](c)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return &Repo{DB: db, Name: name}, nil
//	})
//
//	repo, err := ctxioc.Resolve[*Repo](c, "users")
//
// Registrations are identified by the service type, the ordered argument types and
// an optional key. Lookups start in the resolving container and walk up through its
// parents.
//
// Each registration has a reuse scope deciding where its instance is cached:
// ReusedWithinHierarchy (the default) caches once in the registering container and
// shares with all descendants, ReusedWithinContainer caches per resolving container,
// ReusedWithin(token) caches per container whose scope token matches, and
// ReusedWithinNone never caches.
//
// Disposing a container disposes its children first and then every cached instance
// it owns that implements io.Closer or Disposer. OwnedByExternal opts a
// registration out.
//
// A factory that, directly or through other factories, resolves its own service
// fails with ErrRecursiveRegistration. Detection follows the resolution chain
// through the *Container handle passed to factories, so factories should resolve
// their dependencies through that handle.
package ctxioc
