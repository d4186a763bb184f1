package ctxioc

// Visitor inspects containers without changing them. Visit returns the visitor
// state after seeing c; implementations should return a new value rather than
// mutate the receiver so that a visitor can be reused from any point.
type Visitor[R any] interface {
	Result() R
	Visit(c *Container) Visitor[R]
}

// Accept hands c to v and returns the visitor state afterwards.
func Accept[R any](c *Container, v Visitor[R]) (Visitor[R], error) {
	if err := checkVisit(c, v); err != nil {
		return nil, err
	}
	return v.Visit(c), nil
}

// Walk visits c and then its descendants depth first, in creation order, threading
// the visitor state through every call. Children are snapshotted as the walk
// reaches them; containers disposed by then are skipped.
func Walk[R any](c *Container, v Visitor[R]) (Visitor[R], error) {
	if err := checkVisit(c, v); err != nil {
		return nil, err
	}
	return walk(c, v), nil
}

func walk[R any](c *Container, v Visitor[R]) Visitor[R] {
	v = v.Visit(c)
	for _, child := range c.Children() {
		if child.Disposed() {
			continue
		}
		v = walk(child, v)
	}
	return v
}

func checkVisit[R any](c *Container, v Visitor[R]) error {
	if c == nil {
		return invalidArgument("nil container")
	}
	if v == nil {
		return invalidArgument("nil visitor")
	}
	if c.core.disposed.Load() {
		return disposedError("visit")
	}
	return nil
}

// compositeVisitor broadcasts every visit to its members.
type compositeVisitor[R any] struct {
	visitors []Visitor[R]
}

// Compose combines visitors into one whose result is the members' results in
// order. Visiting returns a new composite; the original keeps its state. Compose
// panics on a nil member.
func Compose[R any](visitors ...Visitor[R]) Visitor[[]R] {
	members := make([]Visitor[R], len(visitors))
	for i, v := range visitors {
		if v == nil {
			panic(invalidArgument("nil visitor at position %d", i))
		}
		members[i] = v
	}
	return compositeVisitor[R]{visitors: members}
}

func (cv compositeVisitor[R]) Result() []R {
	out := make([]R, len(cv.visitors))
	for i, v := range cv.visitors {
		out[i] = v.Result()
	}
	return out
}

func (cv compositeVisitor[R]) Visit(c *Container) Visitor[[]R] {
	next := make([]Visitor[R], len(cv.visitors))
	for i, v := range cv.visitors {
		next[i] = v.Visit(c)
	}
	return compositeVisitor[R]{visitors: next}
}

type containerCounter int

// CountContainers returns a visitor counting the containers it visits.
func CountContainers() Visitor[int] {
	return containerCounter(0)
}

func (n containerCounter) Result() int { return int(n) }

func (n containerCounter) Visit(*Container) Visitor[int] {
	return n + 1
}

type registrationCounter int

// CountRegistrations returns a visitor counting the registrations held by the
// containers it visits, including each container's registration of itself.
func CountRegistrations() Visitor[int] {
	return registrationCounter(0)
}

func (n registrationCounter) Result() int { return int(n) }

func (n registrationCounter) Visit(c *Container) Visitor[int] {
	return n + registrationCounter(len(c.Registrations()))
}
