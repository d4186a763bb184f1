package ctxioc

import (
	"fmt"

	"github.com/gburgyan/go-ctxioc/internal/logger"
)

// reuseScope decides, for a registration found while resolving from a container,
// which registration object actually serves the request and whether the produced
// instance may be cached on it.
type reuseScope interface {
	prepare(reg *registration, resolving *containerCore) (*registration, bool)
	String() string
}

// reuseNone never caches; every resolution calls the factory.
type reuseNone struct{}

func (reuseNone) prepare(reg *registration, _ *containerCore) (*registration, bool) {
	return reg, false
}

func (reuseNone) String() string { return "none" }

// reuseHierarchy caches once in the registering container and shares the instance
// with every descendant.
type reuseHierarchy struct{}

func (reuseHierarchy) prepare(reg *registration, _ *containerCore) (*registration, bool) {
	return reg, true
}

func (reuseHierarchy) String() string { return "hierarchy" }

// reuseContainer caches one instance per resolving container.
type reuseContainer struct{}

func (reuseContainer) prepare(reg *registration, resolving *containerCore) (*registration, bool) {
	return reg.cloneInto(resolving), true
}

func (reuseContainer) String() string { return "container" }

// reuseCustom caches one instance per container whose scope token matches.
type reuseCustom struct {
	scope any
}

func (r reuseCustom) prepare(reg *registration, resolving *containerCore) (*registration, bool) {
	passedOwner := false
	for cur := resolving; cur != nil; cur = cur.parent {
		if cur == reg.owner {
			passedOwner = true
		}
		if cur.scope != r.scope {
			continue
		}
		if passedOwner {
			// The matching boundary encloses the registering container, so the
			// registration itself is the one to share.
			return reg, true
		}
		return reg.cloneInto(cur), true
	}

	logger.Debug("no container matches reuse scope, instance will not be cached",
		"service", reg.key.String(),
		"scope", fmt.Sprintf("%v", r.scope))
	return reg, false
}

func (r reuseCustom) String() string {
	return fmt.Sprintf("scope(%v)", r.scope)
}
