package ctxioc

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// RegistrationInfo is a point-in-time description of one registration, used by
// diagnostics and visitors.
type RegistrationInfo struct {
	ServiceType reflect.Type
	ArgTypes    []reflect.Type
	// Key is nil for unkeyed registrations.
	Key      any
	Reuse    string
	Owned    bool
	Resolved bool
}

func (ri RegistrationInfo) String() string {
	b := strings.Builder{}
	b.WriteString(fmt.Sprintf("%v(", ri.ServiceType))
	for i, t := range ri.ArgTypes {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.String())
	}
	b.WriteString(")")
	if ri.Key != nil {
		b.WriteString(fmt.Sprintf(" [key=%v]", ri.Key))
	}
	ownership := "external"
	if ri.Owned {
		ownership = "owned"
	}
	state := "unresolved"
	if ri.Resolved {
		state = "resolved"
	}
	b.WriteString(fmt.Sprintf(" - reuse: %s - %s - %s", ri.Reuse, ownership, state))
	return b.String()
}

// Registrations returns the registrations held directly by c, sorted by their
// description. Clones created for container and custom reuse show up in the
// container that caches them.
func (c *Container) Registrations() []RegistrationInfo {
	var infos []RegistrationInfo
	c.core.registry.Range(func(_, value any) bool {
		reg := value.(*registration)
		reg.mu.Lock()
		info := RegistrationInfo{
			ServiceType: reg.key.service,
			ArgTypes:    reg.key.argTypes(),
			Reuse:       reg.reuse.String(),
			Owned:       reg.owned,
			Resolved:    reg.hasService,
		}
		reg.mu.Unlock()
		if reg.key.keyed() {
			info.Key = reg.key.key
		}
		infos = append(infos, info)
		return true
	})
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].String() < infos[j].String()
	})
	return infos
}

// Status is a diagnostic tool that returns a string describing the state of the
// container and its ancestors. Each registration is listed with its reuse scope,
// ownership and whether an instance is cached.
func (c *Container) Status() string {
	result := strings.Builder{}
	result.WriteString(fmt.Sprintf("container scope: %v", c.core.scope))
	if c.core.disposed.Load() {
		result.WriteString(" (disposed)")
	}
	for _, info := range c.Registrations() {
		result.WriteString("\n")
		result.WriteString(info.String())
	}

	if parent := c.Parent(); parent != nil {
		result.WriteString("\n----\nparent container:\n")
		result.WriteString(parent.Status())
	}

	return result.String()
}
