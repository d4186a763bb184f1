package ctxioc

import "sync"

// containerCollection tracks the children of a container in creation order.
type containerCollection struct {
	mu    sync.Mutex
	items []*containerCore
}

func (cc *containerCollection) add(c *containerCore) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.items = append(cc.items, c)
}

func (cc *containerCollection) remove(c *containerCore) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	for i, item := range cc.items {
		if item == c {
			cc.items = append(cc.items[:i:i], cc.items[i+1:]...)
			return
		}
	}
}

// snapshot returns a point-in-time copy safe to iterate while children come and go.
func (cc *containerCollection) snapshot() []*containerCore {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	out := make([]*containerCore, len(cc.items))
	copy(out, cc.items)
	return out
}
