package ctxioc

import (
	"context"
	"strings"
	"sync/atomic"
)

type cycle int

const cycleKey cycle = 0

type unlocker func()

// resolutionFrame is one service being constructed on a resolution chain. Frames
// form an immutable list through the chain's context; a frame is only considered
// while active, so container handles that outlive their factory call do not report
// stale cycles.
type resolutionFrame struct {
	key    serviceKey
	parent *resolutionFrame
	active atomic.Bool
}

// enterResolution pushes key onto the resolution chain carried by ctx. It fails if
// key is already being constructed on the same chain. The returned unlocker pops it.
func enterResolution(ctx context.Context, key serviceKey) (context.Context, unlocker, error) {
	top, _ := ctx.Value(cycleKey).(*resolutionFrame)

	for f := top; f != nil; f = f.parent {
		if f.active.Load() && f.key == key {
			err := newResolutionError(ErrRecursiveRegistration, key, nil)
			err.Status = formatPath(append(resolutionPath(ctx), key))
			return nil, func() {}, err
		}
	}

	frame := &resolutionFrame{key: key, parent: top}
	frame.active.Store(true)

	return context.WithValue(ctx, cycleKey, frame), func() {
		frame.active.Store(false)
	}, nil
}

// resolutionPath returns the keys currently being constructed on the chain, outermost
// first.
func resolutionPath(ctx context.Context) []serviceKey {
	var path []serviceKey
	top, _ := ctx.Value(cycleKey).(*resolutionFrame)
	for f := top; f != nil; f = f.parent {
		if f.active.Load() {
			path = append([]serviceKey{f.key}, path...)
		}
	}
	return path
}

func formatPath(path []serviceKey) string {
	parts := make([]string, len(path))
	for i, k := range path {
		parts[i] = k.String()
	}
	return "resolution path: " + strings.Join(parts, " -> ")
}
