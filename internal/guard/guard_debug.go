//go:build speedy_debug

package guard

import (
	"fmt"
	"sync/atomic"
)

// guardImpl is the speedy_debug implementation: a single atomic slot
// holding the name of whichever method is currently active, nil when idle.
type guardImpl struct {
	active atomic.Pointer[string]
}

func (g *guardImpl) enter(method string) func() {
	m := method
	if prev := g.active.Swap(&m); prev != nil {
		panic(fmt.Sprintf("guard: %s called while %s is still active on the same stream (streams are not re-entrant, see spec.md §5)", method, *prev))
	}
	return func() { g.active.Store(nil) }
}
