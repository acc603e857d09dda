//go:build !speedy_debug

package guard

// guardImpl is the release implementation: the reentrancy contract is a
// caller obligation (spec.md §5), so there is nothing to track here.
type guardImpl struct{}

func (g *guardImpl) enter(method string) func() {
	return func() {}
}
