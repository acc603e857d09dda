// Package guard provides an optional reentrancy check for Stream methods.
//
// spec.md §5 makes a Stream's single-threaded-per-instance contract a
// caller obligation, not something the engine enforces at runtime in the
// general case -- cheap, synchronous operations shouldn't pay for a mutex
// on every call. Built with the speedy_debug tag, every exported Stream
// method is bracketed by Enter/Leave and a violation panics immediately
// with the offending method names, which is far more useful during
// development and testing than the data race or corrupted ring state a
// violation would otherwise produce silently in production.
package guard

// Guard detects concurrent or reentrant use of a single owner (normally a
// Stream). Its zero value is ready to use.
type Guard struct {
	impl guardImpl
}

// Enter marks method as active on this Guard. It returns a Leave function
// that must be deferred immediately. In debug builds (speedy_debug tag),
// Enter panics if another call is already active. In release builds it is
// a no-op.
func (g *Guard) Enter(method string) (leave func()) {
	return g.impl.enter(method)
}
