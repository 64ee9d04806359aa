package engine

import "github.com/puzpuzpuz/xsync/v3"

// unfoldArena holds the one stateful object an unfold node constructs per
// identifier, lazily on first arrival and cleared once that identifier's
// expansion completes. Two objects never coexist for the same key:
// xsync.MapOf's LoadOrCompute gives that compare-and-insert for free.
type unfoldArena struct {
	states *xsync.MapOf[string, any]
}

func newUnfoldArena() *unfoldArena {
	return &unfoldArena{states: xsync.NewMapOf[string, any]()}
}

// getOrCreate returns the stateful object for key, constructing it via ctor
// at most once.
func (a *unfoldArena) getOrCreate(key string, ctor func() (any, error)) (any, error) {
	var ctorErr error
	v, _ := a.states.LoadOrCompute(key, func() any {
		s, err := ctor()
		if err != nil {
			ctorErr = err
			return nil
		}
		return s
	})
	if ctorErr != nil {
		a.states.Delete(key)
		return nil, ctorErr
	}
	return v, nil
}

// evict clears key's object once its expansion has completed.
func (a *unfoldArena) evict(key string) {
	a.states.Delete(key)
}
