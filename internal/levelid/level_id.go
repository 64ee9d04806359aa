// Package levelid implements the immutable hierarchical identifier that
// every ProductStore in meld is keyed by: a path of (index, level-name)
// pairs rooted at the empty "job" level.
package levelid

import (
	"strconv"
	"strings"
)

// Pair is one (index, level-name) step in a LevelId's path.
type Pair struct {
	Index int
	Name  string
}

// ID is an immutable path rooted at the job level. The zero value is the
// root ("job") identifier.
type ID struct {
	path []Pair
	key  string
}

// Root returns the identifier for the job level.
func Root() ID {
	return ID{}
}

// Depth returns the number of pairs in the path; zero at root.
func (id ID) Depth() int {
	return len(id.path)
}

// LevelName returns the name at the deepest pair, or "job" at root.
func (id ID) LevelName() string {
	if len(id.path) == 0 {
		return "job"
	}
	return id.path[len(id.path)-1].Name
}

// Number returns the index at the deepest pair, or zero at root.
func (id ID) Number() int {
	if len(id.path) == 0 {
		return 0
	}
	return id.path[len(id.path)-1].Index
}

// Parent returns the identifier one level up and true, or the zero value
// and false if called at root.
func (id ID) Parent() (ID, bool) {
	if len(id.path) == 0 {
		return ID{}, false
	}
	return newFromPath(id.path[:len(id.path)-1]), true
}

// MakeChild returns a new identifier one level deeper, with the given index
// and level name. parent(MakeChild(n, L)) always equals the receiver.
func (id ID) MakeChild(index int, name string) ID {
	path := make([]Pair, len(id.path)+1)
	copy(path, id.path)
	path[len(id.path)] = Pair{Index: index, Name: name}
	return newFromPath(path)
}

// Ancestor walks up the parent chain and returns the first ancestor (which
// may be the receiver itself) whose LevelName equals levelName. The second
// return value is false if no such ancestor exists.
func Ancestor(id ID, levelName string) (ID, bool) {
	cur := id
	for {
		if cur.LevelName() == levelName {
			return cur, true
		}
		p, ok := cur.Parent()
		if !ok {
			return ID{}, false
		}
		cur = p
	}
}

// Equal reports whether two identifiers have identical paths.
func (id ID) Equal(other ID) bool {
	return id.key == other.key
}

// Key returns a stable string suitable as a map key; equal identifiers
// always produce equal keys.
func (id ID) Key() string {
	return id.key
}

// Path returns a copy of the underlying pairs, deepest last.
func (id ID) Path() []Pair {
	out := make([]Pair, len(id.path))
	copy(out, id.path)
	return out
}

// String renders the identifier as a "run:0/event:3"-style path ("job" at
// root), mostly for logging.
func (id ID) String() string {
	if len(id.path) == 0 {
		return "job"
	}
	var b strings.Builder
	for i, p := range id.path {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(p.Name)
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(p.Index))
	}
	return b.String()
}

func newFromPath(path []Pair) ID {
	var b strings.Builder
	for i, p := range path {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(p.Name)
		b.WriteByte('\x1e')
		b.WriteString(strconv.Itoa(p.Index))
	}
	return ID{path: path, key: b.String()}
}
