package expr

// Object is a keyed value container that expressions read from and assign into.
type Object interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// Tracker is notified of every (object, key) read during a tracked evaluation.
type Tracker interface {
	Observe(obj Object, key string)
}

// Scope is the evaluation context of an expression: a binding context plus the
// chain of parent scopes reachable with $parent.
type Scope struct {
	Context Object
	Parent  *Scope
}

// NewScope creates a root scope over ctx.
func NewScope(ctx Object) *Scope {
	return &Scope{Context: ctx}
}

// Child creates a scope over ctx whose parent is s.
func (s *Scope) Child(ctx Object) *Scope {
	return &Scope{Context: ctx, Parent: s}
}

// lookup finds the context that owns name, starting ancestor hops above s.
// Without an explicit hop, the nearest context declaring name wins; if none
// does, the starting context is used so assignments create the key there.
func (s *Scope) lookup(name string, ancestor int) Object {
	cur := s
	for i := 0; i < ancestor && cur != nil; i++ {
		cur = cur.Parent
	}
	if cur == nil {
		return nil
	}
	if ancestor > 0 {
		return cur.Context
	}
	for probe := cur; probe != nil; probe = probe.Parent {
		if probe.Context == nil {
			continue
		}
		if _, ok := probe.Context.Get(name); ok {
			return probe.Context
		}
	}
	return cur.Context
}

// MapObject adapts a plain map to Object. It is not observable.
type MapObject map[string]any

func (m MapObject) Get(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

func (m MapObject) Set(key string, value any) {
	m[key] = value
}
