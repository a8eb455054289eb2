package param

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Node is a named point in a parameter tree: it exposes zero or more
// Handles (its own leaf parameters) and zero or more named child Nodes
// (e.g. a Pipeline node with one child Node per Stage). Registries key
// by string, never by owning reference, so the tree never needs a
// parent pointer (Design Notes §9 "cyclic references").
type Node struct {
	name string
	kind Kind

	mu       sync.RWMutex
	params   map[string]Handle
	children map[string]*Node
	locked   bool
}

// NewNode returns an empty Node named name of the given Kind.
func NewNode(name string, kind Kind) *Node {
	return &Node{
		name:     name,
		kind:     kind,
		params:   make(map[string]Handle),
		children: make(map[string]*Node),
	}
}

// Name returns n's name.
func (n *Node) Name() string { return n.name }

// Kind returns n's Kind.
func (n *Node) Kind() Kind { return n.kind }

// Expose registers h under its own name, replacing any previous
// parameter registered under that name.
func (n *Node) Expose(h Handle) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.params[h.Name()] = h
}

// AddChild registers c as a child node under its own name, replacing
// any previous child registered under that name.
func (n *Node) AddChild(c *Node) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.children[c.Name()] = c
}

// Param returns the Handle registered under name, if any.
func (n *Node) Param(name string) (Handle, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	h, ok := n.params[name]
	return h, ok
}

// Child returns the child Node registered under name, if any.
func (n *Node) Child(name string) (*Node, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	c, ok := n.children[name]
	return c, ok
}

// Params returns n's own parameter handles, ordered by name for stable
// output (e.g. when serialised by an API handler).
func (n *Node) Params() []Handle {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]Handle, 0, len(n.params))
	for _, h := range n.params {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Children returns n's child nodes, ordered by name.
func (n *Node) Children() []*Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Lock commits n's configuration and recurses into every child: every
// Configurable parameter becomes read-only and every Callable-policy
// parameter becomes eligible to be set. This is what lets a Pipeline's
// `running` transition to true (§142 "a lock action freezes CONFIGURABLE
// parameters so running can go true").
func (n *Node) Lock() {
	n.mu.Lock()
	n.locked = true
	params := make([]Handle, 0, len(n.params))
	for _, h := range n.params {
		params = append(params, h)
	}
	children := make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		children = append(children, c)
	}
	n.mu.Unlock()

	for _, h := range params {
		h.Lock()
	}
	for _, c := range children {
		c.Lock()
	}
}

// Locked reports whether Lock has been called on n.
func (n *Node) Locked() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.locked
}

// Resolve walks a dotted path (e.g. "detector.threshold") from n,
// descending through child nodes for every segment but the last, which
// names a parameter on the final node.
func (n *Node) Resolve(path string) (Handle, error) {
	segs := strings.Split(path, ".")
	cur := n
	for _, s := range segs[:len(segs)-1] {
		child, ok := cur.Child(s)
		if !ok {
			return nil, fmt.Errorf("param: no such node %q in path %q", s, path)
		}
		cur = child
	}
	last := segs[len(segs)-1]
	h, ok := cur.Param(last)
	if !ok {
		return nil, fmt.Errorf("param: no such parameter %q in path %q", last, path)
	}
	return h, nil
}

// Get resolves path and returns its current value.
func (n *Node) Get(path string) (any, error) {
	h, err := n.Resolve(path)
	if err != nil {
		return nil, err
	}
	return h.Value(), nil
}

// Set resolves path and applies v to it.
func (n *Node) Set(path string, v any) error {
	h, err := n.Resolve(path)
	if err != nil {
		return err
	}
	return h.SetAny(v)
}

// Walk visits every parameter in the tree rooted at n, depth-first,
// passing each one's dotted path. Stops early if visit returns false.
func (n *Node) Walk(prefix string, visit func(path string, h Handle) bool) bool {
	for _, h := range n.Params() {
		path := h.Name()
		if prefix != "" {
			path = prefix + "." + path
		}
		if !visit(path, h) {
			return false
		}
	}
	for _, c := range n.Children() {
		path := c.name
		if prefix != "" {
			path = prefix + "." + path
		}
		if !c.Walk(path, visit) {
			return false
		}
	}
	return true
}
