// Package param implements the parameter-tree configuration surface
// described in §142 and Design Notes §9: every component exposes a tree
// of named, trait-tagged parameters rather than ad hoc config fields.
// Modelled as composition, not inheritance — a Node holds an ordered set
// of Handles (leaves) and named child Nodes.
package param

import "fmt"

// Trait is a parameter's access class.
type Trait int

const (
	// Configurable parameters may be set freely before the owning tree
	// is locked, and are frozen (read-only) afterwards.
	Configurable Trait = iota
	// Settable parameters may be changed at any time, locked or not.
	Settable
	// Locked parameters are fixed at construction and never change.
	Locked
)

func (t Trait) String() string {
	switch t {
	case Configurable:
		return "configurable"
	case Settable:
		return "settable"
	case Locked:
		return "locked"
	default:
		return "unknown"
	}
}

// UpdatePolicy controls when a Set actually takes effect, orthogonal to
// Trait: Trait says who may ever change a value, UpdatePolicy says when
// a permitted change is allowed to land.
type UpdatePolicy int

const (
	// Immediate applies a Set call right away.
	Immediate UpdatePolicy = iota
	// Callable only accepts a Set while the parameter's tree is locked
	// (the original's use case: a value that is meaningless to change
	// before the pipeline it belongs to has committed its shape).
	Callable
	// ImmutablePolicy rejects every Set once the first Lock has run,
	// regardless of Trait.
	ImmutablePolicy
)

// Kind tags what a tree node represents, for introspection by API
// handlers walking a tree generically.
type Kind int

const (
	KindParameter Kind = iota
	KindEngine
	KindStage
	KindPipeline
	KindLeaf
)

// Handle is the type-erased view of a Parameter[T], letting a Node hold
// parameters of differing value types in one registry.
type Handle interface {
	Name() string
	Trait() Trait
	Kind() Kind
	Lock()
	Locked() bool
	Value() any
	SetAny(v any) error
}

// Validator reports an error if v is not an acceptable value; used for
// range checks, whitelists, and enum-by-name validation.
type Validator[T any] func(v T) error

// Parameter is one named, trait-tagged, optionally-validated value of
// type T, with an optional on-update trigger run after every accepted
// Set.
type Parameter[T any] struct {
	name     string
	trait    Trait
	policy   UpdatePolicy
	validate Validator[T]
	onUpdate func(T)

	value  T
	locked bool
}

// NewParameter returns a Parameter named name, holding initial, with the
// given Trait and UpdatePolicy.
func NewParameter[T any](name string, trait Trait, policy UpdatePolicy, initial T) *Parameter[T] {
	return &Parameter[T]{name: name, trait: trait, policy: policy, value: initial}
}

// Validates installs v as p's validator and returns p, for fluent setup.
func (p *Parameter[T]) Validates(v Validator[T]) *Parameter[T] {
	p.validate = v
	return p
}

// Triggers installs f to run after every value p accepts, and returns p.
func (p *Parameter[T]) Triggers(f func(T)) *Parameter[T] {
	p.onUpdate = f
	return p
}

// Name implements Handle.
func (p *Parameter[T]) Name() string { return p.name }

// Trait implements Handle.
func (p *Parameter[T]) Trait() Trait { return p.trait }

// Kind implements Handle.
func (p *Parameter[T]) Kind() Kind { return KindParameter }

// Lock freezes p: a Configurable parameter rejects any further Set, and
// a Callable-policy parameter becomes eligible to accept one (its whole
// point is to apply only once locked).
func (p *Parameter[T]) Lock() { p.locked = true }

// Locked reports whether Lock has been called.
func (p *Parameter[T]) Locked() bool { return p.locked }

// Get returns p's current value.
func (p *Parameter[T]) Get() T { return p.value }

// Value implements Handle, returning Get's result as an any.
func (p *Parameter[T]) Value() any { return p.value }

// Set validates and applies v, honouring Trait, UpdatePolicy, and
// locking. It is the typed entry point for Go callers holding a
// *Parameter[T] directly (engine code); SetAny is the type-erased
// equivalent for API handlers walking a Node tree by path.
func (p *Parameter[T]) Set(v T) error {
	if p.trait == Locked {
		return fmt.Errorf("param %q: locked trait, cannot be set", p.name)
	}
	switch p.policy {
	case ImmutablePolicy:
		if p.locked {
			return fmt.Errorf("param %q: immutable once locked", p.name)
		}
	case Callable:
		if !p.locked {
			return fmt.Errorf("param %q: callable policy, parameter tree must be locked first", p.name)
		}
	}
	if p.trait == Configurable && p.locked {
		return fmt.Errorf("param %q: configurable trait is read-only once locked", p.name)
	}
	if p.validate != nil {
		if err := p.validate(v); err != nil {
			return fmt.Errorf("param %q: %w", p.name, err)
		}
	}
	p.value = v
	if p.onUpdate != nil {
		p.onUpdate(v)
	}
	return nil
}

// SetAny implements Handle: it type-asserts v to T and delegates to Set.
func (p *Parameter[T]) SetAny(v any) error {
	tv, ok := v.(T)
	if !ok {
		return fmt.Errorf("param %q: value of type %T is not assignable", p.name, v)
	}
	return p.Set(tv)
}
