package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/optharness/internal/ir"
)

// Visibility controls whether the invoker may call a test.
type Visibility int

const (
	Public Visibility = iota
	// Private tests are listed but refused at invocation time.
	Private
)

func (v Visibility) String() string {
	if v == Private {
		return "private"
	}
	return "public"
}

// Descriptor identifies one discoverable test operation.
// Descriptors are immutable once registered.
type Descriptor struct {
	Name       string
	Group      string
	Kinds      []ir.Kind
	Visibility Visibility
}

// Arity is the number of declared parameters.
func (d Descriptor) Arity() int {
	return len(d.Kinds)
}

// Signature renders the descriptor as name(kind, ...), for diagnostics.
func (d Descriptor) Signature() string {
	parts := make([]string, len(d.Kinds))
	for i, k := range d.Kinds {
		parts[i] = k.String()
	}
	return fmt.Sprintf("%s(%s)", d.Name, strings.Join(parts, ", "))
}

// Invocable is the capability every registered test provides.
type Invocable interface {
	Run(ctx context.Context, args []ir.Value) (ir.Value, error)
}

// InvocableFunc adapts a function to Invocable.
type InvocableFunc func(ctx context.Context, args []ir.Value) (ir.Value, error)

// Run calls f.
func (f InvocableFunc) Run(ctx context.Context, args []ir.Value) (ir.Value, error) {
	return f(ctx, args)
}

// Factory produces a fresh Invocable for each invocation so no state
// survives from one test to the next.
type Factory func() Invocable

// Static wraps a stateless function as a Factory.
func Static(fn InvocableFunc) Factory {
	return func() Invocable { return fn }
}

// Method builds a Factory from a method expression. Each invocation gets a
// new receiver from newRecv, so suites can keep per-test state in fields.
//
//	catalog.Method(newSuite, (*suite).testDivide)
func Method[S any](newRecv func() S, method func(S, context.Context, []ir.Value) (ir.Value, error)) Factory {
	return func() Invocable {
		return bound[S]{recv: newRecv(), method: method}
	}
}

type bound[S any] struct {
	recv   S
	method func(S, context.Context, []ir.Value) (ir.Value, error)
}

func (b bound[S]) Run(ctx context.Context, args []ir.Value) (ir.Value, error) {
	return b.method(b.recv, ctx, args)
}

// Entry pairs a descriptor with its factory.
type Entry struct {
	Descriptor Descriptor
	New        Factory
}

// ErrDuplicate is returned when a name is registered twice.
var ErrDuplicate = errors.New("duplicate test name")

// Registry is the explicit, ordered set of tests for one suite.
// A Registry is built once at startup and only read afterwards;
// it is not safe for concurrent registration.
type Registry struct {
	group   string
	entries []Entry
	index   map[string]int
}

// NewRegistry creates an empty registry. group is stamped on descriptors
// registered without one.
func NewRegistry(group string) *Registry {
	return &Registry{
		group: group,
		index: make(map[string]int),
	}
}

// Group returns the registry's default group name.
func (r *Registry) Group() string {
	return r.group
}

// Register adds a test. Registration order is the discovery order used to
// break comparator ties.
func (r *Registry) Register(desc Descriptor, factory Factory) error {
	if desc.Name == "" {
		return fmt.Errorf("register: name is required")
	}
	if factory == nil {
		return fmt.Errorf("register %s: factory is required", desc.Name)
	}
	if _, exists := r.index[desc.Name]; exists {
		return fmt.Errorf("register %s: %w", desc.Name, ErrDuplicate)
	}
	if desc.Group == "" {
		desc.Group = r.group
	}
	desc.Kinds = slices.Clone(desc.Kinds)

	r.index[desc.Name] = len(r.entries)
	r.entries = append(r.entries, Entry{Descriptor: desc, New: factory})
	return nil
}

// MustRegister is Register for static fixture tables; it panics on error.
func (r *Registry) MustRegister(desc Descriptor, factory Factory) {
	if err := r.Register(desc, factory); err != nil {
		panic(err)
	}
}

// Lookup returns the entry registered under name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	i, ok := r.index[name]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Len returns the number of registered tests, eligible or not.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Names returns every registered name in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Descriptor.Name
	}
	return names
}

// DiscoverOptions selects and orders descriptors.
type DiscoverOptions struct {
	// Selector decides eligibility. nil selects every test.
	Selector Selector

	// Comparator orders names. nil means CaseSensitive.
	Comparator Comparator
}

// Discover returns the eligible descriptors in comparator order.
// An empty result is not an error.
func (r *Registry) Discover(opts DiscoverOptions) []Descriptor {
	sel := opts.Selector
	if sel == nil {
		sel = All{}
	}
	cmp := opts.Comparator
	if cmp == nil {
		cmp = CaseSensitive
	}

	descs := make([]Descriptor, 0, len(r.entries))
	for _, e := range r.entries {
		if sel.Eligible(e.Descriptor.Name) {
			descs = append(descs, e.Descriptor)
		}
	}
	insertionSort(descs, cmp)
	return descs
}
