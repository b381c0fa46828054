// Package probe defines the contract the rewriter relies on for
// star-expansion and broken-import removal (spec.md §4.11), plus the
// null probe every invocation gets by default.
package probe

import "github.com/deshaw/pyflyby/pkg/importset"

// Resolver answers the two semantic questions the core itself never
// performs: what a module exports, and whether an import would
// actually succeed in the intended environment.
type Resolver interface {
	// Exports returns the public names module exposes, or (nil, false)
	// if the probe cannot answer (module not found, import-time error,
	// introspection unsupported).
	Exports(module string) (*importset.Set, bool)

	// Resolves reports whether importing the given fullname (module, or
	// module.member for a from-style import) would succeed.
	Resolves(fullname string) bool
}

// Null is the probe every invocation gets when no runtime-linked
// resolver is configured: Exports always fails and Resolves always
// succeeds, which makes replace_star_imports and remove_broken_imports
// no-ops (spec.md §4.11).
type Null struct{}

// Exports always reports failure.
func (Null) Exports(string) (*importset.Set, bool) { return nil, false }

// Resolves always reports success, since the null probe has no way to
// tell a broken import from a working one and remove_broken_imports
// must never delete an import it cannot actually disprove.
func (Null) Resolves(string) bool { return true }

// Registry looks up a named Resolver, the mechanism config.ProbeRuntime
// uses to select a caller-registered probe by name (spec.md §4.13). A
// caller that links in a real interpreter-backed probe registers it
// here before invoking any rewriter primitive.
type Registry struct {
	resolvers map[string]Resolver
}

// NewRegistry returns an empty Registry pre-seeded with "null".
func NewRegistry() *Registry {
	r := &Registry{resolvers: make(map[string]Resolver)}
	r.Register("null", Null{})
	return r
}

// Register associates name with resolver, overwriting any previous
// registration under the same name.
func (r *Registry) Register(name string, resolver Resolver) {
	r.resolvers[name] = resolver
}

// Lookup returns the resolver registered under name, or (nil, false) if
// none was registered.
func (r *Registry) Lookup(name string) (Resolver, bool) {
	res, ok := r.resolvers[name]
	return res, ok
}
