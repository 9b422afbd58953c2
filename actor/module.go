package actor

import (
	"github.com/prynsxdnl176/annotated-skynet/safemap"
)

const moduleTableCap = 32

// Module is a loadable service type exporting the four-symbol ABI of
// spec.md §4.4/§6: create/init/release/signal. init is the only mandatory
// symbol; the rest default to no-op, per spec.
type Module struct {
	Name    string
	Create  func() any
	Init    func(inst any, ctx *Context, args string) error
	Release func(inst any)
	Signal  func(inst any, n int)
}

// loader binds a service "type" name to its Module, memoized by name.
// Grounded on spec.md §4.4's design note (§9): "replace dlopen/dlsym with
// a statically linked registry: a table keyed by module name mapping to a
// struct of four function pointers". No filesystem lookup is ever
// performed; Register is the load-time equivalent of populating that
// table, usually from an init() func in the module's own package.
type loader struct {
	modules *safemap.SafeMap[string, *Module]
}

func newLoader() *loader {
	return &loader{modules: safemap.New[string, *Module]()}
}

// Register installs mod under mod.Name. Panics on a nil Init, the only
// mandatory symbol (spec.md §4.4).
func (l *loader) Register(mod *Module) {
	if mod.Init == nil {
		panic("actor: module " + mod.Name + " has no Init")
	}
	if mod.Create == nil {
		mod.Create = func() any { return nil }
	}
	if mod.Release == nil {
		mod.Release = func(any) {}
	}
	if mod.Signal == nil {
		mod.Signal = func(any, int) {}
	}
	l.modules.Set(mod.Name, mod)
}

// query looks up a previously registered Module by name.
func (l *loader) query(name string) (*Module, error) {
	m, ok := l.modules.Get(name)
	if !ok {
		return nil, ErrUnknownModule
	}
	return m, nil
}
