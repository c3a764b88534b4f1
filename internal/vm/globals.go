package vm

import "github.com/akadjoker/budiv/internal/value"

// Globals is the interpreter-wide name table (§3 "globals"): every `def` and
// `process` declaration binds here via OP_DEFINE_GLOBAL, and OP_GET/SET_GLOBAL
// resolve bare identifiers that are not locals (§4.D resolution step 3).
type Globals struct {
	m map[string]value.Value
}

func NewGlobals() *Globals {
	return &Globals{m: make(map[string]value.Value)}
}

// Define binds name unconditionally, overwriting any previous value. This is
// the only global-table write DefineGlobal performs; it never errors.
func (g *Globals) Define(name string, v value.Value) {
	g.m[name] = v
}

func (g *Globals) Get(name string) (value.Value, bool) {
	v, ok := g.m[name]
	return v, ok
}

// Set assigns an existing global and reports whether it existed. SetGlobal
// traps on a false return (§7: "undefined global").
func (g *Globals) Set(name string, v value.Value) bool {
	if _, ok := g.m[name]; !ok {
		return false
	}
	g.m[name] = v
	return true
}
