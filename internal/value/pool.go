package value

// Pool is the interpreter-owned object pool described by §9's "Global
// mutable state" note: it replaces a package-level GC global with an
// explicit, reference-passed owner of every heap object (strings, and,
// transitively via Value, functions/natives/process templates) for the
// program's lifetime. There is no collector; objects simply live until the
// Pool itself is dropped at interpreter teardown (§1 Non-goals, §5 Memory).
type Pool struct {
	strings map[string]*StringObj
}

func NewPool() *Pool {
	return &Pool{strings: make(map[string]*StringObj)}
}

// Intern returns the shared StringObj for s, allocating it on first sight.
// String literals and concatenation results both go through here, giving
// the single interned pool §9's "String storage" note asks for.
func (p *Pool) Intern(s string) *StringObj {
	if obj, ok := p.strings[s]; ok {
		return obj
	}
	obj := &StringObj{Data: s}
	p.strings[s] = obj
	return obj
}

// ConstantPool is the interpreter-wide, deduplicated table of Values
// referenced by the Constant opcode and by name-carrying global opcodes
// (§3 "Interpreter (scheduler)"). Deduplication uses the Value equality
// rule (§4.D "Constant deduplication") so repeated string/number literals
// share one slot.
type ConstantPool struct {
	values []Value
}

func NewConstantPool() *ConstantPool {
	return &ConstantPool{}
}

// Add returns the index of v in the pool, appending it if no existing entry
// is equal under Equals. This both keeps the pool small and is what makes
// Testable Property 1 (constant-pool uniqueness, §8) hold by construction.
func (cp *ConstantPool) Add(v Value) int {
	for i, existing := range cp.values {
		if Equals(existing, v) {
			return i
		}
	}
	cp.values = append(cp.values, v)
	return len(cp.values) - 1
}

// Get traps on an out-of-range index: the compiler guarantees every Constant
// opcode it emits carries an index Add previously returned, so an
// out-of-range index here means a compiler bug, not a user-facing condition.
func (cp *ConstantPool) Get(idx int) Value {
	if idx < 0 || idx >= len(cp.values) {
		panic("value: constant pool index out of range")
	}
	return cp.values[idx]
}

func (cp *ConstantPool) Len() int {
	return len(cp.values)
}
