package value

import "github.com/akadjoker/budiv/internal/bytecode"

// StringObj is a heap-allocated, interned string. Two equal literals share
// one StringObj (see Pool.Intern); dynamically concatenated strings get a
// fresh StringObj but are still owned by the Pool until interpreter
// teardown, per §3's lifecycle rule and §9's "String storage" note.
type StringObj struct {
	Data string
}

// FunctionObj is the post-compile, immutable state of a `def`. Per §9's
// redesign note, it carries only what survives compilation: the loop-context
// bookkeeping the compiler needs while *emitting* this function's chunk
// lives on the compiler, never here.
type FunctionObj struct {
	Name   string
	Arity  int
	Chunk  *bytecode.Chunk
	IsMain bool
}

// NativeFn is the host ABI signature described by §6: argc consecutive
// arguments in, exactly one Value out.
type NativeFn func(args []Value) Value

// NativeObj binds a host callback to the name it was registered under.
type NativeObj struct {
	Name string
	Fn   NativeFn
}

// ProcessTemplate is the compile-time carrier a `process` declaration
// produces (§3, §9 "Process template vs. instance"). It has no stack, no
// frame timer, no ip — Call clones a fresh instance from it.
type ProcessTemplate struct {
	Name     string
	Function *FunctionObj
}
