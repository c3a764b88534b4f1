// Package value implements the tagged runtime datum (§3 Value) shared by the
// compiler, the VM and the scheduler.
package value

import (
	"fmt"
	"math"
)

// Kind tags a Value's variant.
type Kind uint8

const (
	Nil Kind = iota
	Bool
	Number
	String
	Function
	Native
	Process
)

func (k Kind) String() string {
	switch k {
	case Nil:
		return "nil"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Function:
		return "function"
	case Native:
		return "native"
	case Process:
		return "process"
	default:
		return "unknown"
	}
}

// numberEpsilon is the tolerance used when comparing two Number values for
// equality. Carried from the source program rather than invented: the
// original implementation compares floats within this margin and the spec
// calls it out explicitly rather than letting it stay an undocumented magic
// constant.
const numberEpsilon = 0.02

// Value is the tagged union described by §3: a type tag plus either an
// inline scalar or a handle to a heap object. Heap objects (strings,
// functions, natives, process templates) are owned by the interpreter's
// Pool for the life of the program; cloning a Value never deep-copies them.
type Value struct {
	kind Kind
	num  float64
	obj  interface{}
}

// NilValue is the canonical nil Value.
var NilValue = Value{kind: Nil}

func Bool_(b bool) Value {
	v := Value{kind: Bool}
	if b {
		v.num = 1
	}
	return v
}

func Num(n float64) Value {
	return Value{kind: Number, num: n}
}

// Str wraps an already-interned *StringObj. Callers obtain one from a Pool.
func Str(s *StringObj) Value {
	return Value{kind: String, obj: s}
}

func Fn(f *FunctionObj) Value {
	return Value{kind: Function, obj: f}
}

func Nat(n *NativeObj) Value {
	return Value{kind: Native, obj: n}
}

func Proc(p *ProcessTemplate) Value {
	return Value{kind: Process, obj: p}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNil() bool    { return v.kind == Nil }
func (v Value) IsBool() bool   { return v.kind == Bool }
func (v Value) IsNumber() bool { return v.kind == Number }
func (v Value) IsString() bool { return v.kind == String }

// AsBool traps if v is not a Bool. The accessor contract is: predicate first,
// trapping accessor second — callers are expected to check Kind().
func (v Value) AsBool() bool {
	if v.kind != Bool {
		panic(fmt.Sprintf("value: AsBool on a %s", v.kind))
	}
	return v.num != 0
}

func (v Value) AsNumber() float64 {
	if v.kind != Number {
		panic(fmt.Sprintf("value: AsNumber on a %s", v.kind))
	}
	return v.num
}

func (v Value) AsString() *StringObj {
	if v.kind != String {
		panic(fmt.Sprintf("value: AsString on a %s", v.kind))
	}
	return v.obj.(*StringObj)
}

func (v Value) AsFunction() *FunctionObj {
	if v.kind != Function {
		panic(fmt.Sprintf("value: AsFunction on a %s", v.kind))
	}
	return v.obj.(*FunctionObj)
}

func (v Value) AsNative() *NativeObj {
	if v.kind != Native {
		panic(fmt.Sprintf("value: AsNative on a %s", v.kind))
	}
	return v.obj.(*NativeObj)
}

func (v Value) AsProcessTemplate() *ProcessTemplate {
	if v.kind != Process {
		panic(fmt.Sprintf("value: AsProcessTemplate on a %s", v.kind))
	}
	return v.obj.(*ProcessTemplate)
}

// Truthy implements §3's truthiness rule: nil and false are falsey, the
// number 0.0 is falsey, an empty string is falsey, everything else truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case Nil:
		return false
	case Bool:
		return v.num != 0
	case Number:
		return v.num != 0
	case String:
		return len(v.obj.(*StringObj).Data) > 0
	default:
		return true
	}
}

// Equals implements §3's equality rule: same tag required, numbers compare
// with numberEpsilon, strings by byte content, bool/nil by tag.
func Equals(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Nil:
		return true
	case Bool:
		return a.num == b.num
	case Number:
		return math.Abs(a.num-b.num) <= numberEpsilon
	case String:
		return a.obj.(*StringObj).Data == b.obj.(*StringObj).Data
	default:
		// Functions, natives and process templates are reference-identical;
		// the spec does not require structural equality for them.
		return a.obj == b.obj
	}
}

// ConcatNumber renders a number the way string+number concatenation does
// (§4.F's Add rule: "decimal rendering", S2 in §8 — `"x=" + 5` prints
// `x=5`, not `x=5.000000`). This is a trimmed decimal, distinct from
// Print's fixed six fractional digits, matching the teacher's own
// `fmt.Sprintf("%g", ...)` number-to-string call in execution.go.
func ConcatNumber(n float64) string {
	return fmt.Sprintf("%g", n)
}

// Print renders v the way the runtime's print statement does: numbers as
// decimals with six fractional digits (matching the source's formatting,
// see S1/S2 in §8), strings bare, everything else by kind name.
func Print(v Value) string {
	switch v.kind {
	case Nil:
		return "nil"
	case Bool:
		if v.num != 0 {
			return "true"
		}
		return "false"
	case Number:
		return fmt.Sprintf("%.6f", v.num)
	case String:
		return v.obj.(*StringObj).Data
	case Function:
		return fmt.Sprintf("<function %s>", v.obj.(*FunctionObj).Name)
	case Native:
		return fmt.Sprintf("<native %s>", v.obj.(*NativeObj).Name)
	case Process:
		return fmt.Sprintf("<process %s>", v.obj.(*ProcessTemplate).Name)
	default:
		return "<unknown>"
	}
}
