package vm

import (
	"fmt"
	"math"

	"github.com/akadjoker/budiv/internal/bytecode"
	"github.com/akadjoker/budiv/internal/value"
)

// yieldReason says why step() stopped running instructions: the scheduler
// (§4.G) only rate-limits on reasonFrame, the others are unconditional.
type yieldReason uint8

const (
	reasonFrame yieldReason = iota
	reasonSpawnYield
	reasonHalted
	reasonDead
	reasonError
)

func (r yieldReason) String() string {
	switch r {
	case reasonFrame:
		return "frame"
	case reasonSpawnYield:
		return "spawn"
	case reasonHalted:
		return "halted"
	case reasonDead:
		return "dead"
	case reasonError:
		return "error"
	default:
		return "unknown"
	}
}

type stepOutcome struct {
	reason yieldReason
	err    *RuntimeError
}

// step runs frame.Function.Chunk starting at the current frame's IP until it
// hits OP_FRAME, OP_HALT, a Call that spawns a process, returns out of the
// outermost frame, or traps a runtime error (§4.F, §4.E). The scheduler calls
// this at most once per process per host frame.
func (p *Process) step() (outcome stepOutcome) {
	defer func() {
		if r := recover(); r != nil {
			re, ok := r.(runtimeError)
			if !ok {
				panic(r)
			}
			line := 0
			if p.frameCount > 0 {
				f := p.currentFrame()
				line = f.Function.Chunk.Line(f.IP - 1)
			}
			p.status = StatusDead
			outcome = stepOutcome{reason: reasonError, err: p.wrapRuntimeError(re, line)}
		}
	}()

	for {
		frame := p.currentFrame()
		chunk := frame.Function.Chunk
		op := bytecode.Op(chunk.Code[frame.IP])
		frame.IP++

		switch op {
		case bytecode.OpNop:
			// no-op

		case bytecode.OpConstant:
			idx := p.readByte(chunk, frame)
			p.push(p.vm.constants.Get(int(idx)))
		case bytecode.OpNil:
			p.push(value.NilValue)
		case bytecode.OpTrue:
			p.push(value.Bool_(true))
		case bytecode.OpFalse:
			p.push(value.Bool_(false))

		case bytecode.OpPop:
			p.pop()
		case bytecode.OpDup:
			p.push(p.peek(0))

		case bytecode.OpAdd:
			p.binaryAddOrConcat()
		case bytecode.OpSubtract:
			p.binaryArith(func(a, b float64) float64 { return a - b })
		case bytecode.OpMultiply:
			p.binaryArith(func(a, b float64) float64 { return a * b })
		case bytecode.OpDivide:
			b := p.popNumber()
			a := p.popNumber()
			if b == 0 {
				panic(runtimeError{msg: "division by zero"})
			}
			p.push(value.Num(a / b))
		case bytecode.OpModulo:
			b := p.popNumber()
			a := p.popNumber()
			if b == 0 {
				panic(runtimeError{msg: "modulo by zero"})
			}
			p.push(value.Num(math.Mod(a, b)))
		case bytecode.OpPower:
			p.binaryArith(math.Pow)
		case bytecode.OpNegate:
			p.push(value.Num(-p.popNumber()))

		case bytecode.OpEqual:
			b, a := p.pop(), p.pop()
			p.push(value.Bool_(value.Equals(a, b)))
		case bytecode.OpNotEqual:
			b, a := p.pop(), p.pop()
			p.push(value.Bool_(!value.Equals(a, b)))
		case bytecode.OpGreater:
			p.binaryCompare(func(a, b float64) bool { return a > b })
		case bytecode.OpGreaterEqual:
			p.binaryCompare(func(a, b float64) bool { return a >= b })
		case bytecode.OpLess:
			p.binaryCompare(func(a, b float64) bool { return a < b })
		case bytecode.OpLessEqual:
			p.binaryCompare(func(a, b float64) bool { return a <= b })

		case bytecode.OpAnd:
			b, a := p.pop(), p.pop()
			p.push(value.Bool_(a.Truthy() && b.Truthy()))
		case bytecode.OpOr:
			b, a := p.pop(), p.pop()
			p.push(value.Bool_(a.Truthy() || b.Truthy()))
		case bytecode.OpXor:
			b, a := p.pop(), p.pop()
			p.push(value.Bool_(a.Truthy() != b.Truthy()))
		case bytecode.OpNot:
			a := p.pop()
			p.push(value.Bool_(!a.Truthy()))

		case bytecode.OpGetLocal:
			slot := p.readByte(chunk, frame)
			p.push(p.stack[frame.Slots+int(slot)])
		case bytecode.OpSetLocal:
			slot := p.readByte(chunk, frame)
			p.stack[frame.Slots+int(slot)] = p.peek(0)
		case bytecode.OpDefineLocal:
			// reserved, never emitted (§9): the initializer's value is already
			// sitting in the right slot by the time the compiler would emit it.
			panic(runtimeError{msg: "internal: OP_DEFINE_LOCAL is not emitted"})

		case bytecode.OpGetGlobal:
			idx := p.readByte(chunk, frame)
			name := p.vm.constants.Get(int(idx)).AsString().Data
			v, ok := p.vm.globals.Get(name)
			if !ok {
				panic(runtimeError{msg: fmt.Sprintf("undefined global '%s'", name)})
			}
			p.push(v)
		case bytecode.OpSetGlobal:
			idx := p.readByte(chunk, frame)
			name := p.vm.constants.Get(int(idx)).AsString().Data
			if !p.vm.globals.Set(name, p.peek(0)) {
				panic(runtimeError{msg: fmt.Sprintf("undefined global '%s'", name)})
			}
		case bytecode.OpDefineGlobal:
			idx := p.readByte(chunk, frame)
			name := p.vm.constants.Get(int(idx)).AsString().Data
			p.vm.globals.Define(name, p.pop())

		case bytecode.OpJump:
			off := p.readU16(chunk, frame)
			frame.IP += int(off)
		case bytecode.OpJumpIfFalse:
			off := p.readU16(chunk, frame)
			if !p.peek(0).Truthy() {
				frame.IP += int(off)
			}
		case bytecode.OpJumpIfTrue:
			off := p.readU16(chunk, frame)
			if p.peek(0).Truthy() {
				frame.IP += int(off)
			}
		case bytecode.OpLoop:
			off := p.readU16(chunk, frame)
			frame.IP -= int(off)
		case bytecode.OpBreak, bytecode.OpContinue:
			panic(runtimeError{msg: "internal: " + op.Name() + " is never emitted"})

		case bytecode.OpCall:
			argc := int(p.readByte(chunk, frame))
			result := p.dispatchCall(argc)
			if result.reason != reasonFrame || result.err != nil {
				return result
			}
		case bytecode.OpReturn:
			v := p.pop()
			base := frame.Slots
			p.frameCount--
			if p.frameCount == 0 {
				p.status = StatusDead
				return stepOutcome{reason: reasonDead}
			}
			p.stackTop = base
			p.push(v)
		case bytecode.OpHalt:
			p.status = StatusDead
			return stepOutcome{reason: reasonHalted}
		case bytecode.OpFrame:
			pct := p.popNumber()
			p.setFrameSpeed(pct / 100.0)
			return stepOutcome{reason: reasonFrame}

		case bytecode.OpPrint:
			v := p.pop()
			fmt.Fprintln(p.vm.Stdout, value.Print(v))
		case bytecode.OpNow:
			p.push(value.Num(p.vm.clock()))

		default:
			panic(runtimeError{msg: fmt.Sprintf("unknown opcode %d", op)})
		}
	}
}

func (p *Process) readByte(chunk *bytecode.Chunk, frame *CallFrame) byte {
	b := chunk.Code[frame.IP]
	frame.IP++
	return b
}

func (p *Process) readU16(chunk *bytecode.Chunk, frame *CallFrame) uint16 {
	v := chunk.ReadU16(frame.IP)
	frame.IP += 2
	return v
}

func (p *Process) popNumber() float64 {
	v := p.pop()
	if !v.IsNumber() {
		panic(runtimeError{msg: fmt.Sprintf("expected a number, got a %s", v.Kind())})
	}
	return v.AsNumber()
}

func (p *Process) binaryArith(f func(a, b float64) float64) {
	b := p.popNumber()
	a := p.popNumber()
	p.push(value.Num(f(a, b)))
}

func (p *Process) binaryCompare(f func(a, b float64) bool) {
	b := p.popNumber()
	a := p.popNumber()
	p.push(value.Bool_(f(a, b)))
}

// binaryAddOrConcat implements §4.F's dual Add rule: numeric addition if
// both operands are numbers, string concatenation if both are strings or one
// is a string and the other a number (the number side rendered per
// value.ConcatNumber's decimal convention), a type error for any other mix.
func (p *Process) binaryAddOrConcat() {
	b := p.pop()
	a := p.pop()
	switch {
	case a.IsNumber() && b.IsNumber():
		p.push(value.Num(a.AsNumber() + b.AsNumber()))
	case a.IsString() && b.IsString():
		p.push(value.Str(p.vm.pool.Intern(a.AsString().Data + b.AsString().Data)))
	case a.IsString() && b.IsNumber():
		p.push(value.Str(p.vm.pool.Intern(a.AsString().Data + value.ConcatNumber(b.AsNumber()))))
	case a.IsNumber() && b.IsString():
		p.push(value.Str(p.vm.pool.Intern(value.ConcatNumber(a.AsNumber()) + b.AsString().Data)))
	default:
		panic(runtimeError{msg: fmt.Sprintf("cannot add a %s to a %s", b.Kind(), a.Kind())})
	}
}

// dispatchCall implements OP_CALL's three-way branch on the callee's kind
// (§4.F): a Function pushes a new frame in this same process, a Native runs
// synchronously and returns a value, a Process spawns a new sibling and
// yields control back to the scheduler without waiting for it.
func (p *Process) dispatchCall(argc int) stepOutcome {
	calleeIdx := p.stackTop - argc - 1
	if calleeIdx < 0 {
		panic(runtimeError{msg: "stack underflow on call"})
	}
	callee := p.stack[calleeIdx]

	switch callee.Kind() {
	case value.Function:
		p.call(callee.AsFunction(), argc)
		return stepOutcome{reason: reasonFrame}

	case value.Native:
		nat := callee.AsNative()
		args := make([]value.Value, argc)
		copy(args, p.stack[calleeIdx+1:p.stackTop])
		result := nat.Fn(args)
		p.stackTop = calleeIdx
		p.push(result)
		if secs, ok := p.vm.takePendingSleep(); ok {
			p.pauseForSeconds(secs)
		}
		return stepOutcome{reason: reasonFrame}

	case value.Process:
		tmpl := callee.AsProcessTemplate()
		if argc != tmpl.Function.Arity {
			panic(runtimeError{msg: fmt.Sprintf("process '%s' expected %d arguments but got %d", tmpl.Name, tmpl.Function.Arity, argc)})
		}
		if p.vm.maxProcesses > 0 && p.vm.liveProcessCount() >= p.vm.maxProcesses {
			panic(runtimeError{msg: fmt.Sprintf("process ceiling of %d reached, cannot spawn '%s'", p.vm.maxProcesses, tmpl.Name)})
		}
		args := make([]value.Value, argc)
		copy(args, p.stack[calleeIdx+1:p.stackTop])
		p.stackTop = calleeIdx
		p.push(value.NilValue)
		child := p.vm.spawnProcess(tmpl, args)
		p.vm.enqueueSpawn(child)
		return stepOutcome{reason: reasonSpawnYield}

	default:
		panic(runtimeError{msg: fmt.Sprintf("value of kind %s is not callable", callee.Kind())})
	}
}
