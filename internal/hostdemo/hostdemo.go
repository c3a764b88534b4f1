// Package hostdemo registers the small set of native functions a headless
// host needs to exercise budiv programs end to end: trigonometry for
// movement code, a wall-clock reader, and a way to ask the host to stop.
// There is no windowing or rendering library anywhere in the retrieved
// corpus, so this host is deliberately headless and leans on the standard
// library's math/time for the concern itself -- recorded in DESIGN.md as the
// one place the stack falls back to stdlib for lack of any ecosystem
// candidate.
package hostdemo

import (
	"math"
	"time"

	"github.com/akadjoker/budiv/internal/value"
	"github.com/akadjoker/budiv/internal/vm"
)

// Register injects every native this host exposes, the way the teacher's
// injectBuiltinFunctions wires one builtin per call (internal/parser/builtins.go).
func Register(in *vm.Interpreter) {
	in.RegisterNative("sin", arity1(math.Sin))
	in.RegisterNative("cos", arity1(math.Cos))
	in.RegisterNative("sqrt", arity1(math.Sqrt))
	in.RegisterNative("abs", arity1(math.Abs))
	in.RegisterNative("floor", arity1(math.Floor))
	in.RegisterNative("ceil", arity1(math.Ceil))
	in.RegisterNative("rand", natRand)
	in.RegisterNative("clock", natClock)
	in.RegisterNative("exit", natExit(in))
	in.RegisterNative("kill", natKill(in))
	in.RegisterNative("sleep", natSleep(in))
}

func arity1(f func(float64) float64) value.NativeFn {
	return func(args []value.Value) value.Value {
		if len(args) != 1 || !args[0].IsNumber() {
			return value.NilValue
		}
		return value.Num(f(args[0].AsNumber()))
	}
}

var randSeed uint64 = 0x2545F4914F6CDD1D

// natRand is a small xorshift PRNG returning a value in [0, 1). It exists so
// demo programs have *something* to call for randomness without pulling in
// math/rand's global lock for a single-threaded scheduler loop.
func natRand(args []value.Value) value.Value {
	randSeed ^= randSeed << 13
	randSeed ^= randSeed >> 7
	randSeed ^= randSeed << 17
	return value.Num(float64(randSeed%1_000_000) / 1_000_000.0)
}

func natClock(args []value.Value) value.Value {
	return value.Num(float64(time.Now().UnixNano()) / 1e9)
}

func natExit(in *vm.Interpreter) value.NativeFn {
	return func(args []value.Value) value.Value {
		code := 0
		if len(args) == 1 && args[0].IsNumber() {
			code = int(args[0].AsNumber())
		}
		in.RequestExit(code)
		return value.NilValue
	}
}

// natKill wraps Interpreter.KillProcess (§9's fixed contract) as a budiv
// native: `kill(id)` returns true if a live process with that id was found.
func natKill(in *vm.Interpreter) value.NativeFn {
	return func(args []value.Value) value.Value {
		if len(args) != 1 || !args[0].IsNumber() {
			return value.Bool_(false)
		}
		id := uint32(args[0].AsNumber())
		return value.Bool_(in.KillProcess(id))
	}
}

// natSleep wraps Process.pauseForSeconds (§4.E's rate-control API) as a
// budiv native: `sleep(seconds)` defers the calling process's next
// scheduling opportunity by at least that much host time.
func natSleep(in *vm.Interpreter) value.NativeFn {
	return func(args []value.Value) value.Value {
		if len(args) != 1 || !args[0].IsNumber() {
			return value.NilValue
		}
		in.RequestSleep(args[0].AsNumber())
		return value.NilValue
	}
}
