package vm

import (
	"io"
	"log/slog"
	"os"

	"github.com/akadjoker/budiv/internal/compiler"
	"github.com/akadjoker/budiv/internal/value"
)

// Interpreter is the scheduler-owning root object (§3 "Interpreter
// (scheduler)"): the shared constant pool and string pool a Program
// compiled, the global table every process reads and writes, the
// doubly-linked run list, and the pending spawn queue that only becomes
// visible to the run list at the start of the next host frame (§4.G,
// Testable Property 8).
type Interpreter struct {
	rootFn    *value.FunctionObj
	constants *value.ConstantPool
	pool      *value.Pool
	globals   *Globals

	first, last *Process
	spawnQueue  []*Process

	mainProcess *Process
	nextID      uint32

	currentFrameNum int
	clockSeconds    float64

	mustExit  bool
	exitValue int

	maxProcesses int

	pendingSleepSeconds float64
	pendingSleepSet     bool

	Stdout io.Writer
	Log    *slog.Logger
}

// New builds an Interpreter over a compiled Program. The caller still must
// call Start before the first Tick.
func New(prog *compiler.Program) *Interpreter {
	return &Interpreter{
		rootFn:    prog.Main,
		constants: prog.Constants,
		pool:      prog.Strings,
		globals:   NewGlobals(),
		Stdout:    os.Stdout,
		Log:       slog.Default(),
	}
}

// RegisterNative binds a host function as a global (§6: "define_native
// binds a global of kind Native"), making it reachable from budiv source
// exactly like a `def`.
func (in *Interpreter) RegisterNative(name string, fn value.NativeFn) {
	in.globals.Define(name, value.Nat(&value.NativeObj{Name: name, Fn: fn}))
}

func (in *Interpreter) clock() float64 { return in.clockSeconds }

// ExitValue reports the process exit code set by a host-level exit native
// (§6), defaulting to 0 if the program never called one.
func (in *Interpreter) ExitValue() int { return in.exitValue }

// MustExit reports whether a host-level exit request has been raised.
func (in *Interpreter) MustExit() bool { return in.mustExit }

// RequestExit lets a registered native (e.g. an `exit` builtin) ask the
// host loop to stop after the current frame.
func (in *Interpreter) RequestExit(code int) {
	in.mustExit = true
	in.exitValue = code
}

// RequestSleep lets a registered native (e.g. a `sleep` builtin) defer the
// calling process by seconds of host time, via Process.pauseForSeconds
// (§4.E's rate-control API). The native ABI has no direct handle on the
// calling Process, so the request is staged here and applied by
// dispatchCall right after the native returns.
func (in *Interpreter) RequestSleep(seconds float64) {
	in.pendingSleepSeconds = seconds
	in.pendingSleepSet = true
}

func (in *Interpreter) takePendingSleep() (float64, bool) {
	if !in.pendingSleepSet {
		return 0, false
	}
	in.pendingSleepSet = false
	return in.pendingSleepSeconds, true
}

func (in *Interpreter) allocID() uint32 {
	in.nextID++
	return in.nextID
}

// SetMaxProcesses installs the host's process ceiling (config.Scheduler's
// "max_processes"). 0 means unlimited, the default.
func (in *Interpreter) SetMaxProcesses(n int) {
	in.maxProcesses = n
}

// liveProcessCount counts spawned (non-root) processes already on the run
// list plus ones queued to join it at the next host frame, so the ceiling
// check in dispatchCall sees the true population a spawn would grow into.
// The root `_main_` process never counts against the ceiling -- it always
// exists and is not itself a spawn.
func (in *Interpreter) liveProcessCount() int {
	n := len(in.spawnQueue)
	for p := in.first; p != nil; p = p.next {
		if !p.root {
			n++
		}
	}
	return n
}
