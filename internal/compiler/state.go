package compiler

import (
	"github.com/akadjoker/budiv/internal/bytecode"
	"github.com/akadjoker/budiv/internal/value"
)

// local is a compile-time symbol record (§3 "locals[]"): name, scope depth
// and whether it is a call argument. It exists only while the compiler is
// emitting the owning function's chunk and is discarded after compilation —
// it is never attached to the runtime value.FunctionObj.
type local struct {
	name       string
	depth      int
	isArg      bool
	initialized bool
}

// loopContext is the compile-time-only structure §9 says belongs on the
// compiler, not on the runtime Function: it records the innermost loop's
// continuation target and any pending break jumps still waiting to be
// patched to the loop's exit.
type loopContext struct {
	loopStart  int
	breakJumps []int
}

// functionState is one entry of the compiler's function nesting stack: the
// chunk currently being written into, its locals, its scope depth and its
// loop stack. Compiling `def`/`process` pushes a new functionState; closing
// the body pops back to the enclosing one.
type functionState struct {
	enclosing *functionState
	fn        *value.FunctionObj
	locals    []local
	scopeDepth int
	loops     []*loopContext
	isProcess  bool
	hasReturn  bool
}

func newFunctionState(enclosing *functionState, fn *value.FunctionObj, isProcess bool) *functionState {
	return &functionState{enclosing: enclosing, fn: fn, isProcess: isProcess}
}

func (fs *functionState) chunk() *bytecode.Chunk {
	return fs.fn.Chunk
}

func (fs *functionState) pushLoop(start int) *loopContext {
	lc := &loopContext{loopStart: start}
	fs.loops = append(fs.loops, lc)
	return lc
}

func (fs *functionState) popLoop() *loopContext {
	n := len(fs.loops)
	lc := fs.loops[n-1]
	fs.loops = fs.loops[:n-1]
	return lc
}

func (fs *functionState) currentLoop() *loopContext {
	if len(fs.loops) == 0 {
		return nil
	}
	return fs.loops[len(fs.loops)-1]
}
