package compiler

import (
	"github.com/akadjoker/budiv/internal/bytecode"
	"github.com/akadjoker/budiv/internal/lexer"
	"github.com/akadjoker/budiv/internal/value"
)

func (c *Compiler) emitByte(b byte) int {
	return c.fs.chunk().Write(b, c.line())
}

func (c *Compiler) emitOp(op bytecode.Op) int {
	return c.emitByte(byte(op))
}

func (c *Compiler) emitOpByte(op bytecode.Op, operand byte) {
	c.emitOp(op)
	c.emitByte(operand)
}

// emitJump emits a jump opcode with a placeholder 16-bit operand and returns
// the offset of the first operand byte, to be patched later.
func (c *Compiler) emitJump(op bytecode.Op) int {
	c.emitOp(op)
	pos := c.fs.chunk().Len()
	c.emitByte(0xff)
	c.emitByte(0xff)
	return pos
}

// patchJump backfills a forward jump's operand with the distance from just
// past its operand to the chunk's current end (§4.F: "forward relative
// jump"). Errors per §7/§8 Property 3 if the jump would exceed 16 bits.
func (c *Compiler) patchJump(operandPos int) {
	dist := c.fs.chunk().Len() - (operandPos + 2)
	if dist > bytecode.MaxJump {
		c.error("jump target too far away")
		return
	}
	c.fs.chunk().PatchU16(operandPos, uint16(dist))
}

// emitLoop emits a backward OP_LOOP jump to loopStart (§4.F: "backward
// relative jump").
func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(bytecode.OpLoop)
	dist := c.fs.chunk().Len() + 2 - loopStart
	if dist > bytecode.MaxJump {
		c.error("loop body too large")
		dist = 0
	}
	c.emitByte(byte(uint16(dist) >> 8))
	c.emitByte(byte(uint16(dist)))
}

// addConstant adds v to the shared constant pool, trapping compile-time
// overflow of the 8-bit Constant operand (§6 per-function limits).
func (c *Compiler) addConstant(v value.Value) byte {
	idx := c.constants.Add(v)
	if idx >= bytecode.MaxConstants {
		c.error("too many constants in one program")
		return 0
	}
	return byte(idx)
}

func (c *Compiler) emitConstant(v value.Value) {
	c.emitOpByte(bytecode.OpConstant, c.addConstant(v))
}

func (c *Compiler) identifierConstant(name string) byte {
	return c.addConstant(value.Str(c.pool.Intern(name)))
}

// -- scopes and locals --------------------------------------------------

func (c *Compiler) beginScope() {
	c.fs.scopeDepth++
}

// endScope pops every local declared inside the block by emitting one Pop
// per local, except ones marked isArg (§4.D scoping rule).
func (c *Compiler) endScope() {
	c.fs.scopeDepth--
	locals := c.fs.locals
	for len(locals) > 0 && locals[len(locals)-1].depth > c.fs.scopeDepth {
		if !locals[len(locals)-1].isArg {
			c.emitOp(bytecode.OpPop)
		}
		locals = locals[:len(locals)-1]
	}
	c.fs.locals = locals
}

// declareLocal adds a new local in the current scope. Only an argument local
// starts out initialized; callers mark any other local initialized once its
// initializer has been compiled, so `var a = a;` trips the "own initializer"
// rule below.
func (c *Compiler) declareLocal(name string, isArg bool) (int, bool) {
	for i := len(c.fs.locals) - 1; i >= 0; i-- {
		l := c.fs.locals[i]
		if l.depth != -1 && l.depth < c.fs.scopeDepth {
			break
		}
		if l.name == name {
			c.error("variable '" + name + "' already declared in this scope")
			return 0, false
		}
	}
	if len(c.fs.locals) >= bytecode.MaxLocals {
		c.error("too many local variables in one function")
		return 0, false
	}
	c.fs.locals = append(c.fs.locals, local{name: name, depth: c.fs.scopeDepth, isArg: isArg, initialized: isArg})
	return len(c.fs.locals) - 1, true
}

func (c *Compiler) markInitialized() {
	c.fs.locals[len(c.fs.locals)-1].initialized = true
}

// resolveLocal implements §4.D variable resolution steps 1-2: search locals
// newest to oldest; -1 means "not found", and reports the self-initializer
// error when a local is found mid-initialization.
func (c *Compiler) resolveLocal(name string) int {
	for i := len(c.fs.locals) - 1; i >= 0; i-- {
		if c.fs.locals[i].name == name {
			if !c.fs.locals[i].initialized {
				c.error("cannot read local variable in its own initializer")
			}
			return i
		}
	}
	return -1
}

// namedVariable compiles a read or, if canAssign and an `=` follows, a write
// of the identifier previously consumed into c.previous (§4.D resolution +
// assignability). It also implements the compound-assignment and
// increment/decrement sugar decided in SPEC_FULL §9.
func (c *Compiler) namedVariable(name string, canAssign bool) {
	slot := c.resolveLocal(name)

	var getOp, setOp bytecode.Op
	var operand byte
	if slot != -1 {
		getOp, setOp = bytecode.OpGetLocal, bytecode.OpSetLocal
		operand = byte(slot)
	} else {
		getOp, setOp = bytecode.OpGetGlobal, bytecode.OpSetGlobal
		operand = c.identifierConstant(name)
	}

	if canAssign && c.matchTok(lexer.TokEqual) {
		c.expression()
		c.emitOpByte(setOp, operand)
		return
	}
	if canAssign && c.matchCompoundOp() != bytecode.OpNop {
		op := c.matchCompoundOpConsumed()
		c.emitOpByte(getOp, operand)
		c.expression()
		c.emitOp(op)
		c.emitOpByte(setOp, operand)
		return
	}
	if canAssign && (c.check(lexer.TokPlusPlus) || c.check(lexer.TokMinusMinus)) {
		op := bytecode.OpAdd
		if c.current.Type == lexer.TokMinusMinus {
			op = bytecode.OpSubtract
		}
		c.advance()
		c.emitOpByte(getOp, operand)
		c.emitConstant(value.Num(1))
		c.emitOp(op)
		c.emitOpByte(setOp, operand)
		return
	}
	c.emitOpByte(getOp, operand)
}

// matchCompoundOp peeks whether current is a compound-assignment token
// without consuming it.
func (c *Compiler) matchCompoundOp() bytecode.Op {
	switch c.current.Type {
	case lexer.TokPlusEqual:
		return bytecode.OpAdd
	case lexer.TokMinusEqual:
		return bytecode.OpSubtract
	case lexer.TokStarEqual:
		return bytecode.OpMultiply
	case lexer.TokSlashEqual:
		return bytecode.OpDivide
	}
	return bytecode.OpNop
}

// matchCompoundOpConsumed consumes the compound-assignment token found by
// matchCompoundOp and returns the arithmetic op it desugars to (SPEC_FULL
// §9: `x += e` ≡ `x = x + e`).
func (c *Compiler) matchCompoundOpConsumed() bytecode.Op {
	op := c.matchCompoundOp()
	c.advance()
	return op
}

// lastLocalDepth returns the scope depth of the most recently declared local.
// Nothing in the compiler calls it.
func (c *Compiler) lastLocalDepth() int {
	return c.fs.locals[len(c.fs.locals)-1].depth
}
