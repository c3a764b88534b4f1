package compiler

import (
	"github.com/akadjoker/budiv/internal/bytecode"
	"github.com/akadjoker/budiv/internal/lexer"
	"github.com/akadjoker/budiv/internal/value"
)

// declaration is the top-level parsing loop's entry (§4.D): var, def,
// process, or fall through to a statement. Panic-mode resync happens here,
// once per top-level declaration, matching §7.
func (c *Compiler) declaration() {
	switch {
	case c.matchTok(lexer.TokVar):
		c.varDeclaration()
	case c.matchTok(lexer.TokDef):
		c.funDeclaration()
	case c.matchTok(lexer.TokProcess):
		c.processDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

// varDeclaration always declares a local in the currently compiling
// function (including the root `_main_` process's top level) — see
// SPEC_FULL §9 for why `var` never reaches the global table; only named
// `def`/`process` symbols do.
func (c *Compiler) varDeclaration() {
	c.consume(lexer.TokIdentifier, "expected variable name")
	name := c.previous.Lexeme
	_, ok := c.declareLocal(name, false)
	if c.matchTok(lexer.TokEqual) {
		c.expression()
	} else {
		c.emitOp(bytecode.OpNil)
	}
	c.consume(lexer.TokSemicolon, "expected ';' after variable declaration")
	if ok {
		c.markInitialized()
	}
}

func (c *Compiler) funDeclaration() {
	c.consume(lexer.TokIdentifier, "expected function name")
	name := c.previous.Lexeme
	c.compileFunctionBody(name, false)
}

func (c *Compiler) processDeclaration() {
	c.consume(lexer.TokIdentifier, "expected process name")
	name := c.previous.Lexeme
	c.compileFunctionBody(name, true)
}

// compileFunctionBody implements §4.D's function/process declaration shape:
// allocate a fresh Function, install it as current, declare reserved
// registers (process only) then parameters, compile the body, and bind the
// result as a global under name — all in the enclosing chunk once the body
// is fully compiled, per the clox-style "compile, then splice" pattern this
// spec's §9 notes call for (the loop-context stack lives on the compiler,
// not on the runtime value).
func (c *Compiler) compileFunctionBody(name string, isProcess bool) {
	outer := c.fs
	fn := &value.FunctionObj{Name: name, Chunk: bytecode.NewChunk()}
	c.fs = newFunctionState(outer, fn, isProcess)
	c.beginScope()

	if isProcess {
		for _, reg := range []string{"x", "y", "angle"} {
			c.declareLocal(reg, true)
			c.markInitialized()
		}
	} else {
		// A function's CallFrame.Slots points at the callee itself on the
		// stack (§4.F OP_CALL: "slots = top - n - 1"), so slot 0 of every
		// ordinary function's frame is occupied before its first parameter.
		// Reserve it under a name no source identifier can spell so it is
		// never resolved as a real local.
		c.declareLocal(" callee", true)
		c.markInitialized()
	}

	c.consume(lexer.TokLeftParen, "expected '(' after name")
	arity := 0
	if !c.check(lexer.TokRightParen) {
		for {
			c.consume(lexer.TokIdentifier, "expected parameter name")
			pname := c.previous.Lexeme
			c.declareLocal(pname, true)
			c.markInitialized()
			arity++
			if arity > 255 {
				c.error("cannot declare more than 255 parameters")
			}
			if !c.matchTok(lexer.TokComma) {
				break
			}
		}
	}
	c.consume(lexer.TokRightParen, "expected ')' after parameters")
	fn.Arity = arity

	c.consume(lexer.TokLeftBrace, "expected '{' before body")
	c.parseStatementsUntilRightBrace()
	c.consume(lexer.TokRightBrace, "expected '}' after body")
	c.endScope()

	if isProcess {
		c.emitOp(bytecode.OpHalt)
	} else if !c.fs.hasReturn {
		c.emitOp(bytecode.OpNil)
		c.emitOp(bytecode.OpReturn)
	}

	c.fs = outer
	nameConst := c.identifierConstant(name)
	if isProcess {
		c.emitConstant(value.Proc(&value.ProcessTemplate{Name: name, Function: fn}))
	} else {
		c.emitConstant(value.Fn(fn))
	}
	c.emitOpByte(bytecode.OpDefineGlobal, nameConst)
}

// statement dispatches on the current token to one of §4.D's statement
// forms.
func (c *Compiler) statement() {
	switch {
	case c.matchTok(lexer.TokPrint):
		c.printStatement()
	case c.matchTok(lexer.TokFrame):
		c.frameStatement()
	case c.matchTok(lexer.TokIf):
		c.ifStatement()
	case c.matchTok(lexer.TokWhile):
		c.whileStatement()
	case c.matchTok(lexer.TokFor):
		c.forStatement()
	case c.matchTok(lexer.TokDo):
		c.doWhileStatement()
	case c.matchTok(lexer.TokLoop):
		c.loopStatement()
	case c.matchTok(lexer.TokSwitch):
		c.switchStatement()
	case c.matchTok(lexer.TokReturn):
		c.returnStatement()
	case c.matchTok(lexer.TokBreak):
		c.breakStatement()
	case c.matchTok(lexer.TokContinue):
		c.continueStatement()
	case c.matchTok(lexer.TokLeftBrace):
		c.beginScope()
		c.parseStatementsUntilRightBrace()
		c.consume(lexer.TokRightBrace, "expected '}' to close block")
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) parseStatementsUntilRightBrace() {
	for !c.check(lexer.TokRightBrace) && !c.check(lexer.TokEOF) {
		c.declaration()
	}
}

// expressionStatement implements Testable Property 4 (§8): the trailing Pop
// keeps the value stack's depth unchanged across `expr;`.
func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(lexer.TokSemicolon, "expected ';' after expression")
	c.emitOp(bytecode.OpPop)
}

func (c *Compiler) printStatement() {
	c.consume(lexer.TokLeftParen, "expected '(' after 'print'")
	c.expression()
	c.consume(lexer.TokRightParen, "expected ')' after print argument")
	c.consume(lexer.TokSemicolon, "expected ';' after print statement")
	c.emitOp(bytecode.OpPrint)
}

// frameStatement compiles `frame(pct);` (§4.F OP_FRAME).
func (c *Compiler) frameStatement() {
	c.consume(lexer.TokLeftParen, "expected '(' after 'frame'")
	c.expression()
	c.consume(lexer.TokRightParen, "expected ')' after frame argument")
	c.consume(lexer.TokSemicolon, "expected ';' after frame statement")
	c.emitOp(bytecode.OpFrame)
}

func (c *Compiler) ifStatement() {
	c.consume(lexer.TokLeftParen, "expected '(' after 'if'")
	c.expression()
	c.consume(lexer.TokRightParen, "expected ')' after condition")

	thenJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.statement()

	var endJumps []int
	endJumps = append(endJumps, c.emitJump(bytecode.OpJump))
	c.patchJump(thenJump)
	c.emitOp(bytecode.OpPop)

	for c.matchTok(lexer.TokElif) {
		c.consume(lexer.TokLeftParen, "expected '(' after 'elif'")
		c.expression()
		c.consume(lexer.TokRightParen, "expected ')' after condition")
		next := c.emitJump(bytecode.OpJumpIfFalse)
		c.emitOp(bytecode.OpPop)
		c.statement()
		endJumps = append(endJumps, c.emitJump(bytecode.OpJump))
		c.patchJump(next)
		c.emitOp(bytecode.OpPop)
	}

	if c.matchTok(lexer.TokElse) {
		c.statement()
	}

	for _, j := range endJumps {
		c.patchJump(j)
	}
}

func (c *Compiler) whileStatement() {
	loopStart := c.fs.chunk().Len()
	c.fs.pushLoop(loopStart)

	c.consume(lexer.TokLeftParen, "expected '(' after 'while'")
	c.expression()
	c.consume(lexer.TokRightParen, "expected ')' after condition")

	exitJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(bytecode.OpPop)
	c.finishLoop()
}

// doWhileStatement: loop-start is the body's start, matching §4.D's
// literal pseudocode ("loop-start; body; while (cond); ..."); a `continue`
// therefore re-enters the body directly rather than re-testing the
// condition first — a deliberate, spec-literal choice recorded in
// DESIGN.md since §4.D only ever exercises `break` for do/while (S4).
func (c *Compiler) doWhileStatement() {
	loopStart := c.fs.chunk().Len()
	c.fs.pushLoop(loopStart)

	c.consume(lexer.TokLeftBrace, "expected '{' after 'do'")
	c.beginScope()
	c.parseStatementsUntilRightBrace()
	c.consume(lexer.TokRightBrace, "expected '}' after do body")
	c.endScope()

	c.consume(lexer.TokWhile, "expected 'while' after do body")
	c.consume(lexer.TokLeftParen, "expected '(' after 'while'")
	c.expression()
	c.consume(lexer.TokRightParen, "expected ')' after condition")
	c.consume(lexer.TokSemicolon, "expected ';' after do/while statement")

	exitJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.emitLoop(loopStart)
	c.patchJump(exitJump)
	c.emitOp(bytecode.OpPop)
	c.finishLoop()
}

func (c *Compiler) loopStatement() {
	loopStart := c.fs.chunk().Len()
	c.fs.pushLoop(loopStart)
	c.statement()
	c.emitLoop(loopStart)
	c.finishLoop()
}

// forStatement implements §4.D's two-pass trick for the step clause: when a
// step is present, the initial body jump skips over the step code, and
// `continue` is retargeted to the step's start (`incr_start`).
func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(lexer.TokLeftParen, "expected '(' after 'for'")

	if c.matchTok(lexer.TokSemicolon) {
		// no initializer
	} else if c.matchTok(lexer.TokVar) {
		c.varDeclaration()
	} else {
		c.expressionStatement()
	}

	loopStart := c.fs.chunk().Len()
	exitJump := -1
	if !c.matchTok(lexer.TokSemicolon) {
		c.expression()
		c.consume(lexer.TokSemicolon, "expected ';' after loop condition")
		exitJump = c.emitJump(bytecode.OpJumpIfFalse)
		c.emitOp(bytecode.OpPop)
	}

	if !c.check(lexer.TokRightParen) {
		bodyJump := c.emitJump(bytecode.OpJump)
		incrStart := c.fs.chunk().Len()
		c.expression()
		c.emitOp(bytecode.OpPop)
		c.consume(lexer.TokRightParen, "expected ')' after for clauses")
		c.emitLoop(loopStart)
		loopStart = incrStart
		c.patchJump(bodyJump)
	} else {
		c.advance() // the ')'
	}

	c.fs.pushLoop(loopStart)
	c.statement()
	c.emitLoop(loopStart)
	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(bytecode.OpPop)
	}
	c.finishLoop()
	c.endScope()
}

// finishLoop patches every pending break jump to the current position and
// pops the compiler's loop context.
func (c *Compiler) finishLoop() {
	lc := c.fs.popLoop()
	for _, j := range lc.breakJumps {
		c.patchJump(j)
	}
}

func (c *Compiler) breakStatement() {
	c.consume(lexer.TokSemicolon, "expected ';' after 'break'")
	lc := c.fs.currentLoop()
	if lc == nil {
		c.error("'break' outside of a loop")
		return
	}
	j := c.emitJump(bytecode.OpJump)
	lc.breakJumps = append(lc.breakJumps, j)
}

func (c *Compiler) continueStatement() {
	c.consume(lexer.TokSemicolon, "expected ';' after 'continue'")
	lc := c.fs.currentLoop()
	if lc == nil {
		c.error("'continue' outside of a loop")
		return
	}
	c.emitLoop(lc.loopStart)
}

// returnStatement compiles `return;` or `return expr;`. It is legal inside
// a process body too: OP_RETURN at a process's outermost frame pops that
// frame and finds the frame stack empty, which kills the process exactly
// like OP_HALT (§4.F) -- no separate restriction is needed.
func (c *Compiler) returnStatement() {
	if c.matchTok(lexer.TokSemicolon) {
		c.emitOp(bytecode.OpNil)
	} else {
		c.expression()
		c.consume(lexer.TokSemicolon, "expected ';' after return value")
	}
	c.emitOp(bytecode.OpReturn)
	c.fs.hasReturn = true
}

// switchStatement implements §4.D's duplicate-and-compare desugaring: one
// Jump-to-end per matched case gives "one-of-one" semantics with no
// fallthrough (S7, §8).
func (c *Compiler) switchStatement() {
	c.consume(lexer.TokLeftParen, "expected '(' after 'switch'")
	c.expression()
	c.consume(lexer.TokRightParen, "expected ')' after switch subject")
	c.consume(lexer.TokLeftBrace, "expected '{' before switch body")

	var endJumps []int
	caseCount := 0
	hasDefault := false

	for !c.check(lexer.TokRightBrace) && !c.check(lexer.TokEOF) {
		switch {
		case c.matchTok(lexer.TokCase):
			caseCount++
			c.emitOp(bytecode.OpDup)
			c.expression()
			c.consume(lexer.TokColon, "expected ':' after case expression")
			c.emitOp(bytecode.OpEqual)
			nextCase := c.emitJump(bytecode.OpJumpIfFalse)
			c.emitOp(bytecode.OpPop)
			for !c.check(lexer.TokCase) && !c.check(lexer.TokDefault) && !c.check(lexer.TokRightBrace) && !c.check(lexer.TokEOF) {
				c.statement()
			}
			endJumps = append(endJumps, c.emitJump(bytecode.OpJump))
			c.patchJump(nextCase)
			c.emitOp(bytecode.OpPop)
		case c.matchTok(lexer.TokDefault):
			hasDefault = true
			c.consume(lexer.TokColon, "expected ':' after 'default'")
			for !c.check(lexer.TokCase) && !c.check(lexer.TokDefault) && !c.check(lexer.TokRightBrace) && !c.check(lexer.TokEOF) {
				c.statement()
			}
			endJumps = append(endJumps, c.emitJump(bytecode.OpJump))
		default:
			c.errorAtCurrent("expected 'case' or 'default' inside switch")
			c.advance()
		}
	}
	c.consume(lexer.TokRightBrace, "expected '}' after switch body")

	if caseCount == 0 && !hasDefault {
		c.error("switch must have at least one case or a default")
	}

	for _, j := range endJumps {
		c.patchJump(j)
	}
	c.emitOp(bytecode.OpPop) // discard the subject
}
