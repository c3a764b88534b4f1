// Package compiler implements the single-pass Pratt parser of §4.D: a
// hand-written scanner feeds a token stream that the parser turns directly
// into bytecode chunks, tracking lexical scopes, loop contexts and the shared
// constant pool as it goes.
package compiler

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/akadjoker/budiv/internal/bytecode"
	"github.com/akadjoker/budiv/internal/lexer"
	"github.com/akadjoker/budiv/internal/value"
)

// Diagnostic is one compile error: a source line plus the message. The CLI
// (internal/diag) is responsible for rendering; the compiler only collects.
type Diagnostic struct {
	Line int
	Err  error
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("line %d: %v", d.Line, d.Err)
}

// Program is the compiled output: the root `_main_` process's function
// (§3 "main_process"), the deduplicated constant pool it and every nested
// function/process chunk reference, and the string pool backing every
// String value reachable from the constant pool.
type Program struct {
	Main      *value.FunctionObj
	Constants *value.ConstantPool
	Strings   *value.Pool
}

// Compiler drives the Pratt parser described by §4.D. One Compiler compiles
// exactly one source file into one Program.
type Compiler struct {
	scanner *lexer.Scanner

	previous lexer.Token
	current  lexer.Token

	hadError  bool
	panicMode bool
	diags     []Diagnostic

	pool      *value.Pool
	constants *value.ConstantPool

	fs *functionState
}

// Compile parses and compiles src, returning the Program and any
// diagnostics. A non-empty diagnostics slice means compilation failed: per
// §7, the CLI must not schedule anything in that case.
func Compile(src string) (*Program, []Diagnostic) {
	mainFn := &value.FunctionObj{Name: "_main_", Chunk: bytecode.NewChunk(), IsMain: true}
	c := &Compiler{
		scanner:   lexer.NewScanner(src),
		pool:      value.NewPool(),
		constants: value.NewConstantPool(),
	}
	// The root `_main_` process has no reserved x/y/angle registers (§3: it
	// is "the only one with no visual default") and no phantom callee slot
	// either, since it is spawned directly rather than reached via OP_CALL.
	c.fs = newFunctionState(nil, mainFn, false)

	c.advance()
	for !c.check(lexer.TokEOF) {
		c.declaration()
	}
	c.consume(lexer.TokEOF, "expected end of program")

	c.emitByte(byte(bytecode.OpNil))
	c.emitByte(byte(bytecode.OpReturn))

	if c.hadError {
		return nil, c.diags
	}
	return &Program{Main: mainFn, Constants: c.constants, Strings: c.pool}, nil
}

// advance moves current into previous and pulls the next non-error token
// from the scanner, reporting and continuing past any error tokens so a
// single bad character does not stop the whole scan (§4.C, §7).
func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scanner.Next()
		if c.current.Type != lexer.TokError {
			break
		}
		c.scanError(c.current.Lexeme)
	}
}

func (c *Compiler) check(t lexer.TokenType) bool {
	return c.current.Type == t
}

func (c *Compiler) matchTok(t lexer.TokenType) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t lexer.TokenType, msg string) {
	if c.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *Compiler) errorAtCurrent(msg string) {
	c.errorAt(c.current, "parse", msg)
}

func (c *Compiler) error(msg string) {
	c.errorAt(c.previous, "parse", msg)
}

// scanError reports an error token the scanner itself produced (§4.C),
// tagged with a distinct stage from ordinary parse errors so a diagnostic's
// cause chain shows which pipeline stage raised it.
func (c *Compiler) scanError(msg string) {
	c.errorAt(c.current, "scan", msg)
}

// errorAt implements §7's panic-mode resync: once in panic mode, further
// errors on the same statement are suppressed until synchronize() finds a
// statement boundary, but the overall compilation is still marked failed.
// msg is wrapped with the stage that raised it (errors.Wrap), giving the
// diagnostic a real cause chain instead of a bare errors.New.
func (c *Compiler) errorAt(tok lexer.Token, stage, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	c.diags = append(c.diags, Diagnostic{Line: tok.Line, Err: errors.Wrap(errors.New(msg), stage)})
}

// synchronize discards tokens until a statement boundary: a `;` or a
// statement-start keyword (§7).
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Type != lexer.TokEOF {
		if c.previous.Type == lexer.TokSemicolon {
			return
		}
		switch c.current.Type {
		case lexer.TokDef, lexer.TokProcess, lexer.TokVar, lexer.TokIf, lexer.TokWhile,
			lexer.TokFor, lexer.TokDo, lexer.TokLoop, lexer.TokSwitch, lexer.TokReturn,
			lexer.TokPrint, lexer.TokFrame:
			return
		}
		c.advance()
	}
}

func (c *Compiler) line() int {
	return c.previous.Line
}
