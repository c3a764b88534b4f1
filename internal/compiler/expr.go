package compiler

import (
	"strconv"

	"github.com/akadjoker/budiv/internal/bytecode"
	"github.com/akadjoker/budiv/internal/lexer"
	"github.com/akadjoker/budiv/internal/value"
)

// expression compiles one expression at PrecAssignment, the entry point
// every statement-level expression and sub-expression goes through.
func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

// parsePrecedence is the Pratt parser's core loop (§4.D): consume one
// prefix, then keep consuming infix operators whose precedence is at least
// the requested floor.
func (c *Compiler) parsePrecedence(prec Precedence) {
	c.advance()
	r := getRule(c.previous.Type)
	if r.prefix == nil {
		c.error("expected an expression")
		return
	}
	// canAssign is true iff the enclosing precedence <= Assignment (§4.D
	// assignability rule) -- only then may `= expr` follow a prefix target.
	canAssign := prec <= PrecAssignment
	r.prefix(c, canAssign)

	for {
		next := getRule(c.current.Type)
		if prec > next.precedence {
			break
		}
		c.advance()
		infix := getRule(c.previous.Type).infix
		infix(c, canAssign)
	}

	if canAssign && c.check(lexer.TokEqual) {
		c.errorAtCurrent("invalid assignment target")
	}
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(lexer.TokRightParen, "expected ')' after expression")
}

func (c *Compiler) unary(canAssign bool) {
	opType := c.previous.Type
	c.parsePrecedence(PrecUnary)
	switch opType {
	case lexer.TokMinus:
		c.emitOp(bytecode.OpNegate)
	case lexer.TokNot:
		c.emitOp(bytecode.OpNot)
	}
}

func (c *Compiler) binary(canAssign bool) {
	opType := c.previous.Type
	r := getRule(opType)
	rightPrec := r.precedence + 1
	if opType == lexer.TokCaret {
		rightPrec = r.precedence // right-associative power
	}
	c.parsePrecedence(rightPrec)
	switch opType {
	case lexer.TokPlus:
		c.emitOp(bytecode.OpAdd)
	case lexer.TokMinus:
		c.emitOp(bytecode.OpSubtract)
	case lexer.TokStar:
		c.emitOp(bytecode.OpMultiply)
	case lexer.TokSlash:
		c.emitOp(bytecode.OpDivide)
	case lexer.TokPercent:
		c.emitOp(bytecode.OpModulo)
	case lexer.TokCaret:
		c.emitOp(bytecode.OpPower)
	case lexer.TokEqualEqual:
		c.emitOp(bytecode.OpEqual)
	case lexer.TokBangEqual:
		c.emitOp(bytecode.OpNotEqual)
	case lexer.TokGreater:
		c.emitOp(bytecode.OpGreater)
	case lexer.TokGreaterEqual:
		c.emitOp(bytecode.OpGreaterEqual)
	case lexer.TokLess:
		c.emitOp(bytecode.OpLess)
	case lexer.TokLessEqual:
		c.emitOp(bytecode.OpLessEqual)
	}
}

// and_ / or_ implement short-circuit logic via peek + conditional jump + pop
// (§4.F); xor_ materializes both operands since it cannot short-circuit.
func (c *Compiler) and_(canAssign bool) {
	endJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or_(canAssign bool) {
	endJump := c.emitJump(bytecode.OpJumpIfTrue)
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

func (c *Compiler) xor_(canAssign bool) {
	c.parsePrecedence(PrecXor + 1)
	c.emitOp(bytecode.OpXor)
}

func (c *Compiler) number(canAssign bool) {
	n, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.error("invalid number literal")
		return
	}
	c.emitConstant(value.Num(n))
}

func (c *Compiler) stringLit(canAssign bool) {
	raw := c.previous.Lexeme
	s := raw[1 : len(raw)-1] // strip the surrounding quotes, no escapes
	c.emitConstant(value.Str(c.pool.Intern(s)))
}

func (c *Compiler) literal(canAssign bool) {
	switch c.previous.Type {
	case lexer.TokTrue:
		c.emitOp(bytecode.OpTrue)
	case lexer.TokFalse:
		c.emitOp(bytecode.OpFalse)
	case lexer.TokNil:
		c.emitOp(bytecode.OpNil)
	}
}

func (c *Compiler) now(canAssign bool) {
	c.emitOp(bytecode.OpNow)
}

func (c *Compiler) variable(canAssign bool) {
	name := c.previous.Lexeme
	c.namedVariable(name, canAssign)
}

// reservedWord reports §9's "reserved but unimplemented" keywords
// (program, class, this, len, import) with a dedicated diagnostic rather
// than the generic "expected an expression."
func (c *Compiler) reservedWord(canAssign bool) {
	name := lexer.ReservedWords[c.previous.Type]
	c.error("'" + name + "' is reserved and not implemented")
}

// call compiles the `(` infix rule: an argument list applied to whatever
// expression is already on the stack as the callee (§4.F OP_CALL).
func (c *Compiler) call(canAssign bool) {
	argc := c.argumentList()
	c.emitOpByte(bytecode.OpCall, argc)
}

func (c *Compiler) argumentList() byte {
	count := 0
	if !c.check(lexer.TokRightParen) {
		for {
			c.expression()
			if count == 255 {
				c.error("cannot pass more than 255 arguments")
			}
			count++
			if !c.matchTok(lexer.TokComma) {
				break
			}
		}
	}
	c.consume(lexer.TokRightParen, "expected ')' after arguments")
	return byte(count)
}
