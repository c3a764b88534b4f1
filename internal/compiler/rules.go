package compiler

import "github.com/akadjoker/budiv/internal/lexer"

// Precedence levels, lowest to highest (§4.D).
type Precedence uint8

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecXor
	PrecAnd
	PrecBitOr
	PrecBitXor
	PrecBitAnd
	PrecEquality
	PrecComparison
	PrecShift
	PrecTerm
	PrecFactor
	PrecPower
	PrecUnary
	PrecCall
	PrecPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type rule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

// rules is the table a Pratt parser dispatches through, indexed by token
// kind (§4.D: "{prefix fn, infix fn, precedence}").
var rules map[lexer.TokenType]rule

func init() {
	rules = map[lexer.TokenType]rule{
		lexer.TokLeftParen:  {prefix: (*Compiler).grouping, infix: (*Compiler).call, precedence: PrecCall},
		lexer.TokMinus:      {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: PrecTerm},
		lexer.TokPlus:       {infix: (*Compiler).binary, precedence: PrecTerm},
		lexer.TokSlash:      {infix: (*Compiler).binary, precedence: PrecFactor},
		lexer.TokStar:       {infix: (*Compiler).binary, precedence: PrecFactor},
		lexer.TokPercent:    {infix: (*Compiler).binary, precedence: PrecFactor},
		lexer.TokCaret:      {infix: (*Compiler).binary, precedence: PrecPower},
		lexer.TokNot:        {prefix: (*Compiler).unary},
		lexer.TokBangEqual:  {infix: (*Compiler).binary, precedence: PrecEquality},
		lexer.TokEqualEqual: {infix: (*Compiler).binary, precedence: PrecEquality},
		lexer.TokGreater:        {infix: (*Compiler).binary, precedence: PrecComparison},
		lexer.TokGreaterEqual:   {infix: (*Compiler).binary, precedence: PrecComparison},
		lexer.TokLess:           {infix: (*Compiler).binary, precedence: PrecComparison},
		lexer.TokLessEqual:      {infix: (*Compiler).binary, precedence: PrecComparison},
		lexer.TokAnd: {infix: (*Compiler).and_, precedence: PrecAnd},
		lexer.TokOr:  {infix: (*Compiler).or_, precedence: PrecOr},
		lexer.TokXor: {infix: (*Compiler).xor_, precedence: PrecXor},
		lexer.TokIdentifier: {prefix: (*Compiler).variable},
		lexer.TokString:     {prefix: (*Compiler).stringLit},
		lexer.TokNumber:     {prefix: (*Compiler).number},
		lexer.TokTrue:       {prefix: (*Compiler).literal},
		lexer.TokFalse:      {prefix: (*Compiler).literal},
		lexer.TokNil:        {prefix: (*Compiler).literal},
		lexer.TokNow:        {prefix: (*Compiler).now},

		// reserved but unimplemented (§9): lexed as keywords, no grammar
		// rule, report a dedicated diagnostic instead of a generic one.
		lexer.TokProgram: {prefix: (*Compiler).reservedWord},
		lexer.TokClass:   {prefix: (*Compiler).reservedWord},
		lexer.TokThis:    {prefix: (*Compiler).reservedWord},
		lexer.TokLen:     {prefix: (*Compiler).reservedWord},
		lexer.TokImport:  {prefix: (*Compiler).reservedWord},
	}
}

func getRule(t lexer.TokenType) rule {
	return rules[t]
}
