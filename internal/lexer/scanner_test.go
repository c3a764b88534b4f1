package lexer

import "testing"

func scanAll(t *testing.T, src string) []Token {
	t.Helper()
	s := NewScanner(src)
	var toks []Token
	for {
		tok := s.Next()
		toks = append(toks, tok)
		if tok.Type == TokEOF || tok.Type == TokError {
			break
		}
	}
	return toks
}

func typesOf(toks []Token) []TokenType {
	out := make([]TokenType, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func assertTypes(t *testing.T, got []TokenType, want ...TokenType) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d tokens %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestScannerStructuralTokens(t *testing.T) {
	toks := scanAll(t, "(){};,:")
	assertTypes(t, typesOf(toks),
		TokLeftParen, TokRightParen, TokLeftBrace, TokRightBrace,
		TokSemicolon, TokComma, TokColon, TokEOF)
}

func TestScannerNumberAndString(t *testing.T) {
	toks := scanAll(t, `3.14 "hello"`)
	assertTypes(t, typesOf(toks), TokNumber, TokString, TokEOF)
	if toks[0].Lexeme != "3.14" {
		t.Fatalf("number lexeme = %q", toks[0].Lexeme)
	}
	if toks[1].Lexeme != `"hello"` {
		t.Fatalf("string lexeme = %q", toks[1].Lexeme)
	}
}

func TestScannerUnterminatedString(t *testing.T) {
	toks := scanAll(t, `"never closes`)
	last := toks[len(toks)-1]
	if last.Type != TokError {
		t.Fatalf("want an error token, got %v", last.Type)
	}
}

func TestScannerIdentifiersAreCaseFolded(t *testing.T) {
	toks := scanAll(t, "IF While PROCESS myVar")
	assertTypes(t, typesOf(toks), TokIf, TokWhile, TokProcess, TokIdentifier, TokEOF)
	if toks[3].Lexeme != "myVar" {
		t.Fatalf("identifier lexeme should keep original case, got %q", toks[3].Lexeme)
	}
}

func TestScannerCompoundAndIncrementTokens(t *testing.T) {
	toks := scanAll(t, "+= -= *= /= ++ --")
	assertTypes(t, typesOf(toks),
		TokPlusEqual, TokMinusEqual, TokStarEqual, TokSlashEqual,
		TokPlusPlus, TokMinusMinus, TokEOF)
}

func TestScannerComments(t *testing.T) {
	toks := scanAll(t, "1 // a comment\n2 /* block\ncomment */ 3")
	assertTypes(t, typesOf(toks), TokNumber, TokNumber, TokNumber, TokEOF)
}

func TestScannerNestedBlockComment(t *testing.T) {
	toks := scanAll(t, "/* outer /* inner */ still outer */ 1")
	assertTypes(t, typesOf(toks), TokNumber, TokEOF)
}

func TestScannerUnterminatedBlockComment(t *testing.T) {
	toks := scanAll(t, "/* never closes")
	last := toks[len(toks)-1]
	if last.Type != TokError {
		t.Fatalf("want an error token, got %v", last.Type)
	}
}

func TestScannerReservedWordsLexAsKeywords(t *testing.T) {
	toks := scanAll(t, "program class this len import")
	assertTypes(t, typesOf(toks), TokProgram, TokClass, TokThis, TokLen, TokImport, TokEOF)
}

func TestScannerLineTracking(t *testing.T) {
	toks := scanAll(t, "1\n2\n\n3")
	if toks[0].Line != 1 || toks[1].Line != 2 || toks[2].Line != 4 {
		t.Fatalf("line numbers = %d,%d,%d", toks[0].Line, toks[1].Line, toks[2].Line)
	}
}
