package compiler

import (
	"testing"

	"github.com/akadjoker/budiv/internal/bytecode"
	"github.com/akadjoker/budiv/internal/value"
)

// operandWidth returns how many operand bytes follow an opcode, mirroring
// the encoding table (§6): 0 for plain ops, 1 for locals/constants/argc, 2
// for jump/loop offsets.
func operandWidth(op bytecode.Op) int {
	switch op {
	case bytecode.OpConstant, bytecode.OpGetLocal, bytecode.OpSetLocal, bytecode.OpDefineLocal,
		bytecode.OpGetGlobal, bytecode.OpSetGlobal, bytecode.OpDefineGlobal, bytecode.OpCall:
		return 1
	case bytecode.OpJump, bytecode.OpJumpIfFalse, bytecode.OpJumpIfTrue, bytecode.OpLoop:
		return 2
	default:
		return 0
	}
}

// opSequence walks a chunk's bytecode and returns just the opcodes, skipping
// operand bytes, so tests can assert instruction shape without hardcoding
// constant-pool indices or jump offsets.
func opSequence(t *testing.T, chunk *bytecode.Chunk) []bytecode.Op {
	t.Helper()
	var ops []bytecode.Op
	ip := 0
	for ip < chunk.Len() {
		op := bytecode.Op(chunk.Code[ip])
		ops = append(ops, op)
		ip += 1 + operandWidth(op)
	}
	return ops
}

func mustCompile(t *testing.T, src string) *Program {
	t.Helper()
	prog, diags := Compile(src)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics for %q: %v", src, diags)
	}
	return prog
}

func mustFail(t *testing.T, src string) []Diagnostic {
	t.Helper()
	prog, diags := Compile(src)
	if len(diags) == 0 {
		t.Fatalf("expected a diagnostic for %q, compiled fine: %+v", src, prog)
	}
	return diags
}

// TestChunkParallelism is Testable Property 2: Code and Lines always have
// equal length.
func TestChunkParallelism(t *testing.T) {
	prog := mustCompile(t, `print(1 + 2 * 3);`)
	chunk := prog.Main.Chunk
	if len(chunk.Code) != len(chunk.Lines) {
		t.Fatalf("Code has %d bytes, Lines has %d entries", len(chunk.Code), len(chunk.Lines))
	}
}

// TestExpressionStatementStackNeutral is Testable Property 4: every
// expression statement ends with a Pop, leaving the stack depth unchanged.
func TestExpressionStatementStackNeutral(t *testing.T) {
	prog := mustCompile(t, `1 + 2;`)
	ops := opSequence(t, prog.Main.Chunk)
	foundPop := false
	for _, op := range ops {
		if op == bytecode.OpPop {
			foundPop = true
		}
	}
	if !foundPop {
		t.Fatalf("expected an OP_POP after the expression statement, got %v", ops)
	}
}

func TestConstantPoolDeduplicatesRepeatedLiterals(t *testing.T) {
	prog := mustCompile(t, `print("hi"); print("hi"); print(1); print(1);`)
	if prog.Constants.Len() != 2 {
		t.Fatalf("want 2 unique constants (\"hi\", 1), got %d", prog.Constants.Len())
	}
}

func TestVarDeclarationCompilesAsLocalEvenAtTopLevel(t *testing.T) {
	prog := mustCompile(t, `var a = 1; print(a);`)
	ops := opSequence(t, prog.Main.Chunk)
	for _, op := range ops {
		if op == bytecode.OpDefineGlobal || op == bytecode.OpGetGlobal || op == bytecode.OpSetGlobal {
			t.Fatalf("top-level `var` must never touch the global table, got %v", ops)
		}
	}
}

func TestFunctionDeclarationBindsAGlobal(t *testing.T) {
	prog := mustCompile(t, `def add(a, b) { return a + b; } print(add(1, 2));`)
	ops := opSequence(t, prog.Main.Chunk)
	sawDefine := false
	for _, op := range ops {
		if op == bytecode.OpDefineGlobal {
			sawDefine = true
		}
	}
	if !sawDefine {
		t.Fatalf("expected `def` to emit OP_DEFINE_GLOBAL, got %v", ops)
	}
}

func TestProcessDeclarationEmitsProcessConstant(t *testing.T) {
	prog := mustCompile(t, `process mover(speed) { frame(100); } mover(5);`)
	found := false
	for i := 0; i < prog.Constants.Len(); i++ {
		if prog.Constants.Get(i).Kind() == value.Process {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a process template in the constant pool")
	}
}

func TestIfElifElseCompiles(t *testing.T) {
	prog := mustCompile(t, `
		var a = 1;
		if (a == 1) { print("one"); }
		elif (a == 2) { print("two"); }
		else { print("other"); }
	`)
	ops := opSequence(t, prog.Main.Chunk)
	count := 0
	for _, op := range ops {
		if op == bytecode.OpJumpIfFalse {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("want 2 OP_JUMP_IF_FALSE (if + elif), got %d in %v", count, ops)
	}
}

func TestWhileLoopEmitsBackwardLoop(t *testing.T) {
	prog := mustCompile(t, `var i = 0; while (i < 10) { i += 1; }`)
	ops := opSequence(t, prog.Main.Chunk)
	found := false
	for _, op := range ops {
		if op == bytecode.OpLoop {
			found = true
		}
	}
	if !found {
		t.Fatalf("want an OP_LOOP in a while loop, got %v", ops)
	}
}

func TestBreakInsideLoopJumpsPastIt(t *testing.T) {
	prog := mustCompile(t, `loop { break; }`)
	chunk := prog.Main.Chunk
	// JUMP at 0 (operand 1-2), LOOP at 3 (operand 4-5): the break must land
	// at 6, just past the LOOP.
	if op := bytecode.Op(chunk.Code[0]); op != bytecode.OpJump {
		t.Fatalf("want the break's OP_JUMP first, got %s", op.Name())
	}
	if target := 3 + int(chunk.ReadU16(1)); target != 6 {
		t.Fatalf("break jumps to %d, want 6 (just past the OP_LOOP)", target)
	}
}

func TestBreakOutsideLoopIsAnError(t *testing.T) {
	mustFail(t, `break;`)
}

func TestContinueOutsideLoopIsAnError(t *testing.T) {
	mustFail(t, `continue;`)
}

func TestSwitchWithNoCasesIsAnError(t *testing.T) {
	mustFail(t, `switch (1) { }`)
}

func TestSwitchCompilesOneJumpPerCasePlusDefault(t *testing.T) {
	prog := mustCompile(t, `
		switch (1) {
			case 1: print("a");
			case 2: print("b");
			default: print("c");
		}
	`)
	ops := opSequence(t, prog.Main.Chunk)
	jumps := 0
	for _, op := range ops {
		if op == bytecode.OpJump {
			jumps++
		}
	}
	if jumps != 3 {
		t.Fatalf("want 3 end-of-case OP_JUMPs (2 cases + default), got %d in %v", jumps, ops)
	}
}

func TestReadingOwnInitializerIsAnError(t *testing.T) {
	mustFail(t, `var a = a;`)
}

func TestRedeclaringInSameScopeIsAnError(t *testing.T) {
	mustFail(t, `var a = 1; var a = 2;`)
}

func TestReservedWordsAreRejected(t *testing.T) {
	for _, src := range []string{"program;", "class;", "this;", "len;", "import;"} {
		mustFail(t, src)
	}
}

func TestReturnInsideProcessIsLegal(t *testing.T) {
	mustCompile(t, `process p() { return; }`)
}

func TestCompoundAssignmentDesugars(t *testing.T) {
	prog := mustCompile(t, `var a = 1; a += 2;`)
	ops := opSequence(t, prog.Main.Chunk)
	found := false
	for _, op := range ops {
		if op == bytecode.OpAdd {
			found = true
		}
	}
	if !found {
		t.Fatalf("`+=` should desugar through OP_ADD, got %v", ops)
	}
}

func TestIncrementDesugars(t *testing.T) {
	prog := mustCompile(t, `var a = 1; a++;`)
	ops := opSequence(t, prog.Main.Chunk)
	found := false
	for _, op := range ops {
		if op == bytecode.OpAdd {
			found = true
		}
	}
	if !found {
		t.Fatalf("`++` should desugar through OP_ADD, got %v", ops)
	}
}

func TestPowerIsRightAssociative(t *testing.T) {
	// 2^3^2 should parse as 2^(3^2) -- right-associative, like the redesigned
	// math rule the teacher's corpus does not otherwise exercise.
	prog := mustCompile(t, `print(2 ^ 3 ^ 2);`)
	ops := opSequence(t, prog.Main.Chunk)
	want := []bytecode.Op{bytecode.OpConstant, bytecode.OpConstant, bytecode.OpConstant, bytecode.OpPower, bytecode.OpPower}
	for i, op := range want {
		if i >= len(ops) || ops[i] != op {
			t.Fatalf("want all three operands pushed before both OP_POWERs, got %v", ops)
		}
	}
}

func TestAndOrShortCircuitWithoutAndOrOpcodes(t *testing.T) {
	prog := mustCompile(t, `print(true and false); print(true or false);`)
	ops := opSequence(t, prog.Main.Chunk)
	for _, op := range ops {
		if op == bytecode.OpAnd || op == bytecode.OpOr {
			t.Fatalf("`and`/`or` should short-circuit via jumps, not emit OP_AND/OP_OR: %v", ops)
		}
	}
}

func TestTooManyConstantsIsDiagnosed(t *testing.T) {
	src := ""
	for i := 0; i < 300; i++ {
		src += "print(" + itoa(i) + ");"
	}
	mustFail(t, src)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
