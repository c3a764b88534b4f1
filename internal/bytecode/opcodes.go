package bytecode

// Op is an 8-bit opcode (§6: "opcodes are 8-bit"). Grouped the way the
// teacher's ICode table in internal/runtime/instructionset.go groups its
// instruction set: one block per concern, numbered with gaps so a new
// instruction can be slotted into its group later without renumbering
// everything after it.
type Op uint8

const (
	OpNop Op = 0

	// literals
	OpConstant Op = 10 // Constant k -- push constants[k]
	OpNil      Op = 11
	OpTrue     Op = 12
	OpFalse    Op = 13

	// stack shuffling
	OpPop Op = 20
	OpDup Op = 21

	// arithmetic
	OpAdd      Op = 30
	OpSubtract Op = 31
	OpMultiply Op = 32
	OpDivide   Op = 33
	OpModulo   Op = 34
	OpPower    Op = 35
	OpNegate   Op = 36

	// comparison
	OpEqual        Op = 40
	OpNotEqual     Op = 41
	OpGreater      Op = 42
	OpGreaterEqual Op = 43
	OpLess         Op = 44
	OpLessEqual    Op = 45

	// logic
	OpAnd Op = 50
	OpOr  Op = 51
	OpXor Op = 52
	OpNot Op = 53

	// variables
	OpGetLocal     Op = 60 // operand: 8-bit slot
	OpSetLocal     Op = 61
	OpDefineLocal  Op = 62
	OpGetGlobal    Op = 63 // operand: 8-bit constant-pool index (name)
	OpSetGlobal    Op = 64
	OpDefineGlobal Op = 65

	// control flow -- jump/loop operands are 16-bit big-endian (§6)
	OpJump        Op = 70
	OpJumpIfFalse Op = 71
	OpJumpIfTrue  Op = 72
	OpLoop        Op = 73
	OpBreak       Op = 74 // reserved: never emitted, see §9
	OpContinue    Op = 75 // reserved: never emitted, see §9

	// calls and frames
	OpCall   Op = 80 // operand: 8-bit argc
	OpReturn Op = 81
	OpHalt   Op = 82
	OpFrame  Op = 83

	// misc
	OpPrint Op = 90
	OpNow   Op = 91

	// LastOp is a mark, not a real instruction -- matches the teacher's LDOP
	// sentinel in internal/runtime/instructionset.go.
	LastOp Op = 255
)

// Name renders an Op the way a disassembler or a runtime-error message
// needs it.
func (op Op) Name() string {
	switch op {
	case OpNop:
		return "NOP"
	case OpConstant:
		return "CONSTANT"
	case OpNil:
		return "NIL"
	case OpTrue:
		return "TRUE"
	case OpFalse:
		return "FALSE"
	case OpPop:
		return "POP"
	case OpDup:
		return "DUP"
	case OpAdd:
		return "ADD"
	case OpSubtract:
		return "SUBTRACT"
	case OpMultiply:
		return "MULTIPLY"
	case OpDivide:
		return "DIVIDE"
	case OpModulo:
		return "MODULO"
	case OpPower:
		return "POWER"
	case OpNegate:
		return "NEGATE"
	case OpEqual:
		return "EQUAL"
	case OpNotEqual:
		return "NOT_EQUAL"
	case OpGreater:
		return "GREATER"
	case OpGreaterEqual:
		return "GREATER_EQUAL"
	case OpLess:
		return "LESS"
	case OpLessEqual:
		return "LESS_EQUAL"
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	case OpXor:
		return "XOR"
	case OpNot:
		return "NOT"
	case OpGetLocal:
		return "GET_LOCAL"
	case OpSetLocal:
		return "SET_LOCAL"
	case OpDefineLocal:
		return "DEFINE_LOCAL"
	case OpGetGlobal:
		return "GET_GLOBAL"
	case OpSetGlobal:
		return "SET_GLOBAL"
	case OpDefineGlobal:
		return "DEFINE_GLOBAL"
	case OpJump:
		return "JUMP"
	case OpJumpIfFalse:
		return "JUMP_IF_FALSE"
	case OpJumpIfTrue:
		return "JUMP_IF_TRUE"
	case OpLoop:
		return "LOOP"
	case OpBreak:
		return "BREAK"
	case OpContinue:
		return "CONTINUE"
	case OpCall:
		return "CALL"
	case OpReturn:
		return "RETURN"
	case OpHalt:
		return "HALT"
	case OpFrame:
		return "FRAME"
	case OpPrint:
		return "PRINT"
	case OpNow:
		return "NOW"
	default:
		return "UNKNOWN"
	}
}

// MaxLocals and MaxConstants are the per-function limits implied by 8-bit
// operands (§6): 256 locals and 256 constants. Overflow must be diagnosed at
// compile time, not silently truncated.
const (
	MaxLocals    = 256
	MaxConstants = 256
	MaxJump      = 1<<16 - 1
)
