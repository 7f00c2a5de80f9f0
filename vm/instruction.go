// Package vm implements the bidding VM: a 16-register machine with sparse
// arrays, used to run untrusted participant programs against a book
// snapshot. See runner.Run for how it is wired into one bidding round.
package vm

// RegIdx is a register index, 0..15. R15 is the program pointer (RP).
type RegIdx uint8

// RP is the register holding the program pointer.
const RP RegIdx = 15

// NumRegisters is the number of general registers, including RP.
const NumRegisters = 16

// Op identifies one instruction's operation.
type Op uint8

const (
	OpArrIns Op = iota
	OpArrGet
	OpMovImm
	OpMov
	OpJmp
	OpJeq
	OpJne
	OpJgt
	OpJge
	OpJlt
	OpJle
	OpAdd
	OpMul
	OpDiv
	OpMod
	OpHalt
	OpNoop
)

var mnemonics = map[Op]string{
	OpArrIns: "arrins",
	OpArrGet: "arrget",
	OpMovImm: "movimm",
	OpMov:    "mov",
	OpJmp:    "jmp",
	OpJeq:    "jeq",
	OpJne:    "jne",
	OpJgt:    "jgt",
	OpJge:    "jge",
	OpJlt:    "jlt",
	OpJle:    "jle",
	OpAdd:    "add",
	OpMul:    "mul",
	OpDiv:    "div",
	OpMod:    "mod",
	OpHalt:   "halt",
	OpNoop:   "noop",
}

func (o Op) String() string {
	if s, ok := mnemonics[o]; ok {
		return s
	}
	return "unknown"
}

// Instruction is one decoded bytecode instruction. Not every field is used
// by every Op; each Op's operand layout is:
//
//	ArrIns val arr idx   -> A=val, B=arr, C=idx
//	ArrGet dst arr idx    -> A=dst, B=arr, C=idx
//	MovImm dst imm        -> A=dst, Imm=imm
//	Mov dst src           -> A=dst, B=src
//	Jmp adr               -> A=adr
//	Jeq/Jne/Jgt/Jge/Jlt/Jle adr v0 v1 -> A=adr, B=v0, C=v1
//	Add/Mul/Div/Mod dst v0 v1         -> A=dst, B=v0, C=v1
//	Halt, Noop            -> no operands
type Instruction struct {
	Op  Op
	A   RegIdx
	B   RegIdx
	C   RegIdx
	Imm int32
}
