package vm

import "fmt"

// Outcome is the result of one Step or Run call.
type Outcome int

const (
	// Continue means the program is still running; RP has advanced.
	Continue Outcome = iota
	// Halted means the program executed a Halt instruction.
	Halted
	// Failed means the program hit an unrecoverable error (bad jump
	// target, division by zero, RP out of program bounds).
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Continue:
		return "Continue"
	case Halted:
		return "Halted"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// ExecutionError reports why a run Failed.
type ExecutionError struct {
	Addr int64
	Msg  string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("vm: execution failed at %d: %s", e.Addr, e.Msg)
}

// Program is a fixed sequence of instructions, addressed by RP.
type Program []Instruction

// Machine executes a Program against an ExecutionState, one instruction
// at a time. RP (register 15) is both the next-instruction pointer and a
// register any instruction may read. Only jumps change control flow: a
// write to RP by any other instruction is overwritten when RP advances.
type Machine struct {
	Program Program
	State   *ExecutionState
}

// NewMachine returns a Machine with RP reset to 0.
func NewMachine(program Program, state *ExecutionState) *Machine {
	state.SetReg(RP, 0)
	return &Machine{Program: program, State: state}
}

// Step executes the single instruction at the current RP and returns what
// happened. On Continue, RP has already been advanced (either past this
// instruction, or to a jump target). Step never panics on program
// content; a bad address or arithmetic fault reports Failed.
func (m *Machine) Step() (Outcome, error) {
	rp := m.State.Reg(RP)
	if rp < 0 || rp >= int64(len(m.Program)) {
		return Failed, &ExecutionError{Addr: rp, Msg: "program pointer out of bounds"}
	}
	ins := m.Program[rp]
	next := rp + 1

	switch ins.Op {
	case OpNoop:
		// no-op

	case OpHalt:
		m.State.SetReg(RP, next)
		return Halted, nil

	case OpArrIns:
		val := m.State.Reg(ins.A)
		arr := m.State.Reg(ins.B)
		idx := m.State.Reg(ins.C)
		m.State.ArrSet(arr, idx, val)

	case OpArrGet:
		arr := m.State.Reg(ins.B)
		idx := m.State.Reg(ins.C)
		m.State.SetReg(ins.A, m.State.ArrGet(arr, idx))

	case OpMovImm:
		m.State.SetReg(ins.A, int64(ins.Imm))

	case OpMov:
		m.State.SetReg(ins.A, m.State.Reg(ins.B))

	case OpJmp:
		next = m.State.Reg(ins.A)

	case OpJeq, OpJne, OpJgt, OpJge, OpJlt, OpJle:
		v0 := m.State.Reg(ins.B)
		v1 := m.State.Reg(ins.C)
		take := false
		switch ins.Op {
		case OpJeq:
			take = v0 == v1
		case OpJne:
			take = v0 != v1
		case OpJgt:
			take = v0 > v1
		case OpJge:
			take = v0 >= v1
		case OpJlt:
			take = v0 < v1
		case OpJle:
			take = v0 <= v1
		}
		if take {
			next = m.State.Reg(ins.A)
		}

	case OpAdd:
		m.State.SetReg(ins.A, m.State.Reg(ins.B)+m.State.Reg(ins.C))

	case OpMul:
		m.State.SetReg(ins.A, m.State.Reg(ins.B)*m.State.Reg(ins.C))

	case OpDiv:
		divisor := m.State.Reg(ins.C)
		if divisor == 0 {
			return Failed, &ExecutionError{Addr: rp, Msg: "division by zero"}
		}
		m.State.SetReg(ins.A, m.State.Reg(ins.B)/divisor)

	case OpMod:
		divisor := m.State.Reg(ins.C)
		if divisor == 0 {
			return Failed, &ExecutionError{Addr: rp, Msg: "modulo by zero"}
		}
		m.State.SetReg(ins.A, m.State.Reg(ins.B)%divisor)

	default:
		return Failed, &ExecutionError{Addr: rp, Msg: fmt.Sprintf("unknown opcode %d", ins.Op)}
	}

	m.State.SetReg(RP, next)
	return Continue, nil
}

// StepCapExceeded reports that a Run terminated only because it hit its
// step budget, not because the program halted or failed on its own.
type StepCapExceeded struct {
	Steps int
}

func (e *StepCapExceeded) Error() string {
	return fmt.Sprintf("vm: step cap of %d exceeded", e.Steps)
}

// Run steps the machine until it halts, fails, or exceeds maxSteps. A
// step-cap exhaustion is reported as Failed with a *StepCapExceeded
// error, so callers can treat it uniformly with any other execution
// failure.
func (m *Machine) Run(maxSteps int) (Outcome, error) {
	for i := 0; i < maxSteps; i++ {
		outcome, err := m.Step()
		if outcome != Continue {
			return outcome, err
		}
	}
	return Failed, &StepCapExceeded{Steps: maxSteps}
}
