package asm

import (
	"fmt"
	"strconv"

	"tinyrv.dev/compiler/pkg/riscv"
)

// ----------------------------------------------------------------------------
// Asm Lowerer

// Format identifies which RV32 instruction-word layout a Resolved value
// packs into. FormatSkip marks a line that occupies an instruction index
// (for label-offset arithmetic) but emits no bytes — currently only "ret".
type Format int

const (
	FormatR Format = iota
	FormatI
	FormatS
	FormatB
	FormatU
	FormatJ
	FormatSkip
)

// Resolved is one fully-resolved instruction: every register has been
// mapped to its 5-bit index, every label reference has been turned into a
// concrete PC-relative byte offset, and every pseudo-instruction has been
// lowered to the real instruction it stands for. It carries everything
// the encoder in pkg/riscv needs and nothing it doesn't.
type Resolved struct {
	Format              Format
	Opcode, Funct3, Funct7 uint32
	Rd, Rs1, Rs2        uint32
	Imm                 int32
}

// Lowerer takes an asm.Program and produces the Resolved instruction list
// ready for encoding.
//
// Like the Hack lowerer this repo is descended from, resolution is a
// single DFS-order pass over the program that builds the label table as it
// goes; here that table doubles as the input to a second pass, since branch
// and jump offsets need the complete table before they can be computed.
type Lowerer struct{ program Program }

// NewLowerer returns a Lowerer for program.
func NewLowerer(p Program) Lowerer {
	return Lowerer{program: p}
}

// Lower resolves every line of the program. Pass one walks the program in
// order, assigning each Instruction the index of the next emittable word
// (labels don't consume an index; they resolve to the index that follows
// them). Pass two walks it again, this time turning every Instruction into
// a Resolved value using the now-complete table.
func (l *Lowerer) Lower() ([]Resolved, error) {
	table := map[string]int{}
	index := 0
	for _, line := range l.program {
		switch tLine := line.(type) {
		case Label:
			table[tLine.Name] = index
		case Instruction:
			index++
		default:
			return nil, fmt.Errorf("unrecognized line %T", line)
		}
	}

	resolved := make([]Resolved, 0, index)
	index = 0
	for _, line := range l.program {
		inst, ok := line.(Instruction)
		if !ok {
			continue
		}
		r, err := resolveInstruction(inst, index, table)
		if err != nil {
			return nil, fmt.Errorf("instruction %d (%s): %w", index, inst.Mnemonic, err)
		}
		resolved = append(resolved, r)
		index++
	}

	return resolved, nil
}

// resolveOperand turns an operand token into a value: a decimal literal
// parses directly, anything else is looked up as a label and turned into
// a PC-relative byte offset from the instruction at index.
func resolveOperand(tok string, index int, table map[string]int) (int32, error) {
	if n, err := strconv.ParseInt(tok, 10, 32); err == nil {
		return int32(n), nil
	}
	target, ok := table[tok]
	if !ok {
		return 0, fmt.Errorf("undefined label %q", tok)
	}
	return int32((target - index) * 4), nil
}

func reg(name string) (uint32, error) { return riscv.Register(name) }

// resolveInstruction lowers one raw Instruction to its Resolved form,
// expanding the li/mv/seqz/snez/ret pseudo-instructions along the way.
func resolveInstruction(inst Instruction, index int, table map[string]int) (Resolved, error) {
	ops := inst.Operands

	switch inst.Mnemonic {
	case "ret":
		return Resolved{Format: FormatSkip}, nil

	case "li": // li rd, imm -> addi rd, zero, imm
		if len(ops) != 2 {
			return Resolved{}, fmt.Errorf("li expects 2 operands, got %d", len(ops))
		}
		rd, err := reg(ops[0])
		if err != nil {
			return Resolved{}, err
		}
		imm, err := resolveOperand(ops[1], index, table)
		if err != nil {
			return Resolved{}, err
		}
		spec := riscv.ITable["addi"]
		return Resolved{Format: FormatI, Opcode: spec.Opcode, Funct3: spec.Funct3, Rd: rd, Rs1: 0, Imm: imm}, nil

	case "mv": // mv rd, rs -> addi rd, rs, 0
		if len(ops) != 2 {
			return Resolved{}, fmt.Errorf("mv expects 2 operands, got %d", len(ops))
		}
		rd, err := reg(ops[0])
		if err != nil {
			return Resolved{}, err
		}
		rs, err := reg(ops[1])
		if err != nil {
			return Resolved{}, err
		}
		spec := riscv.ITable["addi"]
		return Resolved{Format: FormatI, Opcode: spec.Opcode, Funct3: spec.Funct3, Rd: rd, Rs1: rs, Imm: 0}, nil

	case "seqz": // seqz rd, rs -> sltiu rd, rs, 1
		if len(ops) != 2 {
			return Resolved{}, fmt.Errorf("seqz expects 2 operands, got %d", len(ops))
		}
		rd, err := reg(ops[0])
		if err != nil {
			return Resolved{}, err
		}
		rs, err := reg(ops[1])
		if err != nil {
			return Resolved{}, err
		}
		spec := riscv.ITable["sltiu"]
		return Resolved{Format: FormatI, Opcode: spec.Opcode, Funct3: spec.Funct3, Rd: rd, Rs1: rs, Imm: 1}, nil

	case "snez": // snez rd, rs -> sltu rd, zero, rs
		if len(ops) != 2 {
			return Resolved{}, fmt.Errorf("snez expects 2 operands, got %d", len(ops))
		}
		rd, err := reg(ops[0])
		if err != nil {
			return Resolved{}, err
		}
		rs, err := reg(ops[1])
		if err != nil {
			return Resolved{}, err
		}
		spec := riscv.RTable["sltu"]
		return Resolved{Format: FormatR, Opcode: riscv.OpcodeR, Funct3: spec.Funct3, Funct7: spec.Funct7, Rd: rd, Rs1: 0, Rs2: rs}, nil

	case "j": // j label, rd is implicitly zero
		if len(ops) != 1 {
			return Resolved{}, fmt.Errorf("j expects 1 operand, got %d", len(ops))
		}
		imm, err := resolveOperand(ops[0], index, table)
		if err != nil {
			return Resolved{}, err
		}
		return Resolved{Format: FormatJ, Opcode: riscv.OpcodeJAL, Rd: 0, Imm: imm}, nil

	case "beqz": // beqz rs1, label, rs2 is implicitly zero
		if len(ops) != 2 {
			return Resolved{}, fmt.Errorf("beqz expects 2 operands, got %d", len(ops))
		}
		rs1, err := reg(ops[0])
		if err != nil {
			return Resolved{}, err
		}
		imm, err := resolveOperand(ops[1], index, table)
		if err != nil {
			return Resolved{}, err
		}
		return Resolved{Format: FormatB, Opcode: riscv.OpcodeBranch, Funct3: riscv.BFunct3, Rs1: rs1, Rs2: 0, Imm: imm}, nil

	case "lui", "auipc": // rd, imm
		if len(ops) != 2 {
			return Resolved{}, fmt.Errorf("%s expects 2 operands, got %d", inst.Mnemonic, len(ops))
		}
		rd, err := reg(ops[0])
		if err != nil {
			return Resolved{}, err
		}
		imm, err := resolveOperand(ops[1], index, table)
		if err != nil {
			return Resolved{}, err
		}
		opcode := riscv.OpcodeLUI
		if inst.Mnemonic == "auipc" {
			opcode = riscv.OpcodeAUIPC
		}
		return Resolved{Format: FormatU, Opcode: opcode, Rd: rd, Imm: imm}, nil

	case "sw": // sw rs2, imm(rs1) -> expanded operands [rs2, imm, rs1]
		if len(ops) != 3 {
			return Resolved{}, fmt.Errorf("sw expects 3 operands, got %d", len(ops))
		}
		rs2, err := reg(ops[0])
		if err != nil {
			return Resolved{}, err
		}
		imm, err := resolveOperand(ops[1], index, table)
		if err != nil {
			return Resolved{}, err
		}
		rs1, err := reg(ops[2])
		if err != nil {
			return Resolved{}, err
		}
		return Resolved{Format: FormatS, Opcode: riscv.OpcodeStore, Funct3: riscv.SFunct3, Rs1: rs1, Rs2: rs2, Imm: imm}, nil
	}

	if spec, ok := riscv.RTable[inst.Mnemonic]; ok { // rd, rs1, rs2
		if len(ops) != 3 {
			return Resolved{}, fmt.Errorf("%s expects 3 operands, got %d", inst.Mnemonic, len(ops))
		}
		rd, err := reg(ops[0])
		if err != nil {
			return Resolved{}, err
		}
		rs1, err := reg(ops[1])
		if err != nil {
			return Resolved{}, err
		}
		rs2, err := reg(ops[2])
		if err != nil {
			return Resolved{}, err
		}
		return Resolved{Format: FormatR, Opcode: riscv.OpcodeR, Funct3: spec.Funct3, Funct7: spec.Funct7, Rd: rd, Rs1: rs1, Rs2: rs2}, nil
	}

	if spec, ok := riscv.ITable[inst.Mnemonic]; ok {
		switch inst.Mnemonic {
		case "lw", "jalr": // rd, imm(rs1) -> expanded operands [rd, imm, rs1]
			if len(ops) != 3 {
				return Resolved{}, fmt.Errorf("%s expects 3 operands, got %d", inst.Mnemonic, len(ops))
			}
			rd, err := reg(ops[0])
			if err != nil {
				return Resolved{}, err
			}
			imm, err := resolveOperand(ops[1], index, table)
			if err != nil {
				return Resolved{}, err
			}
			rs1, err := reg(ops[2])
			if err != nil {
				return Resolved{}, err
			}
			return Resolved{Format: FormatI, Opcode: spec.Opcode, Funct3: spec.Funct3, Rd: rd, Rs1: rs1, Imm: imm}, nil

		default: // addi, ori, sltiu: rd, rs1, imm
			if len(ops) != 3 {
				return Resolved{}, fmt.Errorf("%s expects 3 operands, got %d", inst.Mnemonic, len(ops))
			}
			rd, err := reg(ops[0])
			if err != nil {
				return Resolved{}, err
			}
			rs1, err := reg(ops[1])
			if err != nil {
				return Resolved{}, err
			}
			imm, err := resolveOperand(ops[2], index, table)
			if err != nil {
				return Resolved{}, err
			}
			return Resolved{Format: FormatI, Opcode: spec.Opcode, Funct3: spec.Funct3, Rd: rd, Rs1: rs1, Imm: imm}, nil
		}
	}

	return Resolved{}, fmt.Errorf("unknown mnemonic %q", inst.Mnemonic)
}
