package asm

import (
	"encoding/binary"
	"fmt"
	"io"

	"tinyrv.dev/compiler/pkg/riscv"
)

// ----------------------------------------------------------------------------
// Code Generator

// CodeGenerator takes a slice of Resolved instructions and writes their
// encoded machine words to an io.Writer, one 32-bit big-endian word per
// instruction. A Resolved value with Format == FormatSkip ("ret") emits
// nothing; it occupied an index during lowering but contributes no bytes,
// matching the repo's label-resolution quirk exactly.
type CodeGenerator struct {
	program []Resolved
}

// NewCodeGenerator returns a CodeGenerator for program.
func NewCodeGenerator(p []Resolved) CodeGenerator {
	return CodeGenerator{program: p}
}

// Generate encodes every instruction and writes it to w in order.
func (cg *CodeGenerator) Generate(w io.Writer) error {
	for i, r := range cg.program {
		word, skip, err := cg.Encode(r)
		if err != nil {
			return fmt.Errorf("instruction %d: %w", i, err)
		}
		if skip {
			continue
		}
		if err := binary.Write(w, binary.BigEndian, word); err != nil {
			return fmt.Errorf("instruction %d: %w", i, err)
		}
	}
	return nil
}

// Encode packs a single Resolved value into its 32-bit instruction word.
// skip is true for FormatSkip entries, which encode to no bytes at all.
func (CodeGenerator) Encode(r Resolved) (word uint32, skip bool, err error) {
	switch r.Format {
	case FormatSkip:
		return 0, true, nil
	case FormatR:
		return riscv.EncodeR(r.Opcode, r.Funct3, r.Funct7, r.Rd, r.Rs1, r.Rs2), false, nil
	case FormatI:
		return riscv.EncodeI(r.Opcode, r.Funct3, r.Rd, r.Rs1, r.Imm), false, nil
	case FormatS:
		return riscv.EncodeS(r.Opcode, r.Funct3, r.Rs1, r.Rs2, r.Imm), false, nil
	case FormatB:
		return riscv.EncodeB(r.Opcode, r.Funct3, r.Rs1, r.Rs2, r.Imm), false, nil
	case FormatU:
		return riscv.EncodeU(r.Opcode, r.Rd, r.Imm), false, nil
	case FormatJ:
		return riscv.EncodeJ(r.Opcode, r.Rd, r.Imm), false, nil
	default:
		return 0, false, fmt.Errorf("unknown instruction format %d", r.Format)
	}
}
