// Package riscv encodes RV32IM instructions to their 32-bit bit patterns.
// It is the pure, stateless bottom layer the assembler (pkg/asm) drives;
// it knows nothing about labels, text formatting, or pseudo-instructions.
package riscv

import "fmt"

// Registers maps the 32 standard ABI names to their 5-bit indices.
//
// tp is 0b00100 (5 bits). An earlier table in this codebase's lineage
// had it as "000100" (6 bits), a transcription error — every register
// index in RV32 is 5 bits, full stop.
var Registers = map[string]uint32{
	"zero": 0, "ra": 1, "sp": 2, "gp": 3, "tp": 4,
	"t0": 5, "t1": 6, "t2": 7,
	"fp": 8, "s0": 8, // fp is an alias for s0
	"s1": 9,
	"a0": 10, "a1": 11, "a2": 12, "a3": 13, "a4": 14, "a5": 15, "a6": 16, "a7": 17,
	"s2": 18, "s3": 19, "s4": 20, "s5": 21, "s6": 22, "s7": 23,
	"s8": 24, "s9": 25, "s10": 26, "s11": 27,
	"t3": 28, "t4": 29, "t5": 30, "t6": 31,
}

// Register resolves an ABI register name to its 5-bit index.
func Register(name string) (uint32, error) {
	idx, ok := Registers[name]
	if !ok {
		return 0, fmt.Errorf("unknown register %q", name)
	}
	return idx, nil
}
