package asm_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"tinyrv.dev/compiler/pkg/asm"
	"tinyrv.dev/compiler/pkg/clang"
	"tinyrv.dev/compiler/pkg/lexer"
	"tinyrv.dev/compiler/pkg/riscv"
)

// This file is the missing link spec.md §8's "End-to-end scenarios" call
// for: a tiny RV32IM interpreter that actually executes what the compiler
// and assembler produce, rather than stopping at "does the assembly text
// contain this substring" or "is the encoded instruction 4 bytes long".
// It decodes the same 32-bit words asm.CodeGenerator.Encode emits — not
// the pre-encoding Resolved fields — so an encoding bug in pkg/riscv would
// show up here too.
//
// Control flow (loop/branch targets) is driven by instruction index, not
// by byte address within the final binary, matching spec.md §9's own
// instruction for "ret": it occupies an index during label resolution but
// emits no bytes, so a real byte-addressed CPU could fall through a
// mid-stream return into whatever code follows it. Per the spec, a test
// harness should instead treat reaching a "ret" slot as the return itself:
// halt immediately, a0 holds the result. Walking by index rather than by
// real byte offset gives exactly that behavior for free, since every
// branch/jump offset the assembler computed was itself expressed in those
// same index units.

// compileSource runs the front end and code generator, returning the
// generated assembly text — the same path cmd/compiler's Handler takes.
func compileSource(t *testing.T, src string) string {
	t.Helper()
	tokens, err := lexer.Tokenize(src)
	if err != nil {
		t.Fatalf("tokenize(%q): %v", src, err)
	}
	parser := clang.NewParser(tokens)
	program, err := parser.Parse()
	if err != nil {
		t.Fatalf("parse(%q): %v", src, err)
	}
	var out bytes.Buffer
	if err := clang.Generate(program, parser.FrameSize(), &out); err != nil {
		t.Fatalf("generate(%q): %v", src, err)
	}
	return out.String()
}

// lowerAssembly runs the assembler's front end (parse + lower), stopping
// short of Generate's byte serialization so the interpreter below can walk
// the Resolved stream by index.
func lowerAssembly(t *testing.T, text string) []asm.Resolved {
	t.Helper()
	parser := asm.NewParser(strings.NewReader(text))
	program, err := parser.Parse()
	if err != nil {
		t.Fatalf("assemble parse: %v\n%s", err, text)
	}
	lowerer := asm.NewLowerer(program)
	resolved, err := lowerer.Lower()
	if err != nil {
		t.Fatalf("assemble lower: %v\n%s", err, text)
	}
	return resolved
}

// decoded is a fully unpacked instruction word, recovered independently of
// the Resolved value that produced it.
type decoded struct {
	opcode, funct3, funct7, rd, rs1, rs2 uint32
	imm                                  int32
}

func signExtend(bits uint32, width uint) int32 {
	shift := 32 - width
	return int32(bits<<shift) >> shift
}

// decodeWord reverses pkg/riscv's Encode* functions, field for field. It
// exists purely to prove that the bytes asm.CodeGenerator actually wrote
// mean what pkg/clang's codegen intended, independent of the Resolved
// value the encoder started from.
func decodeWord(opcode uint32, word uint32) decoded {
	d := decoded{opcode: opcode}
	switch opcode {
	case riscv.OpcodeR:
		d.funct3 = (word >> 12) & 0x7
		d.funct7 = (word >> 25) & 0x7F
		d.rd = (word >> 7) & 0x1F
		d.rs1 = (word >> 15) & 0x1F
		d.rs2 = (word >> 20) & 0x1F
	case riscv.OpcodeI, riscv.OpcodeLoad, riscv.OpcodeJALR:
		d.funct3 = (word >> 12) & 0x7
		d.rd = (word >> 7) & 0x1F
		d.rs1 = (word >> 15) & 0x1F
		d.imm = signExtend(word>>20, 12)
	case riscv.OpcodeStore:
		d.funct3 = (word >> 12) & 0x7
		d.rs1 = (word >> 15) & 0x1F
		d.rs2 = (word >> 20) & 0x1F
		imm4_0 := (word >> 7) & 0x1F
		imm11_5 := (word >> 25) & 0x7F
		d.imm = signExtend(imm11_5<<5|imm4_0, 12)
	case riscv.OpcodeBranch:
		d.funct3 = (word >> 12) & 0x7
		d.rs1 = (word >> 15) & 0x1F
		d.rs2 = (word >> 20) & 0x1F
		imm11 := (word >> 7) & 0x1
		imm4_1 := (word >> 8) & 0xF
		imm10_5 := (word >> 25) & 0x3F
		imm12 := (word >> 31) & 0x1
		d.imm = signExtend(imm12<<12|imm11<<11|imm10_5<<5|imm4_1<<1, 13)
	case riscv.OpcodeLUI, riscv.OpcodeAUIPC:
		d.rd = (word >> 7) & 0x1F
		d.imm = signExtend(word>>12, 20)
	case riscv.OpcodeJAL:
		d.rd = (word >> 7) & 0x1F
		imm19_12 := (word >> 12) & 0xFF
		imm11 := (word >> 20) & 0x1
		imm10_1 := (word >> 21) & 0x3FF
		imm20 := (word >> 31) & 0x1
		d.imm = signExtend(imm20<<20|imm19_12<<12|imm11<<11|imm10_1<<1, 21)
	}
	return d
}

// cpu is the minimal RV32IM register/memory model needed to execute
// exactly the instructions this toolchain emits.
type cpu struct {
	regs [32]uint32
	mem  map[uint32]uint32
}

func (c *cpu) get(r uint32) uint32 {
	if r == 0 {
		return 0
	}
	return c.regs[r]
}

func (c *cpu) set(r uint32, v uint32) {
	if r != 0 {
		c.regs[r] = v
	}
}

// run executes a fully-resolved program by instruction index (not real
// byte address — see the file comment) and returns the final a0 (x10).
func run(resolved []asm.Resolved) (uint32, error) {
	codegen := asm.NewCodeGenerator(resolved)
	words := make([]uint32, len(resolved))
	skip := make([]bool, len(resolved))
	for i, r := range resolved {
		word, isSkip, err := codegen.Encode(r)
		if err != nil {
			return 0, fmt.Errorf("encode instruction %d: %w", i, err)
		}
		words[i] = word
		skip[i] = isSkip
	}

	c := &cpu{mem: map[uint32]uint32{}}
	pc := 0
	for {
		if pc < 0 || pc >= len(resolved) {
			return c.get(10), nil // ran off the end of the program
		}
		if skip[pc] {
			return c.get(10), nil // "ret": the spec's documented halt point
		}

		if gotOpcode := words[pc] & 0x7F; gotOpcode != resolved[pc].Opcode {
			return 0, fmt.Errorf("interp: instruction %d: opcode field %#07b in emitted word does not match %#07b", pc, gotOpcode, resolved[pc].Opcode)
		}

		d := decodeWord(resolved[pc].Opcode, words[pc])
		next := pc + 1

		switch resolved[pc].Format {
		case asm.FormatR:
			lhs, rhs := c.get(d.rs1), c.get(d.rs2)
			var result uint32
			switch {
			case d.funct3 == 0b000 && d.funct7 == 0b0000000: // add
				result = lhs + rhs
			case d.funct3 == 0b000 && d.funct7 == 0b0100000: // sub
				result = lhs - rhs
			case d.funct3 == 0b010 && d.funct7 == 0b0000000: // slt
				if int32(lhs) < int32(rhs) {
					result = 1
				}
			case d.funct3 == 0b011 && d.funct7 == 0b0000000: // sltu
				if lhs < rhs {
					result = 1
				}
			case d.funct3 == 0b100 && d.funct7 == 0b0000000: // xor
				result = lhs ^ rhs
			case d.funct3 == 0b110 && d.funct7 == 0b0000000: // or
				result = lhs | rhs
			case d.funct3 == 0b000 && d.funct7 == 0b0000001: // mul
				result = uint32(int32(lhs) * int32(rhs))
			case d.funct3 == 0b100 && d.funct7 == 0b0000001: // div
				result = uint32(int32(lhs) / int32(rhs))
			default:
				return 0, fmt.Errorf("interp: unhandled R-format funct3=%03b funct7=%07b", d.funct3, d.funct7)
			}
			c.set(d.rd, result)

		case asm.FormatI:
			switch resolved[pc].Opcode {
			case riscv.OpcodeLoad:
				c.set(d.rd, c.mem[c.get(d.rs1)+uint32(d.imm)])
			case riscv.OpcodeI:
				switch d.funct3 {
				case 0b000: // addi
					c.set(d.rd, c.get(d.rs1)+uint32(d.imm))
				case 0b110: // ori
					c.set(d.rd, c.get(d.rs1)|uint32(d.imm))
				case 0b011: // sltiu
					var result uint32
					if c.get(d.rs1) < uint32(d.imm) {
						result = 1
					}
					c.set(d.rd, result)
				default:
					return 0, fmt.Errorf("interp: unhandled I-format funct3=%03b", d.funct3)
				}
			default:
				return 0, fmt.Errorf("interp: unhandled I-format opcode %07b", resolved[pc].Opcode)
			}

		case asm.FormatS:
			c.mem[c.get(d.rs1)+uint32(d.imm)] = c.get(d.rs2)

		case asm.FormatB: // beqz lowers to beq rs1, zero
			if c.get(d.rs1) == c.get(d.rs2) {
				next = pc + int(d.imm)/4
			}

		case asm.FormatU:
			switch resolved[pc].Opcode {
			case riscv.OpcodeLUI:
				c.set(d.rd, uint32(d.imm)<<12)
			case riscv.OpcodeAUIPC:
				c.set(d.rd, uint32(pc*4)+uint32(d.imm)<<12)
			}

		case asm.FormatJ:
			next = pc + int(d.imm)/4

		default:
			return 0, fmt.Errorf("interp: unhandled format %v", resolved[pc].Format)
		}

		pc = next
	}
}

// runSource drives the whole pipeline — lex, parse, codegen, assemble —
// and interprets the result, returning the final a0.
func runSource(t *testing.T, src string) uint32 {
	t.Helper()
	asmText := compileSource(t, src)
	resolved := lowerAssembly(t, asmText)
	a0, err := run(resolved)
	if err != nil {
		t.Fatalf("interpret %q:\n%s\nerror: %v", src, asmText, err)
	}
	return a0
}

// TestEndToEndScenarios covers all six spec.md §8 "End-to-end scenarios"
// by actually running the compiled-and-assembled program on the
// interpreter above and checking the documented a0 value, rather than
// substring-matching the generated assembly text.
func TestEndToEndScenarios(t *testing.T) {
	scenarios := []struct {
		name   string
		source string
		wantA0 uint32
	}{
		{"arithmetic precedence", "return 1+2*3;", 7},
		{"assignment and reuse", "a = 3; b = a*a; return b;", 9},
		{"if with early return", "a = 5; if (a == 5) return 1; return 0;", 1},
		{"for loop accumulation", "a = 0; for (i = 0; i < 10; i = i + 1) a = a + i; return a;", 45},
		{"while loop countdown", "a = 10; while (a > 0) a = a - 1; return a;", 0},
		{"relational operator trio", "a = 2; b = 3; return (a < b) + (a == b) + (a > b);", 1},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.name, func(t *testing.T) {
			got := runSource(t, scenario.source)
			if got != scenario.wantA0 {
				t.Fatalf("%s: a0 = %d, want %d", scenario.source, got, scenario.wantA0)
			}
		})
	}
}
