package riscv

// ----------------------------------------------------------------------------
// Opcodes

// Base opcodes for every instruction format this toolchain emits.
const (
	OpcodeR       uint32 = 0b0110011 // register-register arithmetic
	OpcodeI       uint32 = 0b0010011 // register-immediate arithmetic
	OpcodeLoad    uint32 = 0b0000011
	OpcodeStore   uint32 = 0b0100011
	OpcodeBranch  uint32 = 0b1100011
	OpcodeJALR    uint32 = 0b1100111
	OpcodeJAL     uint32 = 0b1101111
	OpcodeLUI     uint32 = 0b0110111
	OpcodeAUIPC   uint32 = 0b0010111
)

// RSpec is the funct3/funct7 pair identifying an R-format mnemonic.
type RSpec struct{ Funct3, Funct7 uint32 }

// RTable covers every R-format mnemonic in the instruction repertoire.
var RTable = map[string]RSpec{
	"add":  {Funct3: 0b000, Funct7: 0b0000000},
	"sub":  {Funct3: 0b000, Funct7: 0b0100000},
	"slt":  {Funct3: 0b010, Funct7: 0b0000000},
	"sltu": {Funct3: 0b011, Funct7: 0b0000000},
	"xor":  {Funct3: 0b100, Funct7: 0b0000000},
	"or":   {Funct3: 0b110, Funct7: 0b0000000},
	"mul":  {Funct3: 0b000, Funct7: 0b0000001},
	"div":  {Funct3: 0b100, Funct7: 0b0000001},
}

// ISpec is the opcode/funct3 pair identifying an I-format mnemonic. Load,
// jalr and arithmetic-immediate mnemonics all share the I format but use
// different base opcodes, hence the opcode is part of the spec rather
// than a shared constant.
type ISpec struct{ Opcode, Funct3 uint32 }

// ITable covers every I-format mnemonic in the instruction repertoire,
// plus sltiu which only appears via the seqz pseudo-instruction.
var ITable = map[string]ISpec{
	"addi":  {Opcode: OpcodeI, Funct3: 0b000},
	"ori":   {Opcode: OpcodeI, Funct3: 0b110},
	"sltiu": {Opcode: OpcodeI, Funct3: 0b011},
	"lw":    {Opcode: OpcodeLoad, Funct3: 0b010},
	"jalr":  {Opcode: OpcodeJALR, Funct3: 0b000},
}

// SFunct3 is "sw"'s funct3; it is the only S-format mnemonic emitted.
const SFunct3 uint32 = 0b010

// BFunct3 is "beqz"'s (lowered to beq rs1, zero, imm) funct3; it is the
// only B-format mnemonic emitted.
const BFunct3 uint32 = 0b000

// ----------------------------------------------------------------------------
// Format encoders
//
// Each function packs one RV32 instruction format into its 32-bit word.
// Immediates are accepted as signed int32 and masked to their field width;
// negative immediates fall out correctly because Go's conversion to
// uint32 already yields the two's-complement bit pattern.

// EncodeR packs an R-format instruction (register-register arithmetic).
func EncodeR(opcode, funct3, funct7, rd, rs1, rs2 uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

// EncodeI packs an I-format instruction with a 12-bit signed immediate.
func EncodeI(opcode, funct3, rd, rs1 uint32, imm int32) uint32 {
	bits := uint32(imm) & 0xFFF
	return bits<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

// EncodeS packs an S-format instruction, splitting the 12-bit signed
// immediate as imm[11:5] | imm[4:0] around the register fields.
func EncodeS(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	bits := uint32(imm) & 0xFFF
	imm11_5 := (bits >> 5) & 0x7F
	imm4_0 := bits & 0x1F
	return imm11_5<<25 | rs2<<20 | rs1<<15 | funct3<<12 | imm4_0<<7 | opcode
}

// EncodeB packs a B-format instruction. imm is the byte offset (always a
// multiple of 2, and in this toolchain always a multiple of 4); it is
// split as imm[12] | imm[10:5] | imm[4:1] | imm[11].
func EncodeB(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	bits := uint32(imm) & 0x1FFF
	imm12 := (bits >> 12) & 0x1
	imm10_5 := (bits >> 5) & 0x3F
	imm4_1 := (bits >> 1) & 0xF
	imm11 := (bits >> 11) & 0x1
	return imm12<<31 | imm10_5<<25 | rs2<<20 | rs1<<15 | funct3<<12 | imm4_1<<8 | imm11<<7 | opcode
}

// EncodeU packs a U-format instruction; imm occupies bits [31:12] verbatim.
func EncodeU(opcode, rd uint32, imm int32) uint32 {
	bits := uint32(imm) & 0xFFFFF
	return bits<<12 | rd<<7 | opcode
}

// EncodeJ packs a J-format instruction. imm is the byte offset; it is
// split as imm[20] | imm[10:1] | imm[11] | imm[19:12].
func EncodeJ(opcode, rd uint32, imm int32) uint32 {
	bits := uint32(imm) & 0x1FFFFF
	imm20 := (bits >> 20) & 0x1
	imm10_1 := (bits >> 1) & 0x3FF
	imm11 := (bits >> 11) & 0x1
	imm19_12 := (bits >> 12) & 0xFF
	return imm20<<31 | imm10_1<<21 | imm11<<20 | imm19_12<<12 | rd<<7 | opcode
}
