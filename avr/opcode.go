package avr

import (
	"fmt"
)

// Op identifies a decoded instruction.
type Op int

//go:generate go tool stringer -linecomment -type=Op
const (
	OP_NOP   = Op(0)  // nop
	OP_ADD   = Op(1)  // add
	OP_SUB   = Op(2)  // sub
	OP_LDI   = Op(3)  // ldi
	OP_INC   = Op(4)  // inc
	OP_DEC   = Op(5)  // dec
	OP_CLC   = Op(6)  // clc
	OP_SEC   = Op(7)  // sec
	OP_PUSH  = Op(8)  // push
	OP_POP   = Op(9)  // pop
	OP_RJMP  = Op(10) // rjmp
	OP_RCALL = Op(11) // rcall
	OP_RET   = Op(12) // ret
	OP_RETI  = Op(13) // reti
)

// Instruction is the decoded, typed representation of an opcode with its
// operand fields resolved. It is produced by Decode and consumed by
// Execute; it has no identity beyond that.
type Instruction struct {
	Op     Op
	Dest   int   // Destination register index.
	Src    int   // Source register index.
	Value  byte  // Immediate value (ldi).
	Offset int16 // Signed word offset (rjmp, rcall).
}

// String returns the assembly language representation of this instruction.
func (inst Instruction) String() (out string) {
	switch inst.Op {
	case OP_ADD, OP_SUB:
		out = fmt.Sprintf("%v r%d, r%d", inst.Op, inst.Dest, inst.Src)
	case OP_LDI:
		out = fmt.Sprintf("%v r%d, 0x%02X", inst.Op, inst.Dest, inst.Value)
	case OP_INC, OP_DEC, OP_PUSH, OP_POP:
		out = fmt.Sprintf("%v r%d", inst.Op, inst.Dest)
	case OP_RJMP, OP_RCALL:
		out = fmt.Sprintf("%v .%+d", inst.Op, inst.Offset)
	default:
		out = inst.Op.String()
	}

	return
}

// regd5 extracts the 5-bit destination register field from bits 4-8.
func regd5(opcode uint16) int {
	return int((opcode >> 4) & 0x1F)
}

// regr5 extracts the split 5-bit source register field (bit 9, bits 0-3).
func regr5(opcode uint16) int {
	return int(((opcode >> 5) & 0x10) | (opcode & 0x0F))
}

// rel12 sign-extends the 12-bit two's-complement word offset.
func rel12(opcode uint16) int16 {
	return int16(opcode<<4) >> 4
}

// pattern recognizes the opcodes where opcode&Mask == Value.
type pattern struct {
	Mask   uint16
	Value  uint16
	decode func(opcode uint16) Instruction
}

// The supported instruction patterns. The mask/value pairs are disjoint
// by construction: no opcode matches more than one entry. FuzzDecode
// verifies this over the full 16-bit space.
var patterns = []pattern{
	{0xFFFF, 0x0000, func(uint16) Instruction { return Instruction{Op: OP_NOP} }},
	{0xFC00, 0x0C00, func(x uint16) Instruction { return Instruction{Op: OP_ADD, Dest: regd5(x), Src: regr5(x)} }},
	{0xFC00, 0x1800, func(x uint16) Instruction { return Instruction{Op: OP_SUB, Dest: regd5(x), Src: regr5(x)} }},
	{0xF000, 0xE000, func(x uint16) Instruction {
		// ldi targets the upper half of the register file only.
		return Instruction{
			Op:    OP_LDI,
			Dest:  0x10 | int((x>>4)&0x0F),
			Value: byte(((x >> 4) & 0xF0) | (x & 0x0F)),
		}
	}},
	{0xFE0F, 0x9403, func(x uint16) Instruction { return Instruction{Op: OP_INC, Dest: regd5(x)} }},
	{0xFE0F, 0x940A, func(x uint16) Instruction { return Instruction{Op: OP_DEC, Dest: regd5(x)} }},
	{0xFFFF, 0x9488, func(uint16) Instruction { return Instruction{Op: OP_CLC} }},
	{0xFFFF, 0x4A08, func(uint16) Instruction { return Instruction{Op: OP_SEC} }},
	{0xFE0F, 0x920F, func(x uint16) Instruction { return Instruction{Op: OP_PUSH, Dest: regd5(x)} }},
	{0xFE0F, 0x900F, func(x uint16) Instruction { return Instruction{Op: OP_POP, Dest: regd5(x)} }},
	{0xF000, 0xC000, func(x uint16) Instruction { return Instruction{Op: OP_RJMP, Offset: rel12(x)} }},
	{0xF000, 0xD000, func(x uint16) Instruction { return Instruction{Op: OP_RCALL, Offset: rel12(x)} }},
	{0xFFFF, 0x9508, func(uint16) Instruction { return Instruction{Op: OP_RET} }},
	{0xFFFF, 0x9518, func(uint16) Instruction { return Instruction{Op: OP_RETI} }},
}

// Decode maps a 16-bit opcode to its instruction. Decode is a pure
// function of the opcode value; the all-zero opcode is always the
// no-operation instruction.
func Decode(opcode uint16) (inst Instruction, err error) {
	for _, pat := range patterns {
		if opcode&pat.Mask == pat.Value {
			inst = pat.decode(opcode)
			return
		}
	}

	err = ErrUnknownOpcode(opcode)
	return
}

// dr5 packs the destination and split source register fields.
func dr5(dest, src int) uint16 {
	return (uint16(dest&0x1F) << 4) | (uint16(src&0x10) << 5) | uint16(src&0x0F)
}

// MakeNop encodes nop.
func MakeNop() uint16 { return 0x0000 }

// MakeAdd encodes add Rd, Rr.
func MakeAdd(dest, src int) uint16 { return 0x0C00 | dr5(dest, src) }

// MakeSub encodes sub Rd, Rr.
func MakeSub(dest, src int) uint16 { return 0x1800 | dr5(dest, src) }

// MakeLdi encodes ldi Rd, K for Rd in r16-r31.
func MakeLdi(dest int, value byte) uint16 {
	return 0xE000 | (uint16(value&0xF0) << 4) | (uint16(dest&0x0F) << 4) | uint16(value&0x0F)
}

// MakeInc encodes inc Rd.
func MakeInc(dest int) uint16 { return 0x9403 | (uint16(dest&0x1F) << 4) }

// MakeDec encodes dec Rd.
func MakeDec(dest int) uint16 { return 0x940A | (uint16(dest&0x1F) << 4) }

// MakeClc encodes clc.
func MakeClc() uint16 { return 0x9488 }

// MakeSec encodes sec.
func MakeSec() uint16 { return 0x4A08 }

// MakePush encodes push Rr.
func MakePush(src int) uint16 { return 0x920F | (uint16(src&0x1F) << 4) }

// MakePop encodes pop Rd.
func MakePop(dest int) uint16 { return 0x900F | (uint16(dest&0x1F) << 4) }

// MakeRjmp encodes rjmp with a signed word offset.
func MakeRjmp(offset int16) uint16 { return 0xC000 | (uint16(offset) & 0x0FFF) }

// MakeRcall encodes rcall with a signed word offset.
func MakeRcall(offset int16) uint16 { return 0xD000 | (uint16(offset) & 0x0FFF) }

// MakeRet encodes ret.
func MakeRet() uint16 { return 0x9508 }

// MakeReti encodes reti.
func MakeReti() uint16 { return 0x9518 }
