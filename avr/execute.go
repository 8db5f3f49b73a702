package avr

import (
	"log"
)

// bit reports bit n of value.
func bit(value byte, n uint) bool {
	return (value>>n)&1 != 0
}

// addFlags computes the full SREG arithmetic flags for Rd + Rr = R from
// bits 3 and 7 of both operands and the result.
func (m *Mcu) addFlags(rd, rr, r byte) {
	rd3, rr3, r3 := bit(rd, 3), bit(rr, 3), bit(r, 3)
	rd7, rr7, r7 := bit(rd, 7), bit(rr, 7), bit(r, 7)

	h := rd3 && rr3 || rr3 && !r3 || !r3 && rd3
	v := rd7 && rr7 && !r7 || !rd7 && !rr7 && r7
	n := r7
	z := r == 0
	c := rd7 && rr7 || rr7 && !r7 || !r7 && rd7

	m.updateFlag(FLAG_H, h)
	m.updateFlag(FLAG_S, n != v)
	m.updateFlag(FLAG_V, v)
	m.updateFlag(FLAG_N, n)
	m.updateFlag(FLAG_Z, z)
	m.updateFlag(FLAG_C, c)
}

// subFlags computes the full SREG arithmetic flags for Rd - Rr = R.
func (m *Mcu) subFlags(rd, rr, r byte) {
	rd3, rr3, r3 := bit(rd, 3), bit(rr, 3), bit(r, 3)
	rd7, rr7, r7 := bit(rd, 7), bit(rr, 7), bit(r, 7)

	h := !rd3 && rr3 || rr3 && r3 || r3 && !rd3
	v := rd7 && !rr7 && !r7 || !rd7 && rr7 && r7
	n := r7
	z := r == 0
	c := !rd7 && rr7 || rr7 && r7 || r7 && !rd7

	m.updateFlag(FLAG_H, h)
	m.updateFlag(FLAG_S, n != v)
	m.updateFlag(FLAG_V, v)
	m.updateFlag(FLAG_N, n)
	m.updateFlag(FLAG_Z, z)
	m.updateFlag(FLAG_C, c)
}

// stepFlags computes the SREG flags for inc/dec, where the overflow
// sentinel stands in for the missing second operand. C and H are
// unaffected.
func (m *Mcu) stepFlags(r byte, sentinel byte) {
	n := bit(r, 7)
	v := r == sentinel
	z := r == 0

	m.updateFlag(FLAG_S, n != v)
	m.updateFlag(FLAG_V, v)
	m.updateFlag(FLAG_N, n)
	m.updateFlag(FLAG_Z, z)
}

// stackTop returns the configured stack top. A boundary outside the SRAM
// region falls back to the hardware default.
func (m *Mcu) stackTop() uint16 {
	if top := m.Geometry.StackTop; top < SRAM_SIZE {
		return top
	}

	return STACK_TOP
}

// stackBase returns the configured stack base, bounded like stackTop.
func (m *Mcu) stackBase() uint16 {
	if base := m.Geometry.StackBase; base < SRAM_SIZE {
		return base
	}

	return 0
}

// clampStack keeps the stack pointer inside the SRAM region. Descending
// below zero resets SP to the configured stack top; running past the
// region's end resets SP to the configured base. Clamping is silent,
// best-effort recovery, never an error.
func (m *Mcu) clampStack(sp uint16) uint16 {
	switch {
	case sp == 0xFFFF:
		sp = m.stackTop()
	case sp >= SRAM_SIZE:
		sp = m.stackBase()
	}

	return sp
}

// pushStack descends the stack pointer, then writes value at it.
func (m *Mcu) pushStack(value byte) {
	m.sp = m.clampStack(m.sp - 1)
	m.sram[m.sp] = value
}

// popStack reads the value at the stack pointer, then ascends it.
func (m *Mcu) popStack() (value byte) {
	value = m.sram[m.sp]
	m.sp = m.clampStack(m.sp + 1)

	return
}

// relDest computes the byte address of a signed word offset relative to
// the word after pc.
func relDest(pc uint16, offset int16) uint16 {
	words := int32(pc)/2 + int32(offset) + 1

	return uint16(words * 2)
}

// Execute applies a single instruction to the microcontroller state.
// Non-branching instructions advance the program counter by one word;
// branching instructions set it directly.
func (m *Mcu) Execute(inst Instruction) (err error) {
	switch inst.Op {
	case OP_NOP:
		m.pc += 2
	case OP_ADD:
		rd := m.registers[inst.Dest]
		rr := m.registers[inst.Src]
		r := rd + rr
		m.registers[inst.Dest] = r
		m.addFlags(rd, rr, r)
		m.pc += 2
	case OP_SUB:
		rd := m.registers[inst.Dest]
		rr := m.registers[inst.Src]
		r := rd - rr
		m.registers[inst.Dest] = r
		m.subFlags(rd, rr, r)
		m.pc += 2
	case OP_LDI:
		m.registers[inst.Dest] = inst.Value
		m.pc += 2
	case OP_INC:
		r := m.registers[inst.Dest] + 1
		m.registers[inst.Dest] = r
		m.stepFlags(r, 0x80)
		m.pc += 2
	case OP_DEC:
		r := m.registers[inst.Dest] - 1
		m.registers[inst.Dest] = r
		m.stepFlags(r, 0x7F)
		m.pc += 2
	case OP_CLC:
		m.clearFlag(FLAG_C)
		m.pc += 2
	case OP_SEC:
		m.setFlag(FLAG_C)
		m.pc += 2
	case OP_PUSH:
		m.pushStack(m.registers[inst.Dest])
		m.pc += 2
	case OP_POP:
		m.registers[inst.Dest] = m.popStack()
		m.pc += 2
	case OP_RJMP:
		m.pc = relDest(m.pc, inst.Offset)
	case OP_RCALL:
		// Return address low byte lands at the higher address,
		// high byte at the lower.
		ret := m.pc + 2
		m.pushStack(byte(ret & 0x00FF))
		m.pushStack(byte(ret >> 8))
		m.pc = relDest(m.pc, inst.Offset)
	case OP_RET:
		hi := m.popStack()
		lo := m.popStack()
		m.pc = (uint16(hi) << 8) | uint16(lo)
	case OP_RETI:
		hi := m.popStack()
		lo := m.popStack()
		m.setFlag(FLAG_I)
		m.pc = (uint16(hi) << 8) | uint16(lo)
	default:
		err = ErrUnsupported(inst)
	}

	return
}

// Fetch assembles the 16-bit opcode at the program counter, low byte
// first. The caller must not fetch when fewer than two bytes remain.
func (m *Mcu) Fetch() uint16 {
	return uint16(m.flash[m.pc]) | (uint16(m.flash[m.pc+1]) << 8)
}

// Step executes a single fetch/decode/execute cycle. The state is either
// fully pre-step or fully post-step; a decode failure leaves it
// untouched.
func (m *Mcu) Step() (err error) {
	if int(m.pc)+2 > len(m.flash) {
		err = ErrPcRange(m.pc)
		return
	}

	inst, err := Decode(m.Fetch())
	if err != nil {
		return
	}

	if m.Verbose {
		log.Printf("%04x: %v", m.pc, inst)
	}

	err = m.Execute(inst)

	return
}

// Mnemonic returns the display text of the next instruction. A decode
// failure displays as the no-operation instruction, so display never
// fails.
func (m *Mcu) Mnemonic() string {
	inst := Instruction{Op: OP_NOP}
	if int(m.pc)+2 <= len(m.flash) {
		if decoded, err := Decode(m.Fetch()); err == nil {
			inst = decoded
		}
	}

	return inst.String()
}
