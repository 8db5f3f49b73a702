package avr

import (
	"fmt"
	"iter"
	"maps"
	"strings"
)

// Memory geometry constants.
const (
	FLASH_SIZE = 16384 // In-system programmable flash, in bytes.
	SRAM_SIZE  = 1024  // Internal SRAM, in bytes.
	STACK_TOP  = 0x3FF // Reset value of the stack pointer.
)

// SREG status flag bits.
const (
	FLAG_C = byte(1 << 0) // C: carry
	FLAG_Z = byte(1 << 1) // Z: zero
	FLAG_N = byte(1 << 2) // N: negative
	FLAG_V = byte(1 << 3) // V: two's complement overflow
	FLAG_S = byte(1 << 4) // S: signed test, N xor V
	FLAG_H = byte(1 << 5) // H: half carry
	FLAG_T = byte(1 << 6) // T: bit transfer
	FLAG_I = byte(1 << 7) // I: global interrupt enable
)

var _avr_defines = map[string]string{
	"FLASH_SIZE": fmt.Sprintf("%v", FLASH_SIZE),
	"SRAM_SIZE":  fmt.Sprintf("%v", SRAM_SIZE),
	"STACK_TOP":  fmt.Sprintf("%#x", STACK_TOP),
}

// Defines for the processor core.
func Defines() iter.Seq2[string, string] {
	return maps.All(_avr_defines)
}

// Geometry holds the stack pointer boundary values. The observed hardware
// clamps a stack pointer leaving the SRAM region back to a boundary value
// instead of faulting; the exact values are configuration, not behavior.
// A boundary value outside the SRAM region is ignored in favor of the
// hardware default, so a bad configuration can never take SP out of range.
type Geometry struct {
	StackTop  uint16 `toml:"stack_top"`  // SP reset value, and clamp target on descent below zero.
	StackBase uint16 `toml:"stack_base"` // Clamp target when SP runs past the SRAM region.
}

// DefaultGeometry returns the stack boundaries of the reference part.
func DefaultGeometry() Geometry {
	return Geometry{
		StackTop:  STACK_TOP,
		StackBase: 0,
	}
}

// Mcu is the simulation context for the microcontroller. All simulator
// state is owned here; callers observe it only through accessors, which
// return copies.
type Mcu struct {
	Verbose bool // Set to enable verbose logging.

	Geometry Geometry // Stack pointer boundaries.

	registers [32]byte         // General purpose working registers r0-r31.
	sreg      byte             // Status register.
	pc        uint16           // Program counter, byte address, always even.
	sp        uint16           // Stack pointer into SRAM, descends on push.
	flash     [FLASH_SIZE]byte // Program memory.
	sram      [SRAM_SIZE]byte  // Data memory and stack region.
}

// New creates a microcontroller in its power-on state.
func New() (m *Mcu) {
	m = &Mcu{
		Geometry: DefaultGeometry(),
	}
	m.Reset()

	return
}

// Reset returns the microcontroller to its power-on state: registers,
// SREG, program counter, flash, and SRAM are zeroed and the stack pointer
// is placed at the top of its range. A configured stack top outside the
// SRAM region is ignored in favor of the hardware default, so SP is
// always a valid SRAM index.
func (m *Mcu) Reset() {
	clear(m.registers[:])
	m.sreg = 0
	m.pc = 0
	m.sp = m.stackTop()
	clear(m.flash[:])
	clear(m.sram[:])
}

// Erase zeroes flash and the program counter. Registers, SREG, SRAM, and
// the stack pointer are untouched.
func (m *Mcu) Erase() {
	clear(m.flash[:])
	m.pc = 0
}

// Registers returns a copy of the general purpose register file.
func (m *Mcu) Registers() [32]byte {
	return m.registers
}

// Register returns a single general purpose register.
func (m *Mcu) Register(index int) byte {
	return m.registers[index]
}

// Sreg returns the status register byte.
func (m *Mcu) Sreg() byte {
	return m.sreg
}

// Pc returns the program counter byte address.
func (m *Mcu) Pc() uint16 {
	return m.pc
}

// Sp returns the stack pointer.
func (m *Mcu) Sp() uint16 {
	return m.sp
}

// Flash returns a copy of program memory.
func (m *Mcu) Flash() [FLASH_SIZE]byte {
	return m.flash
}

// Sram returns a copy of data memory.
func (m *Mcu) Sram() [SRAM_SIZE]byte {
	return m.sram
}

// Flag reports whether all SREG bits in mask are set.
func (m *Mcu) Flag(mask byte) bool {
	return m.sreg&mask == mask
}

func (m *Mcu) setFlag(mask byte) {
	m.sreg |= mask
}

func (m *Mcu) clearFlag(mask byte) {
	m.sreg &= ^mask
}

// updateFlag sets or clears the SREG bits in mask.
func (m *Mcu) updateFlag(mask byte, condition bool) {
	if condition {
		m.setFlag(mask)
	} else {
		m.clearFlag(mask)
	}
}

// String returns the current microcontroller state as a string.
func (m *Mcu) String() (text string) {
	flags := "ITHSVNZC"
	var sb strings.Builder
	for n := range 8 {
		mask := byte(1 << (7 - n))
		if m.sreg&mask != 0 {
			sb.WriteByte(flags[n])
		} else {
			sb.WriteByte('-')
		}
	}

	text = fmt.Sprintf("  pc: %04X    sp: %04X  sreg: %s\n", m.pc, m.sp, sb.String())
	for row := 0; row < len(m.registers); row += 8 {
		text += fmt.Sprintf("  r%02d:", row)
		for _, val := range m.registers[row : row+8] {
			text += fmt.Sprintf(" %02X", val)
		}
		text += "\n"
	}
	text += fmt.Sprintf("  next: %v\n", m.Mnemonic())

	return
}
