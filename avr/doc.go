// Package avr implements the processor core and program loader for the
// Breadboard simulator.
//
// The simulated microcontroller has 32 8-bit general purpose registers
// (r0-r31), a status register (SREG), a byte-addressed program counter, a
// descending stack pointer into SRAM, 16K bytes of flash program memory,
// and 1K bytes of SRAM. Execution is a synchronous fetch/decode/execute
// cycle driven one instruction at a time by Step.
//
// The loader accepts flat binary images and the Intel-HEX data/EOF record
// subset. A single pass assembler for the supported instruction subset is
// included for building test images, with labels, equates, and
// compile-time expression evaluation.
package avr
