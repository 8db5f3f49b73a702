// Package emulator wraps the processor core with an assembled program
// listing, a cycle counter, and persisted configuration, for use by an
// external display or harness.
package emulator

import (
	"errors"
	"fmt"
	"iter"
	"maps"

	"github.com/breadboard-emu/breadboard/avr"
	"github.com/breadboard-emu/breadboard/internal"
)

// Emulator state. Microcontroller + program listing + session counters.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*avr.Mcu              // Reference to the microcontroller simulation.
	Program  *avr.Program // Reference to the currently loaded program listing.

	Config Config // Session configuration.

	Cycles int // Instructions executed since the last reset.
}

// New creates a new emulator with default configuration.
func New() (emu *Emulator) {
	emu = &Emulator{
		Mcu:     avr.New(),
		Program: &avr.Program{},
		Config:  DefaultConfig(),
	}

	return
}

// Defines returns an iterator over all of the defines.
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	geometry := map[string]string{
		"STACK_TOP":  fmt.Sprintf("%#x", emu.Config.Geometry.StackTop),
		"STACK_BASE": fmt.Sprintf("%#x", emu.Config.Geometry.StackBase),
	}

	return internal.IterSeq2Concat(avr.Defines(), maps.All(geometry))
}

// Reset reinitializes the microcontroller with the configured geometry
// and flashes the current program listing.
func (emu *Emulator) Reset() (err error) {
	emu.Mcu.Geometry = emu.Config.Geometry
	emu.Mcu.Verbose = emu.Verbose
	emu.Mcu.Reset()
	emu.Cycles = 0

	err = emu.Mcu.LoadImage(emu.Program.Binary())

	return
}

// LineNo returns the source line number of the next instruction, or zero
// when the program counter is outside the listing.
func (emu *Emulator) LineNo() (lineno int) {
	dbg := emu.Program.Debug(emu.Pc())
	if dbg.Opcode != nil {
		lineno = dbg.Opcode.LineNo
	}

	return
}

// Step executes a single instruction. Running off the end of the program
// listing, or off the end of flash, reports done rather than an error.
func (emu *Emulator) Step() (done bool, err error) {
	emu.Mcu.Verbose = emu.Verbose

	if size := emu.Program.Size(); size > 0 && int(emu.Pc()) >= size {
		done = true
		return
	}

	lineno := emu.LineNo()
	err = emu.Mcu.Step()
	if errors.Is(err, avr.ErrPcRange(0)) {
		err = nil
		done = true
		return
	}
	if err != nil {
		err = &ErrRuntime{LineNo: lineno, Err: err}
		return
	}

	emu.Cycles += 1

	return
}
