package avr

// Opcode represents a line of assembled code with its source location and
// generated instruction word.
type Opcode struct {
	LineNo    int
	Addr      int // Byte address in flash.
	Words     []string
	Code      uint16
	LinkLabel string
}

// Program is an assembled listing, in address order.
type Program struct {
	Opcodes []Opcode
}

// Size returns the byte address one past the last assembled word.
func (prog *Program) Size() (size int) {
	for _, op := range prog.Opcodes {
		if op.Addr+2 > size {
			size = op.Addr + 2
		}
	}

	return
}

// Binary renders the program as a flat little-endian flash image.
func (prog *Program) Binary() (bins []byte) {
	bins = make([]byte, prog.Size())
	for _, op := range prog.Opcodes {
		bins[op.Addr] = byte(op.Code & 0x00FF)
		bins[op.Addr+1] = byte(op.Code >> 8)
	}

	return
}

// Debug locates the assembled opcode covering a byte address.
type Debug struct {
	*Opcode
}

// Debug returns the opcode at the given program counter, if any.
func (prog *Program) Debug(pc uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if int(pc) >= op.Addr && int(pc) < op.Addr+2 {
			dbg = Debug{Opcode: &prog.Opcodes[n]}
			break
		}
	}

	return
}
