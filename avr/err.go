package avr

import (
	"errors"

	"github.com/breadboard-emu/breadboard/translate"
)

var f = translate.From

var (
	// Hex record errors
	ErrRecordOdd   = errors.New(f("uneven hex record"))
	ErrRecordShort = errors.New(f("hex record too short"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrValueInvalid       = errors.New(f("value out of range"))
	ErrOrgSyntax          = errors.New(f(".org syntax"))
	ErrRegisterInvalid    = errors.New(f("register invalid"))
	ErrTargetMissing      = errors.New(f("target missing"))
	ErrTargetInvalid      = errors.New(f("target invalid"))
)

// ErrCapacity indicates a program image larger than flash.
type ErrCapacity int

func (ec ErrCapacity) Error() string {
	return f("image of %d bytes exceeds flash capacity %d", int(ec), FLASH_SIZE)
}

func (ec ErrCapacity) Is(err error) (ok bool) {
	_, ok = err.(ErrCapacity)
	return
}

// ErrRecordLength indicates a hex record whose declared byte count does
// not match the record length.
type ErrRecordLength struct {
	Expected int
	Actual   int
}

func (err ErrRecordLength) Error() string {
	return f("hex record length mismatch: expected %d, got %d", err.Expected, err.Actual)
}

// ErrRecordByte indicates a non-hexadecimal byte pair in a record.
type ErrRecordByte string

func (err ErrRecordByte) Error() string {
	return f("'%v' is not a hex byte", string(err))
}

// ErrRecordType indicates an unsupported hex record type.
type ErrRecordType byte

func (err ErrRecordType) Error() string {
	return f("unsupported record type %02X", byte(err))
}

func (err ErrRecordType) Is(target error) (ok bool) {
	_, ok = target.(ErrRecordType)
	return
}

// ErrHexRange indicates a hex record byte destined outside flash.
type ErrHexRange int

func (err ErrHexRange) Error() string {
	return f("hex record out of bounds: address %#04X (addressable to %#04X)", int(err), FLASH_SIZE-1)
}

func (err ErrHexRange) Is(target error) (ok bool) {
	_, ok = target.(ErrHexRange)
	return
}

// ErrUnknownOpcode indicates an opcode matching no known pattern.
type ErrUnknownOpcode uint16

func (eo ErrUnknownOpcode) Error() string {
	return f("unknown opcode 0x%04X", uint16(eo))
}

func (eo ErrUnknownOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrUnknownOpcode)
	return
}

// ErrUnsupported indicates an instruction that decodes but is not
// executable.
type ErrUnsupported Instruction

func (eu ErrUnsupported) Error() string {
	return f("instruction '%v' not executable", Instruction(eu))
}

func (eu ErrUnsupported) Is(err error) (ok bool) {
	_, ok = err.(ErrUnsupported)
	return
}

// ErrPcRange indicates a program counter with no full word left to fetch.
type ErrPcRange uint16

func (ep ErrPcRange) Error() string {
	return f("program counter 0x%04X outside flash", uint16(ep))
}

func (ep ErrPcRange) Is(err error) (ok bool) {
	_, ok = err.(ErrPcRange)
	return
}

// ErrSyntax indicates the location of an assembler parse error.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrMnemonicInvalid string

func (err ErrMnemonicInvalid) Error() string {
	return f("'%v' is not a known mnemonic", string(err))
}
