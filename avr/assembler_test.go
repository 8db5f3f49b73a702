package avr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func parseLines(t *testing.T, asm *Assembler, lines ...string) *Program {
	t.Helper()

	prog, err := asm.Parse(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		t.Fatal(err)
	}

	return prog
}

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog.Opcodes))

	assert.Equal("0", asm.Equate["LINENO"])
	assert.Equal("16384", asm.Equate["FLASH_SIZE"])
	assert.Equal("1024", asm.Equate["SRAM_SIZE"])
	assert.Equal("0x3ff", asm.Equate["STACK_TOP"])
}

func TestAssembler_CallProgram(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog := parseLines(t, asm,
		"; call/return demo",
		".equ COUNT 0x12",
		"reset: ldi r16, COUNT",
		"    rjmp main",
		"bump: inc r16",
		"    ret",
		"main: rcall bump",
		"    rjmp main",
	)

	assert.Equal([]byte{
		0x02, 0xE1,
		0x02, 0xC0,
		0x03, 0x95,
		0x08, 0x95,
		0xFD, 0xDF,
		0xFE, 0xCF,
	}, prog.Binary())

	assert.Equal(8, asm.Label["main"])
	assert.Equal(4, asm.Label["bump"])
}

func TestAssembler_AllMnemonics(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog := parseLines(t, asm,
		"nop",
		"add r16, r17",
		"sub r16, r17",
		"ldi r16, 0xFF",
		"inc r16",
		"dec r16",
		"clc",
		"sec",
		"push r16",
		"pop r16",
		"rjmp .-1",
		"rcall .+2",
		"ret",
		"reti",
	)

	expected := []uint16{
		MakeNop(),
		MakeAdd(16, 17),
		MakeSub(16, 17),
		MakeLdi(16, 0xFF),
		MakeInc(16),
		MakeDec(16),
		MakeClc(),
		MakeSec(),
		MakePush(16),
		MakePop(16),
		MakeRjmp(-1),
		MakeRcall(2),
		MakeRet(),
		MakeReti(),
	}

	assert.Equal(len(expected), len(prog.Opcodes))
	for n, op := range prog.Opcodes {
		assert.Equal(expected[n], op.Code, "%v", op.Words)
		assert.Equal(n*2, op.Addr)
	}
}

func TestAssembler_Expressions(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog := parseLines(t, asm,
		".equ BASE 0x10",
		"ldi r16, $(BASE + 6)",
		"ldi r17, $(SRAM_SIZE // 256)",
	)

	assert.Equal(MakeLdi(16, 0x16), prog.Opcodes[0].Code)
	assert.Equal(MakeLdi(17, 4), prog.Opcodes[1].Code)
}

func TestAssembler_Predefine(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("START", "0x12")

	prog := parseLines(t, asm, "ldi r16, START")
	assert.Equal(MakeLdi(16, 0x12), prog.Opcodes[0].Code)
}

func TestAssembler_Org(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog := parseLines(t, asm,
		"nop",
		".org 0x10",
		"there: inc r16",
		".org 2",
		"rjmp there",
	)

	bins := prog.Binary()
	assert.Equal(18, len(bins))
	// rjmp at 2 reaches the instruction at 0x10: (0x10 - 4) / 2 words.
	assert.Equal(MakeRjmp(6), uint16(bins[2])|(uint16(bins[3])<<8))
	assert.Equal(MakeInc(16), uint16(bins[0x10])|(uint16(bins[0x11])<<8))
}

func TestAssembler_Errors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name  string
		lines []string
		err   error
	}){
		{"bad_mnemonic", []string{"frob r1"}, ErrMnemonicInvalid("")},
		{"ldi_low_reg", []string{"ldi r5, 1"}, ErrRegisterInvalid},
		{"ldi_value_range", []string{"ldi r16, 0x100"}, ErrValueInvalid},
		{"bad_register", []string{"inc r32"}, ErrRegisterInvalid},
		{"extra_args", []string{"ret r1"}, ErrOpcodeExtraArgs},
		{"missing_target", []string{"rjmp"}, ErrTargetMissing},
		{"missing_label", []string{"rjmp nowhere"}, ErrLabelMissing("")},
		{"duplicate_label", []string{"a: nop", "a: nop"}, ErrLabelDuplicate},
		{"duplicate_equate", []string{".equ A 1", ".equ A 2"}, ErrEquateDuplicate},
		{"equate_syntax", []string{".equ A"}, ErrEquateSyntax},
		{"org_odd", []string{".org 3"}, ErrOrgSyntax},
		{"bad_expression", []string{"ldi r16, $(nonsense +)"}, nil},
	}

	for _, entry := range table {
		asm := &Assembler{}
		_, err := asm.Parse(strings.NewReader(strings.Join(entry.lines, "\n")))
		assert.Error(err, entry.name)

		var syntax *ErrSyntax
		assert.ErrorAs(err, &syntax, entry.name)

		switch entry.err.(type) {
		case nil:
			// Any wrapped error will do.
		case ErrMnemonicInvalid:
			var target ErrMnemonicInvalid
			assert.ErrorAs(err, &target, entry.name)
		case ErrLabelMissing:
			var target ErrLabelMissing
			assert.ErrorAs(err, &target, entry.name)
		default:
			assert.ErrorIs(err, entry.err, entry.name)
		}
	}
}

func TestAssembler_RoundTrip(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog := parseLines(t, asm,
		"ldi r16, 0x12",
		"inc r16",
		"push r16",
		"pop r17",
	)

	m := New()
	assert.NoError(m.LoadImage(prog.Binary()))
	for range len(prog.Opcodes) {
		assert.NoError(m.Step())
	}

	assert.Equal(byte(0x13), m.Register(16))
	assert.Equal(byte(0x13), m.Register(17))
	assert.Equal(uint16(STACK_TOP), m.Sp())
}
