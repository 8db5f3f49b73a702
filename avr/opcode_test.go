package avr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name   string
		opcode uint16
		inst   Instruction
	}){
		{"nop", 0x0000, Instruction{Op: OP_NOP}},
		{"add_r16_r17", 0x0F01, Instruction{Op: OP_ADD, Dest: 16, Src: 17}},
		{"add_r0_r0", 0x0C00, Instruction{Op: OP_ADD, Dest: 0, Src: 0}},
		{"sub_r16_r17", 0x1B01, Instruction{Op: OP_SUB, Dest: 16, Src: 17}},
		{"ldi_r17_ff", 0xEF1F, Instruction{Op: OP_LDI, Dest: 17, Value: 0xFF}},
		{"ldi_r16_12", 0xE102, Instruction{Op: OP_LDI, Dest: 16, Value: 0x12}},
		{"inc_r16", 0x9503, Instruction{Op: OP_INC, Dest: 16}},
		{"dec_r31", 0x95FA, Instruction{Op: OP_DEC, Dest: 31}},
		{"clc", 0x9488, Instruction{Op: OP_CLC}},
		{"sec", 0x4A08, Instruction{Op: OP_SEC}},
		{"push_r16", 0x930F, Instruction{Op: OP_PUSH, Dest: 16}},
		{"pop_r16", 0x910F, Instruction{Op: OP_POP, Dest: 16}},
		{"rjmp_fwd", 0xC002, Instruction{Op: OP_RJMP, Offset: 2}},
		{"rjmp_back", 0xCFFE, Instruction{Op: OP_RJMP, Offset: -2}},
		{"rcall_back", 0xDFFD, Instruction{Op: OP_RCALL, Offset: -3}},
		{"ret", 0x9508, Instruction{Op: OP_RET}},
		{"reti", 0x9518, Instruction{Op: OP_RETI}},
	}

	for _, entry := range table {
		inst, err := Decode(entry.opcode)
		assert.NoError(err, entry.name)
		assert.Equal(entry.inst, inst, entry.name)
	}
}

func TestDecode_Unknown(t *testing.T) {
	assert := assert.New(t)

	for _, opcode := range []uint16{0xFFFF, 0x9600, 0x0001, 0x9448} {
		_, err := Decode(opcode)
		assert.ErrorIs(err, ErrUnknownOpcode(0), "0x%04X", opcode)
	}
}

func TestDecode_LdiUpperHalf(t *testing.T) {
	assert := assert.New(t)

	// Every ldi destination field lands in r16-r31.
	for field := range 16 {
		opcode := 0xE000 | (uint16(field) << 4)
		inst, err := Decode(opcode)
		assert.NoError(err)
		assert.Equal(OP_LDI, inst.Op)
		assert.GreaterOrEqual(inst.Dest, 16)
		assert.Less(inst.Dest, 32)
	}
}

func TestMakeRoundTrip(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name   string
		opcode uint16
		inst   Instruction
	}){
		{"nop", MakeNop(), Instruction{Op: OP_NOP}},
		{"add", MakeAdd(16, 17), Instruction{Op: OP_ADD, Dest: 16, Src: 17}},
		{"add_hi_src", MakeAdd(3, 30), Instruction{Op: OP_ADD, Dest: 3, Src: 30}},
		{"sub", MakeSub(16, 17), Instruction{Op: OP_SUB, Dest: 16, Src: 17}},
		{"ldi", MakeLdi(17, 0xFF), Instruction{Op: OP_LDI, Dest: 17, Value: 0xFF}},
		{"inc", MakeInc(16), Instruction{Op: OP_INC, Dest: 16}},
		{"dec", MakeDec(31), Instruction{Op: OP_DEC, Dest: 31}},
		{"clc", MakeClc(), Instruction{Op: OP_CLC}},
		{"sec", MakeSec(), Instruction{Op: OP_SEC}},
		{"push", MakePush(16), Instruction{Op: OP_PUSH, Dest: 16}},
		{"pop", MakePop(16), Instruction{Op: OP_POP, Dest: 16}},
		{"rjmp", MakeRjmp(-3), Instruction{Op: OP_RJMP, Offset: -3}},
		{"rcall", MakeRcall(2047), Instruction{Op: OP_RCALL, Offset: 2047}},
		{"ret", MakeRet(), Instruction{Op: OP_RET}},
		{"reti", MakeReti(), Instruction{Op: OP_RETI}},
	}

	for _, entry := range table {
		inst, err := Decode(entry.opcode)
		assert.NoError(err, entry.name)
		assert.Equal(entry.inst, inst, entry.name)
	}
}

func TestInstruction_String(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		inst Instruction
		text string
	}){
		{Instruction{Op: OP_NOP}, "nop"},
		{Instruction{Op: OP_ADD, Dest: 16, Src: 17}, "add r16, r17"},
		{Instruction{Op: OP_LDI, Dest: 17, Value: 0xFF}, "ldi r17, 0xFF"},
		{Instruction{Op: OP_INC, Dest: 16}, "inc r16"},
		{Instruction{Op: OP_RJMP, Offset: -2}, "rjmp .-2"},
		{Instruction{Op: OP_RCALL, Offset: 3}, "rcall .+3"},
		{Instruction{Op: OP_RET}, "ret"},
		{Instruction{Op: OP_RETI}, "reti"},
	}

	for _, entry := range table {
		assert.Equal(entry.text, entry.inst.String())
	}
}
