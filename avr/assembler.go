package avr

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":     "0",
	"FLASH_SIZE": fmt.Sprintf("%v", FLASH_SIZE),
	"SRAM_SIZE":  fmt.Sprintf("%v", SRAM_SIZE),
	"STACK_TOP":  fmt.Sprintf("%#x", STACK_TOP),
}

// Assembler is a single pass assembler for the supported instruction
// subset, with labels, equates, and compile-time expression evaluation.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string // Predefines
	Label     map[string]int    // Map of jump labels to byte addresses.
	Equate    map[string]string // Map of equates.

	addr int // Next flash byte address.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// opMap maps mnemonics to instruction tags.
var opMap = map[string]Op{
	"nop":   OP_NOP,
	"add":   OP_ADD,
	"sub":   OP_SUB,
	"ldi":   OP_LDI,
	"inc":   OP_INC,
	"dec":   OP_DEC,
	"clc":   OP_CLC,
	"sec":   OP_SEC,
	"push":  OP_PUSH,
	"pop":   OP_POP,
	"rjmp":  OP_RJMP,
	"rcall": OP_RCALL,
	"ret":   OP_RET,
	"reti":  OP_RETI,
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	value, err = strconv.ParseInt(word, 0, 32)
	if err != nil {
		err = ErrParseNumber(word)
	}

	return
}

// regOf returns the register index of an rN word.
func (asm *Assembler) regOf(word string) (reg int, err error) {
	if len(word) < 2 || word[0] != 'r' {
		err = ErrRegisterInvalid
		return
	}

	reg, cerr := strconv.Atoi(word[1:])
	if cerr != nil || reg < 0 || reg > 31 {
		err = ErrRegisterInvalid
	}

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		val64, verr := asm.valueOf(str)
		if verr != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt64(val64)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
	}

	return
}

// parseLine expands a single source line into opcode words.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do $() evaluations
	re := regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%v", value)
	})
	if err != nil {
		return
	}

	// Operand commas are decorative.
	line = strings.ReplaceAll(line, ",", " ")

	words = slices.DeleteFunc(strings.Split(line, " "), func(a string) bool { return len(a) == 0 })

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words[1:] {
		// Check for equate substitution. The mnemonic itself is
		// never substituted.
		equate, ok := asm.Equate[word]
		if ok {
			words[1+n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.addr
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	return
}

// wordTarget parses a numeric relative branch target of the '.+N' or
// plain integer form. Labels are linked in a later pass.
func wordTarget(word string) (offset int16, ok bool) {
	text := strings.TrimPrefix(word, ".")
	value, err := strconv.ParseInt(text, 0, 16)
	if err != nil || value < -2048 || value > 2047 {
		return
	}

	return int16(value), true
}

// parseWords assembles one line of opcode words.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	if len(words) == 0 {
		return
	}

	// .org ADDRESS
	if words[0] == ".org" {
		if len(words) != 2 {
			err = ErrOrgSyntax
			return
		}
		var value int64
		value, err = asm.valueOf(words[1])
		if err != nil {
			return
		}
		if value < 0 || value >= FLASH_SIZE || value%2 != 0 {
			err = ErrOrgSyntax
			return
		}
		asm.addr = int(value)
		return
	}

	op, ok := opMap[words[0]]
	if !ok {
		err = ErrMnemonicInvalid(words[0])
		return
	}

	opcode := Opcode{
		LineNo: lineno,
		Addr:   asm.addr,
		Words:  slices.Clone(words),
	}

	args := words[1:]

	oneReg := func() (reg int, err error) {
		if len(args) < 1 {
			err = ErrRegisterInvalid
			return
		}
		if len(args) > 1 {
			err = ErrOpcodeExtraArgs
			return
		}
		return asm.regOf(args[0])
	}

	noArgs := func(code uint16) (uint16, error) {
		if len(args) != 0 {
			return 0, ErrOpcodeExtraArgs
		}
		return code, nil
	}

	switch op {
	case OP_NOP:
		opcode.Code, err = noArgs(MakeNop())
	case OP_CLC:
		opcode.Code, err = noArgs(MakeClc())
	case OP_SEC:
		opcode.Code, err = noArgs(MakeSec())
	case OP_RET:
		opcode.Code, err = noArgs(MakeRet())
	case OP_RETI:
		opcode.Code, err = noArgs(MakeReti())
	case OP_ADD, OP_SUB:
		if len(args) != 2 {
			err = ErrRegisterInvalid
			return
		}
		var dest, src int
		dest, err = asm.regOf(args[0])
		if err != nil {
			return
		}
		src, err = asm.regOf(args[1])
		if err != nil {
			return
		}
		if op == OP_ADD {
			opcode.Code = MakeAdd(dest, src)
		} else {
			opcode.Code = MakeSub(dest, src)
		}
	case OP_LDI:
		if len(args) != 2 {
			err = ErrOpcodeValueMissing
			return
		}
		var dest int
		dest, err = asm.regOf(args[0])
		if err != nil {
			return
		}
		if dest < 16 {
			// ldi can only target r16-r31.
			err = ErrRegisterInvalid
			return
		}
		var value int64
		value, err = asm.valueOf(args[1])
		if err != nil {
			return
		}
		if value < -128 || value > 255 {
			err = ErrValueInvalid
			return
		}
		opcode.Code = MakeLdi(dest, byte(value))
	case OP_INC, OP_DEC, OP_PUSH, OP_POP:
		var reg int
		reg, err = oneReg()
		if err != nil {
			return
		}
		switch op {
		case OP_INC:
			opcode.Code = MakeInc(reg)
		case OP_DEC:
			opcode.Code = MakeDec(reg)
		case OP_PUSH:
			opcode.Code = MakePush(reg)
		default:
			opcode.Code = MakePop(reg)
		}
	case OP_RJMP, OP_RCALL:
		if len(args) != 1 {
			err = ErrTargetMissing
			return
		}
		offset, numeric := wordTarget(args[0])
		if !numeric {
			// Label target, linked after the full parse.
			opcode.LinkLabel = args[0]
		}
		if op == OP_RJMP {
			opcode.Code = MakeRjmp(offset)
		} else {
			opcode.Code = MakeRcall(offset)
		}
	}
	if err != nil {
		return
	}

	asm.Opcode = append(asm.Opcode, opcode)
	asm.addr += 2

	return
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	asm.addr = 0
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])

		var words []string
		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	// Final linking of jump labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		addr, ok := asm.Label[op.LinkLabel]
		if !ok {
			err = ErrLabelMissing(op.LinkLabel)
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			return
		}

		// Word offset relative to the instruction after the branch.
		offset := (addr - (op.Addr + 2)) / 2
		if offset < -2048 || offset > 2047 {
			err = ErrTargetInvalid
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			return
		}
		op.Code |= uint16(offset) & 0x0FFF
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}
