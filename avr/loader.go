package avr

import (
	"bufio"
	"io"
	"log"
	"strconv"
	"strings"
)

// Hex record types.
const (
	REC_DATA = byte(0x00) // Data record.
	REC_EOF  = byte(0x01) // End-of-file record.
)

// HexRecord is one parsed line of an Intel-HEX program image.
type HexRecord struct {
	ByteCount byte   // Declared payload length.
	Address   uint16 // Flash load address.
	Type      byte   // Record type.
	Data      []byte // Payload bytes.
}

// parseHexLine parses a single hex record line. The checksum byte is
// consumed but not validated.
func parseHexLine(line string) (rec HexRecord, err error) {
	hexString := strings.TrimPrefix(line, ":")

	if len(hexString)%2 != 0 {
		err = ErrRecordOdd
		return
	}

	raw := make([]byte, 0, len(hexString)/2)
	for n := 0; n < len(hexString); n += 2 {
		pair := hexString[n : n+2]
		value, perr := strconv.ParseUint(pair, 16, 8)
		if perr != nil {
			err = ErrRecordByte(pair)
			return
		}
		raw = append(raw, byte(value))
	}

	if len(raw) < 5 {
		err = ErrRecordShort
		return
	}

	byteCount := raw[0]
	expected := 5 + int(byteCount)
	if len(raw) != expected {
		err = ErrRecordLength{Expected: expected, Actual: len(raw)}
		return
	}

	recType := raw[3]
	switch recType {
	case REC_DATA, REC_EOF:
		// pass
	default:
		err = ErrRecordType(recType)
		return
	}

	rec = HexRecord{
		ByteCount: byteCount,
		Address:   (uint16(raw[1]) << 8) | uint16(raw[2]),
		Type:      recType,
		Data:      raw[4 : len(raw)-1],
	}

	return
}

// LoadBinary copies a flat binary image to the start of flash, leaving
// the remainder untouched. Callers that want a clean load must Erase
// first.
func (m *Mcu) LoadBinary(data []byte) (err error) {
	if len(data) > len(m.flash) {
		err = ErrCapacity(len(data))
		return
	}

	copy(m.flash[:], data)

	return
}

// LoadImage erases flash and the program counter, then copies the image
// to the start of flash. Flash is left erased if the image does not fit.
func (m *Mcu) LoadImage(data []byte) (err error) {
	m.Erase()

	return m.LoadBinary(data)
}

// LoadHex folds an Intel-HEX image into flash, one record per line. A
// line that fails to parse is skipped; processing stops without error at
// an end-of-file record. A data byte destined outside flash aborts the
// whole load.
func (m *Mcu) LoadHex(input io.Reader) (err error) {
	scanner := bufio.NewScanner(input)

	var lineno int
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		lineno += 1

		rec, perr := parseHexLine(line)
		if perr != nil {
			if m.Verbose {
				log.Printf("hex: skipping line %d: %v", lineno, perr)
			}
			continue
		}

		if rec.Type == REC_EOF {
			return
		}

		for offset, value := range rec.Data {
			addr := int(rec.Address) + offset
			if addr >= len(m.flash) {
				err = ErrHexRange(addr)
				return
			}
			m.flash[addr] = value
		}
	}

	return
}
