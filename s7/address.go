package s7

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Area represents an S7 memory area.
type Area int

const (
	AreaDB Area = iota // Data Block
	AreaI              // Process Image Input (IB, IW, ID)
	AreaQ              // Process Image Output (QB, QW, QD)
	AreaM              // Merker/Flag (MB, MW, MD)
	AreaT              // Timer
	AreaC              // Counter
)

// String returns the area name.
func (a Area) String() string {
	switch a {
	case AreaDB:
		return "DB"
	case AreaI:
		return "I"
	case AreaQ:
		return "Q"
	case AreaM:
		return "M"
	case AreaT:
		return "T"
	case AreaC:
		return "C"
	default:
		return "?"
	}
}

// Code returns the S7 protocol area identifier.
func (a Area) Code() byte {
	switch a {
	case AreaDB:
		return 0x84
	case AreaI:
		return 0x81
	case AreaQ:
		return 0x82
	case AreaM:
		return 0x83
	case AreaT:
		return 0x1D
	case AreaC:
		return 0x1C
	default:
		return 0
	}
}

// AreaFromName parses an area name as returned by Area.String.
func AreaFromName(name string) (Area, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DB":
		return AreaDB, true
	case "I", "E", "PE":
		return AreaI, true
	case "Q", "A", "PA":
		return AreaQ, true
	case "M", "MK":
		return AreaM, true
	case "T", "TM":
		return AreaT, true
	case "C", "Z", "CT":
		return AreaC, true
	}
	return 0, false
}

// Address represents a parsed S7 memory address.
type Address struct {
	Area     Area // Memory area (DB, I, Q, M, T, C)
	DBNumber int  // Data block number (only for AreaDB)
	Offset   int  // Byte offset (element number for T and C)
	BitNum   int  // Bit number (0-7 for BOOL, NoBit for other types)
	Kind     Kind // Kind implied by the width letter, 0 if none
	Size     int  // Size in bytes implied by the width letter
}

// Field returns the buffer location of the address, relative to the start
// of its area.
func (a *Address) Field() Field {
	return Field{Offset: a.Offset, Bit: a.BitNum}
}

// String formats the address in canonical form.
func (a *Address) String() string {
	switch a.Area {
	case AreaT, AreaC:
		return fmt.Sprintf("%s%d", a.Area, a.Offset)
	}
	prefix := a.Area.String()
	if a.Area == AreaDB {
		prefix = fmt.Sprintf("DB%d.DB", a.DBNumber)
		if a.Kind == 0 {
			return fmt.Sprintf("DB%d.%d", a.DBNumber, a.Offset)
		}
	}
	if a.BitNum != NoBit {
		if a.Area == AreaDB {
			return fmt.Sprintf("%sX%d.%d", prefix, a.Offset, a.BitNum)
		}
		return fmt.Sprintf("%s%d.%d", prefix, a.Offset, a.BitNum)
	}
	return fmt.Sprintf("%s%s%d", prefix, widthLetter(a.Size), a.Offset)
}

func widthLetter(size int) string {
	switch size {
	case 1:
		return "B"
	case 2:
		return "W"
	case 4:
		return "D"
	case 8:
		return "L"
	}
	return "?"
}

// Regular expressions for parsing S7 addresses
var (
	// DB addresses: DB1.DBX0.0 (bit), DB1.DBB0 (byte), DB1.DBW0 (word), DB1.DBD0 (dword)
	reDB = regexp.MustCompile(`^DB(\d+)\.DB([XBWDL])(\d+)(?:\.(\d))?$`)

	// Simple DB addresses: DB1.0 (offset only, kind supplied by the caller)
	reDBSimple = regexp.MustCompile(`^DB(\d+)\.(\d+)$`)

	// I/Q/M addresses: M0.0 (bit), MB0 (byte), MW0 (word), MD0 (dword)
	reIQM = regexp.MustCompile(`^([IQM])([XBWDL])?(\d+)(?:\.(\d))?$`)

	// Timer/Counter: T0, C0
	reTC = regexp.MustCompile(`^([TC])(\d+)$`)
)

// ParseAddress parses an S7 address string and returns an Address.
// Supported formats:
//   - DB1.0      - Data Block with offset (kind supplied by the caller)
//   - DB1.DBX0.0 - Data Block bit
//   - DB1.DBB0   - Data Block byte
//   - DB1.DBW0   - Data Block word
//   - DB1.DBD0   - Data Block dword
//   - DB1.DBL0   - Data Block lword
//   - M0.0       - Merker bit
//   - MB0        - Merker byte
//   - MW0        - Merker word
//   - MD0        - Merker dword
//   - I0.0, IB0, IW0, ID0 - Input
//   - Q0.0, QB0, QW0, QD0 - Output
//   - T0         - Timer
//   - C0         - Counter
func ParseAddress(addr string) (*Address, error) {
	addr = strings.ToUpper(strings.TrimSpace(addr))
	if addr == "" {
		return nil, fmt.Errorf("empty address")
	}

	if m := reDBSimple.FindStringSubmatch(addr); m != nil {
		dbNum, _ := strconv.Atoi(m[1])
		offset, _ := strconv.Atoi(m[2])
		return &Address{Area: AreaDB, DBNumber: dbNum, Offset: offset, BitNum: NoBit}, nil
	}

	if m := reDB.FindStringSubmatch(addr); m != nil {
		dbNum, _ := strconv.Atoi(m[1])
		a, err := parseSized(AreaDB, m[2], m[3], m[4], true)
		if err != nil {
			return nil, err
		}
		a.DBNumber = dbNum
		return a, nil
	}

	if m := reIQM.FindStringSubmatch(addr); m != nil {
		var area Area
		switch m[1] {
		case "I":
			area = AreaI
		case "Q":
			area = AreaQ
		case "M":
			area = AreaM
		}
		letter := m[2]
		if letter == "" {
			letter = "X" // M0 means M0.0
		}
		return parseSized(area, letter, m[3], m[4], false)
	}

	if m := reTC.FindStringSubmatch(addr); m != nil {
		num, _ := strconv.Atoi(m[2])
		a := &Address{Offset: num, BitNum: NoBit}
		if m[1] == "T" {
			a.Area, a.Kind = AreaT, KindS5Time
		} else {
			a.Area, a.Kind = AreaC, KindCounter
		}
		a.Size = a.Kind.Width()
		return a, nil
	}

	return nil, fmt.Errorf("invalid S7 address format: %s", addr)
}

// parseSized builds an address from a width letter, offset and optional bit.
func parseSized(area Area, letter, offset, bit string, bitRequired bool) (*Address, error) {
	off, _ := strconv.Atoi(offset)
	a := &Address{Area: area, Offset: off, BitNum: NoBit}

	if letter != "X" {
		if bit != "" {
			return nil, fmt.Errorf("bit number not allowed with %s access", letter)
		}
	}

	switch letter {
	case "X":
		if bit == "" {
			if bitRequired {
				return nil, fmt.Errorf("DBX requires bit number (e.g., DB1.DBX0.0)")
			}
			bit = "0"
		}
		b, _ := strconv.Atoi(bit)
		if b < 0 || b > 7 {
			return nil, &BitOffsetError{Bit: b}
		}
		a.BitNum = b
		a.Kind = KindBool
	case "B":
		a.Kind = KindByte
	case "W":
		a.Kind = KindWord
	case "D":
		a.Kind = KindDWord
	case "L":
		a.Kind = KindLWord
	default:
		return nil, fmt.Errorf("unknown width letter: %s", letter)
	}
	a.Size = a.Kind.Width()
	return a, nil
}

// ValidateAddress checks if an address string is valid.
func ValidateAddress(addr string) error {
	_, err := ParseAddress(addr)
	return err
}
