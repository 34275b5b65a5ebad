// Package s7 marshals typed values to and from raw Siemens S7 PLC memory
// buffers (data blocks, inputs, outputs, markers, timers, counters).
//
// All multi-byte values are big-endian, as S7 uses. Operations are pure
// functions over a caller supplied buffer; nothing is retained between calls.
package s7

import (
	"strings"
)

// Kind identifies one S7 data type of the value catalog.
type Kind uint8

// S7 data types.
const (
	KindBool    Kind = iota + 1 // 1 bit inside a byte
	KindByte                    // 8 bits unsigned
	KindSInt                    // 8 bits signed
	KindChar                    // 8 bits character (ISO 8859-1)
	KindWord                    // 16 bits unsigned
	KindInt                     // 16 bits signed
	KindDWord                   // 32 bits unsigned
	KindDInt                    // 32 bits signed
	KindReal                    // 32 bits IEEE 754 float
	KindLWord                   // 64 bits unsigned (S7-1500)
	KindLInt                    // 64 bits signed (S7-1500)
	KindLReal                   // 64 bits IEEE 754 double (S7-1500)
	KindS5Time                  // 16 bits BCD duration with time base
	KindTime                    // 32 bits signed milliseconds
	KindDate                    // 16 bits days since 1990-01-01
	KindTOD                     // 32 bits milliseconds since midnight
	KindDT                      // 8 bytes BCD date and time
	KindCounter                 // 16 bits counter value
	KindString                  // 2 byte header + up to 254 chars
	KindWString                 // 4 byte header + up to 16382 UTF-16 units (S7-1500)
	KindFString                 // fixed-length, headerless, space padded chars

	numKinds = int(KindFString) + 1
)

// Aliases that share the layout of another kind.
const (
	KindUSInt = KindByte
	KindUInt  = KindWord
	KindUDInt = KindDWord
	KindULInt = KindLWord
)

// S7 transport word length codes, as used in ANY pointers.
const (
	WordLenBit     byte = 0x01
	WordLenByte    byte = 0x02
	WordLenWord    byte = 0x04
	WordLenDWord   byte = 0x06
	WordLenReal    byte = 0x08
	WordLenCounter byte = 0x1C
	WordLenTimer   byte = 0x1D
)

// String headers and limits.
const (
	StringHeaderSize  = 2
	StringMaxLen      = 254
	WStringHeaderSize = 4
	WStringMaxLen     = 16382
)

type kindInfo struct {
	name    string
	aliases []string
	width   int // 0 for variable length
	wordLen byte
}

var kinds = [numKinds]kindInfo{
	KindBool:    {"BOOL", nil, 1, WordLenBit},
	KindByte:    {"BYTE", []string{"USINT"}, 1, WordLenByte},
	KindSInt:    {"SINT", nil, 1, WordLenByte},
	KindChar:    {"CHAR", nil, 1, WordLenByte},
	KindWord:    {"WORD", []string{"UINT"}, 2, WordLenWord},
	KindInt:     {"INT", nil, 2, WordLenWord},
	KindDWord:   {"DWORD", []string{"UDINT"}, 4, WordLenDWord},
	KindDInt:    {"DINT", nil, 4, WordLenDWord},
	KindReal:    {"REAL", nil, 4, WordLenReal},
	KindLWord:   {"LWORD", []string{"ULINT"}, 8, WordLenByte},
	KindLInt:    {"LINT", nil, 8, WordLenByte},
	KindLReal:   {"LREAL", nil, 8, WordLenByte},
	KindS5Time:  {"S5TIME", nil, 2, WordLenWord},
	KindTime:    {"TIME", nil, 4, WordLenDWord},
	KindDate:    {"DATE", nil, 2, WordLenWord},
	KindTOD:     {"TOD", []string{"TIME_OF_DAY"}, 4, WordLenDWord},
	KindDT:      {"DT", []string{"DATE_AND_TIME"}, 8, WordLenByte},
	KindCounter: {"COUNTER", nil, 2, WordLenCounter},
	KindString:  {"STRING", nil, 0, WordLenByte},
	KindWString: {"WSTRING", nil, 0, WordLenByte},
	KindFString: {"FSTRING", nil, 0, WordLenByte},
}

// Valid reports whether k is a member of the catalog.
func (k Kind) Valid() bool {
	return k > 0 && int(k) < numKinds
}

// String returns the S7 type name.
func (k Kind) String() string {
	if !k.Valid() {
		return "UNKNOWN"
	}
	return kinds[k].name
}

// Width returns the encoded size in bytes, or 0 for variable-length strings.
func (k Kind) Width() int {
	if !k.Valid() {
		return 0
	}
	return kinds[k].width
}

// WordLen returns the S7 transport word length code for the kind.
func (k Kind) WordLen() byte {
	if !k.Valid() {
		return 0
	}
	return kinds[k].wordLen
}

// IsBit reports whether the kind is bit-addressed.
func (k Kind) IsBit() bool { return k == KindBool }

// IsString reports whether the kind is a string whose size depends on a
// declared length.
func (k Kind) IsString() bool { return k == KindString || k == KindWString || k == KindFString }

// Size returns the total bytes occupied by a value of the kind. For strings,
// maxLen is the declared capacity in characters; it is ignored otherwise.
func (k Kind) Size(maxLen int) int {
	switch k {
	case KindString:
		return StringHeaderSize + maxLen
	case KindWString:
		return WStringHeaderSize + 2*maxLen
	case KindFString:
		return maxLen
	default:
		return k.Width()
	}
}

// KindFromName returns the kind for a type name or alias, case-insensitive.
func KindFromName(name string) (Kind, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for k := KindBool; int(k) < numKinds; k++ {
		if kinds[k].name == upper {
			return k, true
		}
		for _, a := range kinds[k].aliases {
			if a == upper {
				return k, true
			}
		}
	}
	return 0, false
}

// Kinds returns every kind in the catalog.
func Kinds() []Kind {
	out := make([]Kind, 0, numKinds-1)
	for k := KindBool; int(k) < numKinds; k++ {
		out = append(out, k)
	}
	return out
}

// SupportedTypeNames returns all accepted type names, aliases included.
func SupportedTypeNames() []string {
	var names []string
	for _, k := range Kinds() {
		names = append(names, kinds[k].name)
		names = append(names, kinds[k].aliases...)
	}
	return names
}
