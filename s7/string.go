package s7

import (
	"encoding/binary"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// STRING and CHAR payloads are single-byte ISO 8859-1; WSTRING payloads are
// UTF-16 big-endian without a byte order mark.
var (
	latin1  = charmap.ISO8859_1
	utf16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
)

// GetChar decodes a CHAR at offset.
func GetChar(buf []byte, offset int) (rune, error) {
	b, err := GetByte(buf, offset)
	if err != nil {
		return 0, err
	}
	return latin1.DecodeByte(b), nil
}

// SetChar encodes r as a CHAR at offset.
func SetChar(buf []byte, offset int, r rune) error {
	if err := At(offset).Check(len(buf), 1); err != nil {
		return err
	}
	b, ok := latin1.EncodeRune(r)
	if !ok {
		return domainErr(KindChar, string(r), "not representable in ISO 8859-1")
	}
	return SetByte(buf, offset, b)
}

// GetStringHeader returns the declared maximum and current length of the
// STRING at offset, validated against each other and the buffer.
func GetStringHeader(buf []byte, offset int) (maxLen, length int, err error) {
	h, err := window(buf, At(offset), StringHeaderSize)
	if err != nil {
		return 0, 0, err
	}
	maxLen, length = int(h[0]), int(h[1])
	if maxLen > StringMaxLen {
		return 0, 0, &StringLengthError{Offset: offset, Max: maxLen, Length: length, Limit: StringMaxLen}
	}
	avail := len(buf) - offset - StringHeaderSize
	if length > maxLen || length > avail {
		return 0, 0, &StringLengthError{Offset: offset, Max: maxLen, Length: length, Available: avail}
	}
	return maxLen, length, nil
}

// GetString decodes the STRING at offset. Bytes past the current length are
// ignored.
func GetString(buf []byte, offset int) (string, error) {
	_, n, err := GetStringHeader(buf, offset)
	if err != nil {
		return "", err
	}
	start := offset + StringHeaderSize
	text, err := latin1.NewDecoder().Bytes(buf[start : start+n])
	if err != nil {
		return "", err
	}
	return string(text), nil
}

// SetString encodes s as a STRING at offset. A negative maxLen keeps the
// declared maximum already present in the header, which must itself be a
// valid STRING maximum.
func SetString(buf []byte, offset, maxLen int, s string) error {
	h, err := window(buf, At(offset), StringHeaderSize)
	if err != nil {
		return err
	}
	if maxLen < 0 {
		maxLen = int(h[0])
		if maxLen > StringMaxLen {
			return &StringLengthError{Offset: offset, Max: maxLen, Length: int(h[1]), Limit: StringMaxLen}
		}
	} else if maxLen > StringMaxLen {
		return domainErr(KindString, maxLen, "maximum length exceeds 254")
	}
	enc, err := latin1.NewEncoder().String(s)
	if err != nil {
		return domainErr(KindString, s, "not representable in ISO 8859-1")
	}
	avail := len(buf) - offset - StringHeaderSize
	if len(enc) > maxLen || len(enc) > avail {
		return &StringLengthError{Offset: offset, Max: maxLen, Length: len(enc), Available: avail}
	}
	h[0] = byte(maxLen)
	h[1] = byte(len(enc))
	copy(buf[offset+StringHeaderSize:], enc)
	return nil
}

// GetWStringHeader returns the declared maximum and current length, in
// UTF-16 code units, of the WSTRING at offset.
func GetWStringHeader(buf []byte, offset int) (maxLen, length int, err error) {
	h, err := window(buf, At(offset), WStringHeaderSize)
	if err != nil {
		return 0, 0, err
	}
	maxLen = int(binary.BigEndian.Uint16(h[0:2]))
	length = int(binary.BigEndian.Uint16(h[2:4]))
	if maxLen > WStringMaxLen {
		return 0, 0, &StringLengthError{Offset: offset, Max: maxLen, Length: length, Limit: WStringMaxLen}
	}
	avail := (len(buf) - offset - WStringHeaderSize) / 2
	if length > maxLen || length > avail {
		return 0, 0, &StringLengthError{Offset: offset, Max: maxLen, Length: length, Available: avail}
	}
	return maxLen, length, nil
}

// GetWString decodes the WSTRING at offset.
func GetWString(buf []byte, offset int) (string, error) {
	_, n, err := GetWStringHeader(buf, offset)
	if err != nil {
		return "", err
	}
	start := offset + WStringHeaderSize
	text, err := utf16BE.NewDecoder().Bytes(buf[start : start+2*n])
	if err != nil {
		return "", err
	}
	return string(text), nil
}

// SetWString encodes s as a WSTRING at offset. A negative maxLen keeps the
// declared maximum already present in the header.
func SetWString(buf []byte, offset, maxLen int, s string) error {
	h, err := window(buf, At(offset), WStringHeaderSize)
	if err != nil {
		return err
	}
	if maxLen < 0 {
		maxLen = int(binary.BigEndian.Uint16(h[0:2]))
		if maxLen > WStringMaxLen {
			return &StringLengthError{Offset: offset, Max: maxLen, Length: int(binary.BigEndian.Uint16(h[2:4])), Limit: WStringMaxLen}
		}
	} else if maxLen > WStringMaxLen {
		return domainErr(KindWString, maxLen, "maximum length exceeds 16382")
	}
	enc, err := utf16BE.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return domainErr(KindWString, s, "not valid UTF-8")
	}
	units := len(enc) / 2
	avail := (len(buf) - offset - WStringHeaderSize) / 2
	if units > maxLen || units > avail {
		return &StringLengthError{Offset: offset, Max: maxLen, Length: units, Available: avail}
	}
	binary.BigEndian.PutUint16(h[0:2], uint16(maxLen))
	binary.BigEndian.PutUint16(h[2:4], uint16(units))
	copy(buf[offset+WStringHeaderSize:], enc)
	return nil
}

// GetFString decodes the fixed-length, headerless string of length bytes at
// offset. With trim set, trailing spaces and NULs are removed.
func GetFString(buf []byte, offset, length int, trim bool) (string, error) {
	if length < 0 {
		return "", domainErr(KindFString, length, "negative length")
	}
	b, err := window(buf, At(offset), length)
	if err != nil {
		return "", err
	}
	text, err := latin1.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	if trim {
		return strings.TrimRight(string(text), " \x00"), nil
	}
	return string(text), nil
}

// SetFString encodes s into the length bytes at offset, padding the rest of
// the field with spaces.
func SetFString(buf []byte, offset, length int, s string) error {
	if length < 0 {
		return domainErr(KindFString, length, "negative length")
	}
	b, err := window(buf, At(offset), length)
	if err != nil {
		return err
	}
	enc, err := latin1.NewEncoder().String(s)
	if err != nil {
		return domainErr(KindFString, s, "not representable in ISO 8859-1")
	}
	if len(enc) > length {
		return &StringLengthError{Offset: offset, Max: length, Length: len(enc), Available: length}
	}
	n := copy(b, enc)
	for i := n; i < length; i++ {
		b[i] = ' '
	}
	return nil
}
