package s7

// NoBit marks a Field without a bit offset.
const NoBit = -1

// Field addresses a location inside a buffer: a byte offset and, for bit
// access, a bit index 0-7 where bit 0 is the least significant bit.
type Field struct {
	Offset int
	Bit    int
}

// At returns a byte-addressed field.
func At(offset int) Field {
	return Field{Offset: offset, Bit: NoBit}
}

// AtBit returns a bit-addressed field.
func AtBit(offset, bit int) Field {
	return Field{Offset: offset, Bit: bit}
}

// HasBit reports whether the field carries a bit offset.
func (f Field) HasBit() bool {
	return f.Bit != NoBit
}

// Check validates that width bytes at the field's offset fit in a buffer of
// length n, and that the bit offset, if any, is in range.
func (f Field) Check(n, width int) error {
	if f.Offset < 0 || width < 0 || f.Offset > n-width {
		return &RangeError{Offset: f.Offset, Width: width, Len: n}
	}
	if f.HasBit() && (f.Bit < 0 || f.Bit > 7) {
		return &BitOffsetError{Bit: f.Bit}
	}
	return nil
}

// window returns exactly width bytes of buf starting at the field's offset.
// The returned slice aliases buf so encoders write through it in place; its
// capacity is clipped so appends can never reach neighbouring bytes.
func window(buf []byte, f Field, width int) ([]byte, error) {
	if err := f.Check(len(buf), width); err != nil {
		return nil, err
	}
	return buf[f.Offset : f.Offset+width : f.Offset+width], nil
}

// bitWindow is window for a single bit; unlike Field.Check it rejects a
// missing bit offset.
func bitWindow(buf []byte, offset, bit int) ([]byte, error) {
	if bit < 0 || bit > 7 {
		return nil, &BitOffsetError{Bit: bit}
	}
	return window(buf, AtBit(offset, bit), 1)
}
