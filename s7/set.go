package s7

import (
	"encoding/binary"
	"math"
)

// SetBool sets or clears bit (0-7) of the byte at offset. The other seven
// bits are preserved.
func SetBool(buf []byte, offset, bit int, v bool) error {
	w, err := bitWindow(buf, offset, bit)
	if err != nil {
		return err
	}
	if v {
		w[0] |= 1 << uint(bit)
	} else {
		w[0] &^= 1 << uint(bit)
	}
	return nil
}

// SetByte writes an unsigned byte at offset.
func SetByte(buf []byte, offset int, v uint8) error {
	w, err := window(buf, At(offset), 1)
	if err != nil {
		return err
	}
	w[0] = v
	return nil
}

// SetUSInt is SetByte.
func SetUSInt(buf []byte, offset int, v uint8) error {
	return SetByte(buf, offset, v)
}

// SetSInt writes a signed byte at offset.
func SetSInt(buf []byte, offset int, v int8) error {
	return SetByte(buf, offset, uint8(v))
}

// SetWord writes a big-endian uint16 at offset.
func SetWord(buf []byte, offset int, v uint16) error {
	w, err := window(buf, At(offset), 2)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint16(w, v)
	return nil
}

// SetUInt is SetWord.
func SetUInt(buf []byte, offset int, v uint16) error {
	return SetWord(buf, offset, v)
}

// SetCounter writes a 16-bit counter value at offset.
func SetCounter(buf []byte, offset int, v uint16) error {
	return SetWord(buf, offset, v)
}

// SetInt writes a big-endian int16 at offset.
func SetInt(buf []byte, offset int, v int16) error {
	return SetWord(buf, offset, uint16(v))
}

// SetDWord writes a big-endian uint32 at offset.
func SetDWord(buf []byte, offset int, v uint32) error {
	w, err := window(buf, At(offset), 4)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint32(w, v)
	return nil
}

// SetUDInt is SetDWord.
func SetUDInt(buf []byte, offset int, v uint32) error {
	return SetDWord(buf, offset, v)
}

// SetDInt writes a big-endian int32 at offset.
func SetDInt(buf []byte, offset int, v int32) error {
	return SetDWord(buf, offset, uint32(v))
}

// SetReal writes a big-endian IEEE 754 single at offset.
func SetReal(buf []byte, offset int, v float32) error {
	return SetDWord(buf, offset, math.Float32bits(v))
}

// SetLWord writes a big-endian uint64 at offset.
func SetLWord(buf []byte, offset int, v uint64) error {
	w, err := window(buf, At(offset), 8)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint64(w, v)
	return nil
}

// SetULInt is SetLWord.
func SetULInt(buf []byte, offset int, v uint64) error {
	return SetLWord(buf, offset, v)
}

// SetLInt writes a big-endian int64 at offset.
func SetLInt(buf []byte, offset int, v int64) error {
	return SetLWord(buf, offset, uint64(v))
}

// SetLReal writes a big-endian IEEE 754 double at offset.
func SetLReal(buf []byte, offset int, v float64) error {
	return SetLWord(buf, offset, math.Float64bits(v))
}
