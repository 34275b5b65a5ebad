package s7

import (
	"encoding/binary"
	"math"
)

// GetBool returns bit (0-7) of the byte at offset.
func GetBool(buf []byte, offset, bit int) (bool, error) {
	w, err := bitWindow(buf, offset, bit)
	if err != nil {
		return false, err
	}
	return (w[0]>>uint(bit))&1 == 1, nil
}

// GetByte returns the unsigned byte at offset.
func GetByte(buf []byte, offset int) (uint8, error) {
	w, err := window(buf, At(offset), 1)
	if err != nil {
		return 0, err
	}
	return w[0], nil
}

// GetUSInt is GetByte.
func GetUSInt(buf []byte, offset int) (uint8, error) {
	return GetByte(buf, offset)
}

// GetSInt returns the signed byte at offset.
func GetSInt(buf []byte, offset int) (int8, error) {
	b, err := GetByte(buf, offset)
	return int8(b), err
}

// GetWord returns the big-endian uint16 at offset.
func GetWord(buf []byte, offset int) (uint16, error) {
	w, err := window(buf, At(offset), 2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(w), nil
}

// GetUInt is GetWord.
func GetUInt(buf []byte, offset int) (uint16, error) {
	return GetWord(buf, offset)
}

// GetCounter returns the 16-bit counter value at offset.
func GetCounter(buf []byte, offset int) (uint16, error) {
	return GetWord(buf, offset)
}

// GetInt returns the big-endian int16 at offset.
func GetInt(buf []byte, offset int) (int16, error) {
	v, err := GetWord(buf, offset)
	return int16(v), err
}

// GetDWord returns the big-endian uint32 at offset.
func GetDWord(buf []byte, offset int) (uint32, error) {
	w, err := window(buf, At(offset), 4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(w), nil
}

// GetUDInt is GetDWord.
func GetUDInt(buf []byte, offset int) (uint32, error) {
	return GetDWord(buf, offset)
}

// GetDInt returns the big-endian int32 at offset.
func GetDInt(buf []byte, offset int) (int32, error) {
	v, err := GetDWord(buf, offset)
	return int32(v), err
}

// GetReal returns the big-endian IEEE 754 single at offset.
func GetReal(buf []byte, offset int) (float32, error) {
	v, err := GetDWord(buf, offset)
	return math.Float32frombits(v), err
}

// GetLWord returns the big-endian uint64 at offset.
func GetLWord(buf []byte, offset int) (uint64, error) {
	w, err := window(buf, At(offset), 8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(w), nil
}

// GetULInt is GetLWord.
func GetULInt(buf []byte, offset int) (uint64, error) {
	return GetLWord(buf, offset)
}

// GetLInt returns the big-endian int64 at offset.
func GetLInt(buf []byte, offset int) (int64, error) {
	v, err := GetLWord(buf, offset)
	return int64(v), err
}

// GetLReal returns the big-endian IEEE 754 double at offset.
func GetLReal(buf []byte, offset int) (float64, error) {
	v, err := GetLWord(buf, offset)
	return math.Float64frombits(v), err
}
