package s7

import (
	"encoding/binary"
	"fmt"
)

// S7ANY item header bytes.
const (
	anySpecType = 0x12
	anyItemLen  = 0x0A
	anySyntaxID = 0x10
)

// AnyItemSize is the encoded length of an S7ANY item.
const AnyItemSize = 12

// AnyItem encodes the address as the 12 byte S7ANY item that names it in
// read and write requests. count is the number of elements of the address's
// word length; bit, timer and counter addresses always name one element.
func (a *Address) AnyItem(count int) ([]byte, error) {
	if a.Area.Code() == 0 {
		return nil, fmt.Errorf("s7: unknown area %d", a.Area)
	}

	wordLen := WordLenByte
	if a.Kind.Valid() {
		wordLen = a.Kind.WordLen()
	}

	// Offsets are bit addresses except for timers and counters, which are
	// numbered elements.
	start := a.Offset
	switch a.Area {
	case AreaT:
		wordLen, count = WordLenTimer, 1
	case AreaC:
		wordLen, count = WordLenCounter, 1
	default:
		if wordLen == WordLenTimer || wordLen == WordLenCounter {
			// Counter values held outside the counter area are plain words.
			wordLen = WordLenWord
		}
		start *= 8
		if a.BitNum != NoBit {
			if a.BitNum < 0 || a.BitNum > 7 {
				return nil, &BitOffsetError{Bit: a.BitNum}
			}
			wordLen, count = WordLenBit, 1
			start += a.BitNum
		}
	}

	if count < 1 || count > 0xFFFF {
		return nil, fmt.Errorf("s7: element count must be 1-65535, got %d", count)
	}
	if a.Offset < 0 || start > 0xFFFFFF {
		return nil, &RangeError{Offset: a.Offset, Width: count, Len: 0xFFFFFF / 8}
	}

	dbNumber := a.DBNumber
	if a.Area != AreaDB {
		dbNumber = 0
	}

	item := make([]byte, AnyItemSize)
	item[0] = anySpecType
	item[1] = anyItemLen
	item[2] = anySyntaxID
	item[3] = wordLen
	binary.BigEndian.PutUint16(item[4:], uint16(count))
	binary.BigEndian.PutUint16(item[6:], uint16(dbNumber))
	item[8] = a.Area.Code()
	item[9] = byte(start >> 16)
	item[10] = byte(start >> 8)
	item[11] = byte(start)
	return item, nil
}
