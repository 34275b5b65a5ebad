package s7

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by this package matches exactly one
// of these with errors.Is.
var (
	ErrOutOfRange          = errors.New("s7: access out of range")
	ErrInvalidBitOffset    = errors.New("s7: invalid bit offset")
	ErrInvalidBcdDigit     = errors.New("s7: invalid BCD digit")
	ErrInvalidStringLength = errors.New("s7: invalid string length")
	ErrValueOutOfDomain    = errors.New("s7: value out of domain")
)

// RangeError reports an access window that does not fit the buffer.
type RangeError struct {
	Offset int
	Width  int
	Len    int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("s7: %d byte access at offset %d exceeds buffer of %d bytes", e.Width, e.Offset, e.Len)
}

// Is reports whether target is ErrOutOfRange.
func (e *RangeError) Is(target error) bool { return target == ErrOutOfRange }

// BitOffsetError reports a bit index outside 0-7.
type BitOffsetError struct {
	Bit int
}

func (e *BitOffsetError) Error() string {
	return fmt.Sprintf("s7: bit offset must be 0-7, got %d", e.Bit)
}

// Is reports whether target is ErrInvalidBitOffset.
func (e *BitOffsetError) Is(target error) bool { return target == ErrInvalidBitOffset }

// BCDError reports a packed decimal nibble greater than 9.
type BCDError struct {
	Offset int  // absolute byte offset of the bad nibble
	Value  byte // the full byte holding it
}

func (e *BCDError) Error() string {
	return fmt.Sprintf("s7: invalid BCD byte 0x%02X at offset %d", e.Value, e.Offset)
}

// Is reports whether target is ErrInvalidBcdDigit.
func (e *BCDError) Is(target error) bool { return target == ErrInvalidBcdDigit }

// StringLengthError reports a string header that is inconsistent with its
// declared capacity or with the bytes available after the header.
type StringLengthError struct {
	Offset    int
	Max       int // declared maximum length
	Length    int // current (or requested) length
	Available int // payload bytes available in the buffer
	Limit     int // largest maximum the kind allows, set when Max exceeds it
}

func (e *StringLengthError) Error() string {
	if e.Limit > 0 && e.Max > e.Limit {
		return fmt.Sprintf("s7: string at offset %d declares maximum %d, exceeds %d", e.Offset, e.Max, e.Limit)
	}
	if e.Length > e.Max {
		return fmt.Sprintf("s7: string at offset %d has length %d, exceeds declared maximum %d", e.Offset, e.Length, e.Max)
	}
	return fmt.Sprintf("s7: string at offset %d has length %d, only %d bytes available", e.Offset, e.Length, e.Available)
}

// Is reports whether target is ErrInvalidStringLength.
func (e *StringLengthError) Is(target error) bool { return target == ErrInvalidStringLength }

// DomainError reports a value the target kind cannot represent, either on
// encode or because the decoded bytes describe an impossible value.
type DomainError struct {
	Kind   Kind
	Value  interface{}
	Reason string
}

func (e *DomainError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("s7: %v out of domain for %s: %s", e.Value, e.Kind, e.Reason)
	}
	return fmt.Sprintf("s7: %v out of domain for %s", e.Value, e.Kind)
}

// Is reports whether target is ErrValueOutOfDomain.
func (e *DomainError) Is(target error) bool { return target == ErrValueOutOfDomain }

func domainErr(k Kind, v interface{}, reason string) error {
	return &DomainError{Kind: k, Value: v, Reason: reason}
}
