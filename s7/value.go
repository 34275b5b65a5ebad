package s7

import (
	"fmt"
	"math"
	"time"
	"unicode/utf8"
)

// codec binds a kind to its decode and encode rules. Get returns, and Set
// accepts, the Go type of the kind's typed accessor:
//   - BOOL -> bool
//   - BYTE, SINT -> uint8, int8
//   - WORD, INT, COUNTER -> uint16, int16, uint16
//   - DWORD, DINT -> uint32, int32
//   - LWORD, LINT -> uint64, int64
//   - REAL, LREAL -> float32, float64
//   - CHAR -> rune
//   - S5TIME, TIME, TOD -> time.Duration
//   - DATE, DT -> time.Time
//   - STRING, WSTRING -> string
//
// Set also accepts any Go integer for integer kinds, any Go number for float
// kinds and integer milliseconds for duration kinds, rejecting values that do
// not fit instead of truncating them.
type codec struct {
	get func(buf []byte, off int, bit int) (interface{}, error)
	set func(buf []byte, off int, bit int, v interface{}) error
}

var codecs = [numKinds]codec{
	KindBool: {
		get: func(b []byte, o, bit int) (interface{}, error) { return GetBool(b, o, bit) },
		set: func(b []byte, o, bit int, v interface{}) error {
			x, err := asBool(v)
			if err != nil {
				return err
			}
			return SetBool(b, o, bit, x)
		},
	},
	KindByte: {
		get: func(b []byte, o, _ int) (interface{}, error) { return GetByte(b, o) },
		set: func(b []byte, o, _ int, v interface{}) error {
			x, err := asUint(KindByte, v, math.MaxUint8)
			if err != nil {
				return err
			}
			return SetByte(b, o, uint8(x))
		},
	},
	KindSInt: {
		get: func(b []byte, o, _ int) (interface{}, error) { return GetSInt(b, o) },
		set: func(b []byte, o, _ int, v interface{}) error {
			x, err := asInt(KindSInt, v, math.MinInt8, math.MaxInt8)
			if err != nil {
				return err
			}
			return SetSInt(b, o, int8(x))
		},
	},
	KindChar: {
		get: func(b []byte, o, _ int) (interface{}, error) { return GetChar(b, o) },
		set: func(b []byte, o, _ int, v interface{}) error {
			r, err := asRune(v)
			if err != nil {
				return err
			}
			return SetChar(b, o, r)
		},
	},
	KindWord: {
		get: func(b []byte, o, _ int) (interface{}, error) { return GetWord(b, o) },
		set: func(b []byte, o, _ int, v interface{}) error {
			x, err := asUint(KindWord, v, math.MaxUint16)
			if err != nil {
				return err
			}
			return SetWord(b, o, uint16(x))
		},
	},
	KindInt: {
		get: func(b []byte, o, _ int) (interface{}, error) { return GetInt(b, o) },
		set: func(b []byte, o, _ int, v interface{}) error {
			x, err := asInt(KindInt, v, math.MinInt16, math.MaxInt16)
			if err != nil {
				return err
			}
			return SetInt(b, o, int16(x))
		},
	},
	KindDWord: {
		get: func(b []byte, o, _ int) (interface{}, error) { return GetDWord(b, o) },
		set: func(b []byte, o, _ int, v interface{}) error {
			x, err := asUint(KindDWord, v, math.MaxUint32)
			if err != nil {
				return err
			}
			return SetDWord(b, o, uint32(x))
		},
	},
	KindDInt: {
		get: func(b []byte, o, _ int) (interface{}, error) { return GetDInt(b, o) },
		set: func(b []byte, o, _ int, v interface{}) error {
			x, err := asInt(KindDInt, v, math.MinInt32, math.MaxInt32)
			if err != nil {
				return err
			}
			return SetDInt(b, o, int32(x))
		},
	},
	KindReal: {
		get: func(b []byte, o, _ int) (interface{}, error) { return GetReal(b, o) },
		set: func(b []byte, o, _ int, v interface{}) error {
			x, err := asFloat(KindReal, v)
			if err != nil {
				return err
			}
			if !math.IsInf(x, 0) && !math.IsNaN(x) && math.Abs(x) > math.MaxFloat32 {
				return domainErr(KindReal, v, "exceeds single precision range")
			}
			return SetReal(b, o, float32(x))
		},
	},
	KindLWord: {
		get: func(b []byte, o, _ int) (interface{}, error) { return GetLWord(b, o) },
		set: func(b []byte, o, _ int, v interface{}) error {
			x, err := asUint(KindLWord, v, math.MaxUint64)
			if err != nil {
				return err
			}
			return SetLWord(b, o, x)
		},
	},
	KindLInt: {
		get: func(b []byte, o, _ int) (interface{}, error) { return GetLInt(b, o) },
		set: func(b []byte, o, _ int, v interface{}) error {
			x, err := asInt(KindLInt, v, math.MinInt64, math.MaxInt64)
			if err != nil {
				return err
			}
			return SetLInt(b, o, x)
		},
	},
	KindLReal: {
		get: func(b []byte, o, _ int) (interface{}, error) { return GetLReal(b, o) },
		set: func(b []byte, o, _ int, v interface{}) error {
			x, err := asFloat(KindLReal, v)
			if err != nil {
				return err
			}
			return SetLReal(b, o, x)
		},
	},
	KindS5Time: {
		get: func(b []byte, o, _ int) (interface{}, error) { return GetS5Time(b, o) },
		set: func(b []byte, o, _ int, v interface{}) error {
			d, err := asDuration(KindS5Time, v)
			if err != nil {
				return err
			}
			return SetS5Time(b, o, d)
		},
	},
	KindTime: {
		get: func(b []byte, o, _ int) (interface{}, error) { return GetTime(b, o) },
		set: func(b []byte, o, _ int, v interface{}) error {
			d, err := asDuration(KindTime, v)
			if err != nil {
				return err
			}
			return SetTime(b, o, d)
		},
	},
	KindDate: {
		get: func(b []byte, o, _ int) (interface{}, error) { return GetDate(b, o) },
		set: func(b []byte, o, _ int, v interface{}) error {
			t, err := asTime(KindDate, v)
			if err != nil {
				return err
			}
			return SetDate(b, o, t)
		},
	},
	KindTOD: {
		get: func(b []byte, o, _ int) (interface{}, error) { return GetTOD(b, o) },
		set: func(b []byte, o, _ int, v interface{}) error {
			d, err := asDuration(KindTOD, v)
			if err != nil {
				return err
			}
			return SetTOD(b, o, d)
		},
	},
	KindDT: {
		get: func(b []byte, o, _ int) (interface{}, error) { return GetDT(b, o) },
		set: func(b []byte, o, _ int, v interface{}) error {
			t, err := asTime(KindDT, v)
			if err != nil {
				return err
			}
			return SetDT(b, o, t)
		},
	},
	KindCounter: {
		get: func(b []byte, o, _ int) (interface{}, error) { return GetCounter(b, o) },
		set: func(b []byte, o, _ int, v interface{}) error {
			x, err := asUint(KindCounter, v, math.MaxUint16)
			if err != nil {
				return err
			}
			return SetCounter(b, o, uint16(x))
		},
	},
	KindString: {
		get: func(b []byte, o, _ int) (interface{}, error) { return GetString(b, o) },
		set: func(b []byte, o, _ int, v interface{}) error {
			s, ok := v.(string)
			if !ok {
				return domainErr(KindString, v, fmt.Sprintf("cannot convert %T to string", v))
			}
			return SetString(b, o, -1, s)
		},
	},
	KindWString: {
		get: func(b []byte, o, _ int) (interface{}, error) { return GetWString(b, o) },
		set: func(b []byte, o, _ int, v interface{}) error {
			s, ok := v.(string)
			if !ok {
				return domainErr(KindWString, v, fmt.Sprintf("cannot convert %T to string", v))
			}
			return SetWString(b, o, -1, s)
		},
	},
	// FSTRING carries no header, so its length has to come from the caller.
	KindFString: {
		get: func(b []byte, o, _ int) (interface{}, error) {
			return nil, domainErr(KindFString, o, "length unknown, use GetFString")
		},
		set: func(b []byte, o, _ int, v interface{}) error {
			return domainErr(KindFString, v, "length unknown, use SetFString")
		},
	},
}

// prepare checks the kind and the field's bit offset. BOOL requires a bit;
// other kinds accept one only if it is in range.
func prepare(f Field, k Kind) error {
	if !k.Valid() {
		return domainErr(k, uint8(k), "unknown data type")
	}
	if k.IsBit() && !f.HasBit() {
		return &BitOffsetError{Bit: f.Bit}
	}
	if f.HasBit() && (f.Bit < 0 || f.Bit > 7) {
		return &BitOffsetError{Bit: f.Bit}
	}
	return nil
}

// Get decodes the value of kind k at f. Strings use their stored header.
func Get(buf []byte, f Field, k Kind) (interface{}, error) {
	if err := prepare(f, k); err != nil {
		return nil, err
	}
	return codecs[k].get(buf, f.Offset, f.Bit)
}

// Set encodes v as kind k at f. Strings keep the declared maximum already
// present in the header; use SetString or SetWString to set a new one.
func Set(buf []byte, f Field, k Kind, v interface{}) error {
	if err := prepare(f, k); err != nil {
		return err
	}
	return codecs[k].set(buf, f.Offset, f.Bit, v)
}

func asBool(v interface{}) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	n, err := asInt(KindBool, v, 0, 1)
	return n == 1, err
}

func asInt(k Kind, v interface{}, min, max int64) (int64, error) {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int8:
		n = int64(x)
	case int16:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case uint, uint8, uint16, uint32, uint64:
		u, _ := asUint(k, v, math.MaxUint64)
		if u > math.MaxInt64 || int64(u) > max {
			return 0, domainErr(k, v, fmt.Sprintf("must be within %d..%d", min, max))
		}
		return int64(u), nil
	default:
		return 0, domainErr(k, v, fmt.Sprintf("cannot convert %T to %s", v, k))
	}
	if n < min || n > max {
		return 0, domainErr(k, v, fmt.Sprintf("must be within %d..%d", min, max))
	}
	return n, nil
}

func asUint(k Kind, v interface{}, max uint64) (uint64, error) {
	var u uint64
	switch x := v.(type) {
	case uint:
		u = uint64(x)
	case uint8:
		u = uint64(x)
	case uint16:
		u = uint64(x)
	case uint32:
		u = uint64(x)
	case uint64:
		u = x
	case int, int8, int16, int32, int64:
		n, err := asInt(k, v, 0, math.MaxInt64)
		if err != nil {
			return 0, domainErr(k, v, fmt.Sprintf("must be within 0..%d", max))
		}
		u = uint64(n)
	default:
		return 0, domainErr(k, v, fmt.Sprintf("cannot convert %T to %s", v, k))
	}
	if u > max {
		return 0, domainErr(k, v, fmt.Sprintf("must be within 0..%d", max))
	}
	return u, nil
}

func asFloat(k Kind, v interface{}) (float64, error) {
	switch x := v.(type) {
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	}
	if n, err := asInt(k, v, math.MinInt64, math.MaxInt64); err == nil {
		return float64(n), nil
	}
	if u, err := asUint(k, v, math.MaxUint64); err == nil {
		return float64(u), nil
	}
	return 0, domainErr(k, v, fmt.Sprintf("cannot convert %T to %s", v, k))
}

func asDuration(k Kind, v interface{}) (time.Duration, error) {
	if d, ok := v.(time.Duration); ok {
		return d, nil
	}
	if s, ok := v.(string); ok && k == KindTime {
		return ParseTime(s)
	}
	ms, err := asInt(k, v, math.MinInt64/int64(time.Millisecond), math.MaxInt64/int64(time.Millisecond))
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func asTime(k Kind, v interface{}) (time.Time, error) {
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, domainErr(k, v, fmt.Sprintf("cannot convert %T to time.Time", v))
	}
	return t, nil
}

func asRune(v interface{}) (rune, error) {
	switch x := v.(type) {
	case rune:
		return x, nil
	case byte:
		return rune(x), nil
	case string:
		if r, size := utf8.DecodeRuneInString(x); size > 0 && size == len(x) && r != utf8.RuneError {
			return r, nil
		}
	}
	return 0, domainErr(KindChar, v, fmt.Sprintf("cannot convert %T to a single character", v))
}
