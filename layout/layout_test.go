package layout

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"s7marshal/logging"
	"s7marshal/s7"
)

const tankYAML = `
name: tank
db: 5
size: 40
fields:
  - {name: running, type: BOOL, offset: 0, bit: 0}
  - {name: alarm, address: DB5.DBX0.3}
  - {name: level, type: INT, offset: 2}
  - {name: setpoint, type: REAL, address: DB5.DBD4}
  - {name: label, type: STRING, offset: 8, max_len: 10}
  - {name: runtime, type: TIME, offset: 20}
  - {name: stamp, type: DATE_AND_TIME, offset: 24}
  - {name: delay, type: S5TIME, offset: 32}
  - {name: count, type: COUNTER, address: DB5.DBW34}
  - {name: raw, address: DB5.DBB36}
`

func tankValues() Values {
	return Values{
		"running":  true,
		"alarm":    true,
		"level":    int16(42),
		"setpoint": float32(3.14),
		"label":    "HI!",
		"runtime":  90 * time.Second,
		"stamp":    time.Date(2024, 3, 15, 13, 45, 30, 123*int(time.Millisecond), time.UTC),
		"delay":    1500 * time.Millisecond,
		"count":    uint16(7),
		"raw":      uint8(0xA5),
	}
}

func mustParse(t *testing.T, doc string) *Layout {
	t.Helper()
	l, err := Parse([]byte(doc))
	require.NoError(t, err)
	return l
}

func TestParse(t *testing.T) {
	l := mustParse(t, tankYAML)

	assert.Equal(t, "tank", l.Name)
	assert.Equal(t, "DB", l.Area)
	assert.Equal(t, 5, l.DB)
	assert.Equal(t, 40, l.Size)
	assert.Equal(t,
		[]string{"running", "alarm", "level", "setpoint", "label", "runtime", "stamp", "delay", "count", "raw"},
		l.Names())
	require.NotNil(t, l.Fields[0].Bit)
	assert.Equal(t, 0, *l.Fields[0].Bit)
	assert.Nil(t, l.Fields[2].Bit)
}

func TestEncodeDecode(t *testing.T) {
	l := mustParse(t, tankYAML)
	buf := make([]byte, l.Size)

	want := tankValues()
	require.NoError(t, l.Encode(buf, want))

	assert.Equal(t, byte(0x09), buf[0], "running and alarm bits")
	assert.Equal(t, []byte{0x00, 0x2A}, buf[2:4])
	assert.Equal(t, []byte{0x40, 0x48, 0xF5, 0xC3}, buf[4:8])
	assert.Equal(t, []byte{0x0A, 0x03, 'H', 'I', '!'}, buf[8:13])
	assert.Equal(t, []byte{0x24, 0x03, 0x15, 0x13, 0x45, 0x30, 0x12, 0x36}, buf[24:32])
	assert.Equal(t, []byte{0x11, 0x50}, buf[32:34])
	assert.Equal(t, byte(0xA5), buf[36])

	got, err := l.Decode(buf)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Decode mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_Partial(t *testing.T) {
	l := mustParse(t, tankYAML)
	buf := make([]byte, l.Size)
	buf[0] = 0xF0

	require.NoError(t, l.Encode(buf, Values{"running": true, "level": -2}))
	assert.Equal(t, byte(0xF1), buf[0], "neighbouring bits preserved")
	assert.Equal(t, []byte{0xFF, 0xFE}, buf[2:4])
	assert.Equal(t, make([]byte, 36), buf[4:], "untouched fields stay zero")
}

func TestEncode_AllOrNothing(t *testing.T) {
	l := mustParse(t, tankYAML)
	buf := make([]byte, l.Size)
	orig := append([]byte(nil), buf...)

	err := l.Encode(buf, Values{"level": 42, "label": "ok", "raw": 300})
	require.Error(t, err)
	assert.ErrorIs(t, err, s7.ErrValueOutOfDomain)
	assert.Contains(t, err.Error(), `"raw"`)
	assert.Equal(t, orig, buf, "buffer modified by failed encode")

	err = l.Encode(buf, Values{"level": 42, "label": "much too long for ten"})
	assert.ErrorIs(t, err, s7.ErrInvalidStringLength)
	assert.Equal(t, orig, buf)

	err = l.Encode(buf, Values{"label": 12})
	assert.ErrorIs(t, err, s7.ErrValueOutOfDomain)

	err = l.Encode(buf, Values{"level": 1, "missing": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown field "missing"`)
	assert.Equal(t, orig, buf)
}

func TestDecode_Errors(t *testing.T) {
	l := mustParse(t, tankYAML)

	_, err := l.Decode(make([]byte, l.Size-1))
	assert.ErrorIs(t, err, s7.ErrOutOfRange)

	buf := make([]byte, l.Size)
	require.NoError(t, l.Encode(buf, tankValues()))

	bad := append([]byte(nil), buf...)
	bad[24] = 0xFF
	_, err = l.Decode(bad)
	assert.ErrorIs(t, err, s7.ErrInvalidBcdDigit)
	assert.Contains(t, err.Error(), `"stamp"`)

	bad = append([]byte(nil), buf...)
	bad[8] = 50 // header claims more than the 10 characters reserved
	_, err = l.Decode(bad)
	assert.ErrorIs(t, err, s7.ErrInvalidStringLength)
	assert.Contains(t, err.Error(), `"label"`)
}

func TestDecode_TracesFailure(t *testing.T) {
	var out bytes.Buffer
	logging.SetGlobalDebugLogger(logging.NewDebugLoggerTo(&out))
	defer logging.SetGlobalDebugLogger(nil)

	l := mustParse(t, tankYAML)
	buf := bytes.Repeat([]byte{0xFF}, l.Size)
	buf[8], buf[9] = 0, 0

	_, err := l.Decode(buf)
	require.Error(t, err)

	log := out.String()
	assert.Contains(t, log, "[s7] ERROR in Decode")
	assert.Contains(t, log, "[s7] tank (40 bytes):")
	assert.Contains(t, log, "0000: FF FF")
}

func TestValidate(t *testing.T) {
	bit := func(n int) *int { return &n }
	tests := []struct {
		name   string
		layout Layout
		errMsg string
	}{
		{"no name", Layout{DB: 1, Size: 4}, "name is required"},
		{"unknown area", Layout{Name: "x", Area: "Z9", Size: 4}, "unknown area"},
		{"db zero", Layout{Name: "x", Area: "DB", Size: 4}, "at least 1"},
		{"db on M", Layout{Name: "x", Area: "M", DB: 2, Size: 4}, "only valid for area DB"},
		{"no size", Layout{Name: "x", DB: 1}, "size must be positive"},
		{"field without name", Layout{Name: "x", DB: 1, Size: 4, Fields: []FieldSpec{{Type: "INT"}}}, "has no name"},
		{"duplicate", Layout{Name: "x", DB: 1, Size: 4, Fields: []FieldSpec{
			{Name: "a", Type: "INT"}, {Name: "a", Type: "INT", Offset: 2},
		}}, "duplicate field"},
		{"unknown type", Layout{Name: "x", DB: 1, Size: 4, Fields: []FieldSpec{{Name: "a", Type: "UDT"}}}, "unknown type"},
		{"no type", Layout{Name: "x", DB: 1, Size: 4, Fields: []FieldSpec{{Name: "a"}}}, "type is required"},
		{"bool without bit", Layout{Name: "x", DB: 1, Size: 4, Fields: []FieldSpec{{Name: "a", Type: "BOOL"}}}, "requires a bit"},
		{"bit on int", Layout{Name: "x", DB: 1, Size: 4, Fields: []FieldSpec{{Name: "a", Type: "INT", Bit: bit(1)}}}, "only valid for BOOL"},
		{"bit 8", Layout{Name: "x", DB: 1, Size: 4, Fields: []FieldSpec{{Name: "a", Type: "BOOL", Bit: bit(8)}}}, "bit offset"},
		{"outside block", Layout{Name: "x", DB: 1, Size: 4, Fields: []FieldSpec{{Name: "a", Type: "DINT", Offset: 2}}}, "exceeds buffer"},
		{"string without max", Layout{Name: "x", DB: 1, Size: 4, Fields: []FieldSpec{{Name: "a", Type: "STRING"}}}, "requires max_len"},
		{"string over 254", Layout{Name: "x", DB: 1, Size: 400, Fields: []FieldSpec{{Name: "a", Type: "STRING", MaxLen: 255}}}, "requires max_len"},
		{"string too big", Layout{Name: "x", DB: 1, Size: 4, Fields: []FieldSpec{{Name: "a", Type: "STRING", MaxLen: 4}}}, "exceeds buffer"},
		{"wstring too big", Layout{Name: "x", DB: 1, Size: 8, Fields: []FieldSpec{{Name: "a", Type: "WSTRING", MaxLen: 3}}}, "exceeds buffer"},
		{"fstring without max", Layout{Name: "x", DB: 1, Size: 4, Fields: []FieldSpec{{Name: "a", Type: "FSTRING"}}}, "positive max_len"},
		{"fstring too big", Layout{Name: "x", DB: 1, Size: 4, Fields: []FieldSpec{{Name: "a", Type: "FSTRING", Offset: 1, MaxLen: 4}}}, "exceeds buffer"},
		{"keep_padding on string", Layout{Name: "x", DB: 1, Size: 8, Fields: []FieldSpec{{Name: "a", Type: "STRING", MaxLen: 4, KeepPadding: true}}}, "only valid for FSTRING"},
		{"max_len on int", Layout{Name: "x", DB: 1, Size: 4, Fields: []FieldSpec{{Name: "a", Type: "INT", MaxLen: 3}}}, "only valid for string"},
		{"bad address", Layout{Name: "x", DB: 1, Size: 4, Fields: []FieldSpec{{Name: "a", Address: "DB1.DBQ0"}}}, "invalid S7 address"},
		{"address other db", Layout{Name: "x", DB: 1, Size: 4, Fields: []FieldSpec{{Name: "a", Address: "DB2.DBW0"}}}, "not in DB1"},
		{"address other area", Layout{Name: "x", DB: 1, Size: 4, Fields: []FieldSpec{{Name: "a", Address: "MW0"}}}, "not in area DB"},
		{"address and offset", Layout{Name: "x", DB: 1, Size: 4, Fields: []FieldSpec{{Name: "a", Address: "DB1.DBW0", Offset: 2}}}, "not both"},
		{"type width mismatch", Layout{Name: "x", DB: 1, Size: 4, Fields: []FieldSpec{{Name: "a", Type: "REAL", Address: "DB1.DBW0"}}}, "does not match"},
		{"simple address needs type", Layout{Name: "x", DB: 1, Size: 4, Fields: []FieldSpec{{Name: "a", Address: "DB1.0"}}}, "type is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.layout.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidate_Valid(t *testing.T) {
	l := Layout{Name: "x", DB: 1, Size: 12, Fields: []FieldSpec{
		{Name: "a", Type: "USINT"},
		{Name: "b", Type: "UINT", Address: "DB1.DBW2"},
		{Name: "c", Type: "STRING", Address: "DB1.4", MaxLen: 6},
	}}
	assert.NoError(t, l.Validate())

	edge := Layout{Name: "x", DB: 1, Size: 8, Fields: []FieldSpec{
		{Name: "tag", Type: "FSTRING", Offset: 4, MaxLen: 4},
	}}
	assert.NoError(t, edge.Validate())
}

func TestFString(t *testing.T) {
	l := mustParse(t, `
name: recipe
db: 7
size: 12
fields:
  - {name: code, type: FSTRING, offset: 0, max_len: 6}
  - {name: raw, type: FSTRING, offset: 6, max_len: 6, keep_padding: true}
`)
	buf := make([]byte, l.Size)
	require.NoError(t, l.Encode(buf, Values{"code": "AB12", "raw": "xy"}))
	assert.Equal(t, []byte("AB12  xy    "), buf)

	got, err := l.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, Values{"code": "AB12", "raw": "xy    "}, got)

	err = l.Encode(buf, Values{"code": "TOOLONG"})
	assert.ErrorIs(t, err, s7.ErrInvalidStringLength)
	assert.Equal(t, []byte("AB12  xy    "), buf)

	err = l.Encode(buf, Values{"code": 12})
	assert.ErrorIs(t, err, s7.ErrValueOutOfDomain)
}

func TestOtherAreas(t *testing.T) {
	flags := mustParse(t, `
name: flags
area: M
size: 4
fields:
  - {name: start, address: M0.1}
  - {name: speed, type: INT, address: MW2}
`)
	buf := make([]byte, flags.Size)
	require.NoError(t, flags.Encode(buf, Values{"start": true, "speed": int16(-300)}))
	assert.Equal(t, []byte{0x02, 0x00, 0xFE, 0xD4}, buf)

	got, err := flags.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, Values{"start": true, "speed": int16(-300)}, got)

	timers := mustParse(t, `
name: timers
area: T
size: 6
fields:
  - {name: t0, address: T0}
  - {name: t2, address: T2}
`)
	buf = make([]byte, timers.Size)
	require.NoError(t, timers.Encode(buf, Values{"t2": 10 * time.Second}))
	assert.Equal(t, []byte{0, 0, 0, 0, 0x21, 0x00}, buf)

	got, err = timers.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, Values{"t0": time.Duration(0), "t2": 10 * time.Second}, got)
}

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layouts", "tank.yaml")

	orig := mustParse(t, tankYAML)
	require.NoError(t, orig.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(orig, loaded); diff != "" {
		t.Errorf("Load(Save(l)) mismatch (-want +got):\n%s", diff)
	}

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("name: [unterminated"))
	assert.Error(t, err)

	_, err = Parse([]byte("name: x\ndb: 1\nsize: 2\nfields:\n  - {name: v, type: DINT}\n"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), `field "v"`), err.Error())
	assert.ErrorIs(t, err, s7.ErrOutOfRange)
}

func TestEncode_Conversions(t *testing.T) {
	l := mustParse(t, `
name: mixed
db: 9
size: 24
fields:
  - {name: big, type: LREAL, offset: 0}
  - {name: tod, type: TOD, offset: 8}
  - {name: day, type: DATE, offset: 12}
  - {name: text, type: WSTRING, offset: 14, max_len: 2}
`)
	buf := make([]byte, l.Size)
	require.NoError(t, l.Encode(buf, Values{
		"big":  float32(0.5),
		"tod":  1000,
		"day":  time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC),
		"text": "Ab",
	}))
	got, err := l.Decode(buf)
	require.NoError(t, err)

	assert.Equal(t, 0.5, got["big"])
	assert.Equal(t, time.Second, got["tod"])
	assert.True(t, got["day"].(time.Time).Equal(time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Ab", got["text"])

	err = l.Encode(buf, Values{"big": math.NaN(), "tod": 86400000})
	assert.ErrorIs(t, err, s7.ErrValueOutOfDomain)
}
