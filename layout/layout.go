// Package layout describes the typed fields of one PLC memory block and
// moves them in and out of a raw block buffer.
package layout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"s7marshal/logging"
	"s7marshal/s7"
)

// Layout is a named list of typed fields inside one block of PLC memory.
type Layout struct {
	Name   string      `yaml:"name"`
	Area   string      `yaml:"area,omitempty"` // DB, I, Q, M, T, C (default DB)
	DB     int         `yaml:"db,omitempty"`   // Data block number, AreaDB only
	Size   int         `yaml:"size"`           // Block size in bytes
	Fields []FieldSpec `yaml:"fields"`
}

// FieldSpec places one value inside the block, either by offset/bit or by
// an S7 address string such as DB1.DBW4 or M0.3.
type FieldSpec struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type,omitempty"`
	Offset  int    `yaml:"offset,omitempty"`
	Bit     *int   `yaml:"bit,omitempty"`
	Address string `yaml:"address,omitempty"`
	MaxLen  int    `yaml:"max_len,omitempty"` // STRING/WSTRING capacity, FSTRING width

	// KeepPadding returns FSTRING values with their trailing padding.
	KeepPadding bool `yaml:"keep_padding,omitempty"`
}

// Values maps field names to decoded Go values.
type Values map[string]interface{}

// field is a FieldSpec resolved against its layout.
type field struct {
	name   string
	kind   s7.Kind
	loc    s7.Field
	maxLen int
	keep   bool
}

// size is the number of block bytes the field occupies.
func (f field) size() int {
	if f.kind.IsString() {
		return f.kind.Size(f.maxLen)
	}
	return f.kind.Width()
}

// Load reads a layout from a YAML file.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	l, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// Parse decodes and validates a YAML layout document.
func Parse(data []byte) (*Layout, error) {
	l := &Layout{}
	if err := yaml.Unmarshal(data, l); err != nil {
		return nil, err
	}
	if l.Area == "" {
		l.Area = s7.AreaDB.String()
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// Save writes the layout to a YAML file.
func (l *Layout) Save(path string) error {
	data, err := yaml.Marshal(l)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks that every field is well formed and fits the block.
func (l *Layout) Validate() error {
	_, err := l.resolve()
	return err
}

// Names returns the field names in declaration order.
func (l *Layout) Names() []string {
	names := make([]string, len(l.Fields))
	for i, f := range l.Fields {
		names[i] = f.Name
	}
	return names
}

// area returns the layout's memory area.
func (l *Layout) area() (s7.Area, error) {
	name := l.Area
	if name == "" {
		name = s7.AreaDB.String()
	}
	a, ok := s7.AreaFromName(name)
	if !ok {
		return 0, fmt.Errorf("layout %q: unknown area %q", l.Name, l.Area)
	}
	return a, nil
}

func (l *Layout) resolve() ([]field, error) {
	if l.Name == "" {
		return nil, errors.New("layout name is required")
	}
	area, err := l.area()
	if err != nil {
		return nil, err
	}
	if area == s7.AreaDB && l.DB < 1 {
		return nil, fmt.Errorf("layout %q: data block number must be at least 1", l.Name)
	}
	if area != s7.AreaDB && l.DB != 0 {
		return nil, fmt.Errorf("layout %q: db is only valid for area DB", l.Name)
	}
	if l.Size <= 0 {
		return nil, fmt.Errorf("layout %q: size must be positive", l.Name)
	}

	fields := make([]field, 0, len(l.Fields))
	seen := make(map[string]bool, len(l.Fields))
	for i := range l.Fields {
		spec := &l.Fields[i]
		if strings.TrimSpace(spec.Name) == "" {
			return nil, fmt.Errorf("layout %q: field %d has no name", l.Name, i)
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("layout %q: duplicate field %q", l.Name, spec.Name)
		}
		seen[spec.Name] = true

		f, err := l.resolveField(area, spec)
		if err != nil {
			return nil, fmt.Errorf("layout %q: field %q: %w", l.Name, spec.Name, err)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func (l *Layout) resolveField(area s7.Area, spec *FieldSpec) (field, error) {
	f := field{name: spec.Name, loc: s7.At(spec.Offset), maxLen: spec.MaxLen, keep: spec.KeepPadding}
	if spec.Bit != nil {
		f.loc.Bit = *spec.Bit
	}

	if spec.Type != "" {
		k, ok := s7.KindFromName(spec.Type)
		if !ok {
			return f, fmt.Errorf("unknown type %q", spec.Type)
		}
		f.kind = k
	}

	if spec.Address != "" {
		if spec.Offset != 0 || spec.Bit != nil {
			return f, errors.New("set either address or offset/bit, not both")
		}
		addr, err := s7.ParseAddress(spec.Address)
		if err != nil {
			return f, err
		}
		if addr.Area != area {
			return f, fmt.Errorf("address %s is not in area %s", spec.Address, area)
		}
		if area == s7.AreaDB && addr.DBNumber != l.DB {
			return f, fmt.Errorf("address %s is not in DB%d", spec.Address, l.DB)
		}
		f.loc = addr.Field()
		if area == s7.AreaT || area == s7.AreaC {
			// Timer and counter addresses number elements, not bytes.
			f.loc.Offset = addr.Offset * addr.Size
		}
		switch {
		case f.kind == 0:
			f.kind = addr.Kind
		case addr.Kind != 0 && (addr.Kind.IsBit() != f.kind.IsBit() || addr.Kind.Width() != f.kind.Width()):
			return f, fmt.Errorf("type %s does not match %d byte access %s", f.kind, addr.Size, spec.Address)
		}
	}

	if f.kind == 0 {
		return f, errors.New("type is required")
	}

	switch {
	case f.kind.IsBit():
		if !f.loc.HasBit() {
			return f, fmt.Errorf("%s requires a bit: %w", f.kind, s7.ErrInvalidBitOffset)
		}
	case f.loc.HasBit():
		return f, fmt.Errorf("bit is only valid for BOOL fields: %w", s7.ErrInvalidBitOffset)
	}

	switch f.kind {
	case s7.KindString, s7.KindWString:
		limit := s7.StringMaxLen
		if f.kind == s7.KindWString {
			limit = s7.WStringMaxLen
		}
		if f.maxLen < 1 || f.maxLen > limit {
			return f, fmt.Errorf("%s requires max_len between 1 and %d", f.kind, limit)
		}
	case s7.KindFString:
		// Bounded by the block, checked below.
		if f.maxLen < 1 {
			return f, fmt.Errorf("%s requires a positive max_len", f.kind)
		}
	default:
		if f.maxLen != 0 {
			return f, fmt.Errorf("max_len is only valid for string fields")
		}
	}
	if f.keep && f.kind != s7.KindFString {
		return f, fmt.Errorf("keep_padding is only valid for FSTRING fields")
	}

	if err := f.loc.Check(l.Size, f.size()); err != nil {
		return f, err
	}
	return f, nil
}

// checkBuffer rejects buffers shorter than the block.
func (l *Layout) checkBuffer(buf []byte) error {
	if len(buf) < l.Size {
		return fmt.Errorf("layout %q: %w", l.Name, &s7.RangeError{Offset: 0, Width: l.Size, Len: len(buf)})
	}
	return nil
}

// Decode reads every field of the layout from buf.
func (l *Layout) Decode(buf []byte) (Values, error) {
	fields, err := l.resolve()
	if err != nil {
		return nil, err
	}
	if err := l.checkBuffer(buf); err != nil {
		return nil, err
	}

	vals := make(Values, len(fields))
	for _, f := range fields {
		v, err := decodeField(buf, f)
		if err != nil {
			err = fmt.Errorf("layout %q: field %q: %w", l.Name, f.name, err)
			l.trace("Decode", buf, err)
			return nil, err
		}
		vals[f.name] = v
	}
	return vals, nil
}

// Encode writes the given values into buf. Either every value is written or
// buf is left untouched.
func (l *Layout) Encode(buf []byte, vals Values) error {
	fields, err := l.resolve()
	if err != nil {
		return err
	}
	if err := l.checkBuffer(buf); err != nil {
		return err
	}

	byName := make(map[string]field, len(fields))
	for _, f := range fields {
		byName[f.name] = f
	}

	names := make([]string, 0, len(vals))
	for name := range vals {
		names = append(names, name)
	}
	sort.Strings(names)

	scratch := make([]byte, len(buf))
	copy(scratch, buf)

	for _, name := range names {
		f, ok := byName[name]
		if !ok {
			err := fmt.Errorf("layout %q: unknown field %q", l.Name, name)
			l.trace("Encode", buf, err)
			return err
		}
		if err := encodeField(scratch, f, vals[name]); err != nil {
			err = fmt.Errorf("layout %q: field %q: %w", l.Name, name, err)
			l.trace("Encode", buf, err)
			return err
		}
	}

	copy(buf, scratch)
	return nil
}

func decodeField(buf []byte, f field) (interface{}, error) {
	if f.kind == s7.KindFString {
		return s7.GetFString(buf, f.loc.Offset, f.maxLen, !f.keep)
	}
	if f.kind.IsString() {
		header := s7.GetStringHeader
		if f.kind == s7.KindWString {
			header = s7.GetWStringHeader
		}
		maxLen, _, err := header(buf, f.loc.Offset)
		if err != nil {
			return nil, err
		}
		// The header must not claim more room than the layout reserves.
		if maxLen > f.maxLen {
			return nil, &s7.StringLengthError{Offset: f.loc.Offset, Max: f.maxLen, Length: maxLen, Available: f.maxLen}
		}
	}
	return s7.Get(buf, f.loc, f.kind)
}

func encodeField(buf []byte, f field, v interface{}) error {
	if !f.kind.IsString() {
		return s7.Set(buf, f.loc, f.kind, v)
	}
	s, ok := v.(string)
	if !ok {
		return &s7.DomainError{Kind: f.kind, Value: v, Reason: "expected string"}
	}
	switch f.kind {
	case s7.KindWString:
		return s7.SetWString(buf, f.loc.Offset, f.maxLen, s)
	case s7.KindFString:
		return s7.SetFString(buf, f.loc.Offset, f.maxLen, s)
	}
	return s7.SetString(buf, f.loc.Offset, f.maxLen, s)
}

// trace logs a failed block operation with a dump of the block.
func (l *Layout) trace(op string, buf []byte, err error) {
	logging.DebugError("s7", op, err)
	logging.DebugDump("s7", l.Name, buf)
}
