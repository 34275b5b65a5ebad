package s7

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

// S5TIME time bases, selected by the low two bits of the high nibble of the
// first byte. The top two bits of that nibble are unused and ignored.
var s5TimeBases = [4]time.Duration{
	time.Millisecond,
	10 * time.Millisecond,
	100 * time.Millisecond,
	time.Second,
}

// Ranges of the time and date kinds.
const (
	MaxS5Time = 999 * time.Second
	MaxTOD    = 24 * time.Hour // exclusive
	MinTime   = math.MinInt32 * time.Millisecond
	MaxTime   = math.MaxInt32 * time.Millisecond
	MinDTYear = 1990
	MaxDTYear = 2089
)

const msPerDay = 24 * 60 * 60 * 1000

// DateEpoch is day 0 of the DATE kind.
var DateEpoch = time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)

// MaxDate is the last day a DATE can hold.
var MaxDate = DateEpoch.AddDate(0, 0, math.MaxUint16)

func bcdToInt(b byte, offset int) (int, error) {
	hi, lo := b>>4, b&0x0F
	if hi > 9 || lo > 9 {
		return 0, &BCDError{Offset: offset, Value: b}
	}
	return int(hi)*10 + int(lo), nil
}

func intToBCD(n int) byte {
	return byte(n/10)<<4 | byte(n%10)
}

// GetS5Time decodes an S5TIME duration at offset.
func GetS5Time(buf []byte, offset int) (time.Duration, error) {
	w, err := window(buf, At(offset), 2)
	if err != nil {
		return 0, err
	}
	hundreds := w[0] & 0x0F
	if hundreds > 9 {
		return 0, &BCDError{Offset: offset, Value: w[0]}
	}
	rest, err := bcdToInt(w[1], offset+1)
	if err != nil {
		return 0, err
	}
	base := s5TimeBases[(w[0]>>4)&0x03]
	return time.Duration(int(hundreds)*100+rest) * base, nil
}

// SetS5Time encodes d as S5TIME at offset, using the finest time base whose
// 0-999 count can hold it. Precision below that base is truncated.
func SetS5Time(buf []byte, offset int, d time.Duration) error {
	w, err := window(buf, At(offset), 2)
	if err != nil {
		return err
	}
	if d < 0 || d > MaxS5Time {
		return domainErr(KindS5Time, d, "must be within 0..999s")
	}
	for i, base := range s5TimeBases {
		count := int(d / base)
		if count <= 999 {
			w[0] = byte(i)<<4 | byte(count/100)
			w[1] = intToBCD(count % 100)
			return nil
		}
	}
	return domainErr(KindS5Time, d, "must be within 0..999s")
}

// GetTime decodes a TIME (signed milliseconds) at offset.
func GetTime(buf []byte, offset int) (time.Duration, error) {
	v, err := GetDInt(buf, offset)
	return time.Duration(v) * time.Millisecond, err
}

// SetTime encodes d as TIME at offset, truncated to milliseconds.
func SetTime(buf []byte, offset int, d time.Duration) error {
	if err := At(offset).Check(len(buf), 4); err != nil {
		return err
	}
	ms := d / time.Millisecond
	if ms < math.MinInt32 || ms > math.MaxInt32 {
		return domainErr(KindTime, d, "exceeds 32-bit milliseconds")
	}
	return SetDInt(buf, offset, int32(ms))
}

// timeText matches the [-]D:H:M:S.ms text form of a TIME value.
var timeText = regexp.MustCompile(`^(-?)(\d+):(\d+):(\d+):(\d+)\.(\d{1,3})$`)

// FormatTime renders d, truncated to milliseconds, as [-]D:H:M:S.mmm with
// days unbounded and milliseconds zero padded.
func FormatTime(d time.Duration) string {
	ms := int64(d / time.Millisecond)
	sign := ""
	if ms < 0 {
		sign, ms = "-", -ms
	}
	return fmt.Sprintf("%s%d:%d:%d:%d.%03d", sign,
		ms/msPerDay, ms/3600000%24, ms/60000%60, ms/1000%60, ms%1000)
}

// ParseTime parses the [-]D:H:M:S.ms form produced by FormatTime. The
// millisecond part is a count, so ".5" is 5ms. The result must fit a TIME.
func ParseTime(s string) (time.Duration, error) {
	m := timeText.FindStringSubmatch(s)
	if m == nil {
		return 0, domainErr(KindTime, s, "expected [-]D:H:M:S.ms")
	}
	var parts [5]int64
	for i := range parts {
		n, err := strconv.ParseInt(m[i+2], 10, 64)
		if err != nil {
			return 0, domainErr(KindTime, s, "component out of range")
		}
		parts[i] = n
	}
	days, hours, mins, secs, ms := parts[0], parts[1], parts[2], parts[3], parts[4]
	if hours > 23 || mins > 59 || secs > 59 {
		return 0, domainErr(KindTime, s, "clock component out of range")
	}
	if days > math.MaxInt32/msPerDay+1 {
		return 0, domainErr(KindTime, s, "exceeds 32-bit milliseconds")
	}
	total := (((days*24+hours)*60+mins)*60+secs)*1000 + ms
	if m[1] == "-" {
		total = -total
	}
	if total < math.MinInt32 || total > math.MaxInt32 {
		return 0, domainErr(KindTime, s, "exceeds 32-bit milliseconds")
	}
	return time.Duration(total) * time.Millisecond, nil
}

// GetDate decodes a DATE at offset as midnight UTC.
func GetDate(buf []byte, offset int) (time.Time, error) {
	days, err := GetWord(buf, offset)
	if err != nil {
		return time.Time{}, err
	}
	return DateEpoch.AddDate(0, 0, int(days)), nil
}

// SetDate encodes the calendar date of t, in t's own location, at offset.
// The time of day is dropped.
func SetDate(buf []byte, offset int, t time.Time) error {
	if err := At(offset).Check(len(buf), 2); err != nil {
		return err
	}
	y, m, d := t.Date()
	days := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Sub(DateEpoch) / (24 * time.Hour)
	if days < 0 || days > math.MaxUint16 {
		return domainErr(KindDate, t.Format("2006-01-02"), "must be within 1990-01-01.."+MaxDate.Format("2006-01-02"))
	}
	return SetWord(buf, offset, uint16(days))
}

// GetTOD decodes a TIME_OF_DAY at offset as the duration since midnight.
func GetTOD(buf []byte, offset int) (time.Duration, error) {
	v, err := GetDWord(buf, offset)
	if err != nil {
		return 0, err
	}
	if v >= msPerDay {
		return 0, domainErr(KindTOD, v, "milliseconds exceed one day")
	}
	return time.Duration(v) * time.Millisecond, nil
}

// SetTOD encodes d, which must be within [0, 24h), at offset. Precision below
// one millisecond is truncated.
func SetTOD(buf []byte, offset int, d time.Duration) error {
	if err := At(offset).Check(len(buf), 4); err != nil {
		return err
	}
	if d < 0 || d >= MaxTOD {
		return domainErr(KindTOD, d, "must be within [0, 24h)")
	}
	return SetDWord(buf, offset, uint32(d/time.Millisecond))
}

// GetDT decodes a DATE_AND_TIME at offset as a UTC time.
//
// Layout: bytes 0-5 hold BCD year (two digits), month, day, hour, minute and
// second. Byte 6 holds the hundreds and tens of the milliseconds, the high
// nibble of byte 7 the ones, and the low nibble of byte 7 the weekday
// (1 = Sunday). Years 90-99 are 1990-1999, years 00-89 are 2000-2089. The
// weekday is not checked against the date.
func GetDT(buf []byte, offset int) (time.Time, error) {
	w, err := window(buf, At(offset), 8)
	if err != nil {
		return time.Time{}, err
	}
	var f [7]int
	for i := range f {
		if f[i], err = bcdToInt(w[i], offset+i); err != nil {
			return time.Time{}, err
		}
	}
	msOnes, weekday := w[7]>>4, w[7]&0x0F
	if msOnes > 9 || weekday > 9 {
		return time.Time{}, &BCDError{Offset: offset + 7, Value: w[7]}
	}

	year := f[0] + 1900
	if f[0] < 90 {
		year = f[0] + 2000
	}
	month, day, hour, minute, sec := f[1], f[2], f[3], f[4], f[5]
	switch {
	case month < 1 || month > 12:
		return time.Time{}, domainErr(KindDT, month, "invalid month")
	case day < 1 || day > daysIn(year, time.Month(month)):
		return time.Time{}, domainErr(KindDT, day, "invalid day of month")
	case hour > 23:
		return time.Time{}, domainErr(KindDT, hour, "invalid hour")
	case minute > 59:
		return time.Time{}, domainErr(KindDT, minute, "invalid minute")
	case sec > 59:
		return time.Time{}, domainErr(KindDT, sec, "invalid second")
	}
	ms := f[6]*10 + int(msOnes)
	return time.Date(year, time.Month(month), day, hour, minute, sec, ms*int(time.Millisecond), time.UTC), nil
}

// SetDT encodes the wall clock of t, in t's own location, at offset. The
// year must be within 1990-2089; precision below one millisecond is
// truncated. DT stores no zone, so the location is dropped: GetDT returns
// the same wall clock in UTC, which is a different instant unless t was
// already UTC.
func SetDT(buf []byte, offset int, t time.Time) error {
	w, err := window(buf, At(offset), 8)
	if err != nil {
		return err
	}
	year := t.Year()
	if year < MinDTYear || year > MaxDTYear {
		return domainErr(KindDT, year, "year must be within 1990..2089")
	}
	ms := t.Nanosecond() / int(time.Millisecond)
	var enc [8]byte
	enc[0] = intToBCD(year % 100)
	enc[1] = intToBCD(int(t.Month()))
	enc[2] = intToBCD(t.Day())
	enc[3] = intToBCD(t.Hour())
	enc[4] = intToBCD(t.Minute())
	enc[5] = intToBCD(t.Second())
	enc[6] = intToBCD(ms / 10)
	enc[7] = byte(ms%10)<<4 | byte(t.Weekday()+1)
	copy(w, enc[:])
	return nil
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DateAndTime is the field-wise view of a DATE_AND_TIME value.
type DateAndTime struct {
	Year, Month, Day     int
	Hour, Minute, Second int
	Millisecond          int
	Weekday              int // 1 = Sunday .. 7 = Saturday, as stored
}

// GetDTFields decodes a DATE_AND_TIME at offset into its fields, including
// the stored weekday nibble.
func GetDTFields(buf []byte, offset int) (DateAndTime, error) {
	t, err := GetDT(buf, offset)
	if err != nil {
		return DateAndTime{}, err
	}
	return DateAndTime{
		Year:        t.Year(),
		Month:       int(t.Month()),
		Day:         t.Day(),
		Hour:        t.Hour(),
		Minute:      t.Minute(),
		Second:      t.Second(),
		Millisecond: t.Nanosecond() / int(time.Millisecond),
		Weekday:     int(buf[offset+7] & 0x0F),
	}, nil
}
