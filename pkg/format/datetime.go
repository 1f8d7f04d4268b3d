package format

import (
	"fmt"
	"time"
)

// DOSDateTime is the MS-DOS timestamp carried by both file headers: a
// 16-bit time word and a 16-bit date word with 2-second granularity and a
// 1980 epoch. Fields are packed and unpacked with plain bit shifts; no
// range validation happens in either direction.
type DOSDateTime struct {
	time uint16
	date uint16
}

// NewDOSDateTime packs the given calendar fields. Out-of-range values are
// truncated by the bit packing, seconds lose their low bit, and years
// before 1980 are not representable.
func NewDOSDateTime(year, month, day, hour, minute, second int) DOSDateTime {
	return DOSDateTime{
		time: uint16(hour&0x1f)<<11 | uint16(minute&0x3f)<<5 | uint16((second&0x3f)>>1),
		date: uint16((year-1980)&0x7f)<<9 | uint16(month&0xf)<<5 | uint16(day&0x1f),
	}
}

func (t DOSDateTime) Year() int   { return int(t.date>>9&0x7f) + 1980 }
func (t DOSDateTime) Month() int  { return int(t.date >> 5 & 0xf) }
func (t DOSDateTime) Day() int    { return int(t.date & 0x1f) }
func (t DOSDateTime) Hour() int   { return int(t.time >> 11 & 0x1f) }
func (t DOSDateTime) Minute() int { return int(t.time >> 5 & 0x3f) }
func (t DOSDateTime) Second() int { return int(t.time << 1 & 0x3f) }

// Tuple unpacks all six calendar fields at once.
func (t DOSDateTime) Tuple() (year, month, day, hour, minute, second int) {
	return t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second()
}

// Time converts the timestamp to a time.Time in UTC. The format stores no
// zone, so UTC is a convention, not a fact about the archive.
func (t DOSDateTime) Time() time.Time {
	year, month, day, hour, minute, second := t.Tuple()
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
}

// String formats the timestamp as "YYYY-MM-DD hh:mm:ss".
func (t DOSDateTime) String() string {
	year, month, day, hour, minute, second := t.Tuple()
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", year, month, day, hour, minute, second)
}

// Equal reports whether two timestamps have identical packed words.
func (t DOSDateTime) Equal(o DOSDateTime) bool { return t == o }
