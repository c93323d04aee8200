package project

import (
	"fmt"
	"math"
	"path/filepath"
	"time"
)

// unixEpochOrdinal is the proleptic-Gregorian ordinal of 1970-01-01.
const unixEpochOrdinal = 719163

const secondsPerDay = 86400

// Date is a calendar date on the proleptic Gregorian calendar. Flight and
// acquisition dates carry day resolution only; time-of-day lives in the
// segment timestamps.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date. Out-of-range month and day values are normalized
// the same way time.Date normalizes them.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf extracts the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	year, month, day := t.Date()
	return Date{Year: year, Month: month, Day: day}
}

// DateFromOrdinal restores a Date from its proleptic-Gregorian ordinal,
// where ordinal 1 is 0001-01-01.
func DateFromOrdinal(ordinal int) (Date, error) {
	if ordinal < 1 {
		return Date{}, fmt.Errorf("date ordinal %d out of range", ordinal)
	}
	t := time.Unix(int64(ordinal-unixEpochOrdinal)*secondsPerDay, 0).UTC()
	return DateOf(t), nil
}

// Ordinal returns the proleptic-Gregorian ordinal of d.
func (d Date) Ordinal() int {
	// Midnight UTC is always an exact multiple of 86400 seconds from the
	// epoch, so integer division is exact for dates on either side of 1970.
	return int(d.Time().Unix()/secondsPerDay) + unixEpochOrdinal
}

// Time returns midnight UTC on d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Path is a filesystem path attached to a project or data file. Paths are
// kept verbatim in memory and resolved to an absolute, cleaned form only
// when encoded.
type Path string

func (p Path) String() string { return string(p) }

// Abs resolves p against the working directory and cleans it.
func (p Path) Abs() (Path, error) {
	resolved, err := filepath.Abs(string(p))
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", string(p), err)
	}
	return Path(resolved), nil
}

// DataKind tags the two bulk series a dataset carries.
type DataKind string

// Recognized data kinds. The kind doubles as the storage group a data
// file's bulk series lives under.
const (
	DataKindGravity    DataKind = "gravity"
	DataKindTrajectory DataKind = "trajectory"
)

func (k DataKind) String() string { return string(k) }

// ParseDataKind validates a data kind read from a document.
func ParseDataKind(s string) (DataKind, error) {
	switch DataKind(s) {
	case DataKindGravity, DataKindTrajectory:
		return DataKind(s), nil
	}
	return "", fmt.Errorf("unknown data kind %q", s)
}

// MeterType identifies a gravimeter hardware family. It doubles as the
// column-format descriptor on raw gravity data files.
type MeterType string

// Supported gravimeter families.
const (
	MeterTypeAT1A MeterType = "at1a"
	MeterTypeAT1M MeterType = "at1m"
	MeterTypeZLS  MeterType = "zls"
	MeterTypeTAGS MeterType = "tags"
)

func (m MeterType) String() string { return string(m) }

// ParseMeterType validates a meter type read from a document.
func ParseMeterType(s string) (MeterType, error) {
	switch MeterType(s) {
	case MeterTypeAT1A, MeterTypeAT1M, MeterTypeZLS, MeterTypeTAGS:
		return MeterType(s), nil
	}
	return "", fmt.Errorf("unknown meter type %q", s)
}

// truncateMicros clamps t to the microsecond grid the wire format carries
// and normalizes it to UTC. Every timestamp entering the model passes
// through here so that encode/decode round-trips are exact.
func truncateMicros(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// timeToEpoch renders t as fractional epoch seconds with microsecond
// precision. The quotient is exactly representable for any timestamp within
// a few hundred thousand years of the epoch, so ParseFloat of the shortest
// decimal form recovers the identical float64.
func timeToEpoch(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}

// epochToTime inverts timeToEpoch. Rounding to the nearest microsecond
// recovers the original UnixMicro count exactly.
func epochToTime(seconds float64) time.Time {
	return time.UnixMicro(int64(math.Round(seconds * 1e6))).UTC()
}

// utcNow is the model's clock: UTC, microsecond resolution.
func utcNow() time.Time {
	return truncateMicros(time.Now())
}
