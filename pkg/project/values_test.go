package project

import (
	"testing"
	"time"
)

func TestDateOrdinalAnchors(t *testing.T) {
	cases := []struct {
		date    Date
		ordinal int
	}{
		{NewDate(1, time.January, 1), 1},
		{NewDate(1970, time.January, 1), 719163},
		{NewDate(2018, time.July, 15), 736890},
		{NewDate(2000, time.February, 29), 730179},
	}
	for _, tc := range cases {
		if got := tc.date.Ordinal(); got != tc.ordinal {
			t.Fatalf("%s ordinal = %d, want %d", tc.date, got, tc.ordinal)
		}
		restored, err := DateFromOrdinal(tc.ordinal)
		if err != nil {
			t.Fatalf("from ordinal %d: %v", tc.ordinal, err)
		}
		if restored != tc.date {
			t.Fatalf("ordinal %d = %s, want %s", tc.ordinal, restored, tc.date)
		}
	}
}

func TestDateFromOrdinalRejectsNonPositive(t *testing.T) {
	for _, ordinal := range []int{0, -1} {
		if _, err := DateFromOrdinal(ordinal); err == nil {
			t.Fatalf("expected error for ordinal %d", ordinal)
		}
	}
}

func TestDateNormalizesLikeTimeDate(t *testing.T) {
	if got, want := NewDate(2018, time.January, 32), NewDate(2018, time.February, 1); got != want {
		t.Fatalf("normalized date = %s, want %s", got, want)
	}
}

func TestEpochRoundTripKeepsMicroseconds(t *testing.T) {
	cases := []time.Time{
		time.Date(2018, time.July, 15, 9, 30, 12, 345678000, time.UTC),
		time.Date(2018, time.July, 15, 0, 0, 0, 0, time.UTC),
		time.Date(1969, time.December, 31, 23, 59, 59, 999999000, time.UTC),
		time.Date(2100, time.January, 1, 0, 0, 0, 1000, time.UTC),
	}
	for _, want := range cases {
		got := epochToTime(timeToEpoch(want))
		if !got.Equal(want) {
			t.Fatalf("round trip %s = %s", want, got)
		}
	}
}

func TestTruncateMicrosDropsNanos(t *testing.T) {
	in := time.Date(2018, time.July, 15, 9, 30, 12, 345678901, time.UTC)
	got := truncateMicros(in)
	if got.Nanosecond() != 345678000 {
		t.Fatalf("nanoseconds = %d, want 345678000", got.Nanosecond())
	}
	local := in.In(time.FixedZone("UTC+3", 3*3600))
	if !truncateMicros(local).Equal(got) {
		t.Fatalf("truncation not location independent")
	}
}

func TestParseDataKind(t *testing.T) {
	for _, kind := range []DataKind{DataKindGravity, DataKindTrajectory} {
		got, err := ParseDataKind(string(kind))
		if err != nil || got != kind {
			t.Fatalf("parse %s: %v %v", kind, got, err)
		}
	}
	if _, err := ParseDataKind("magnetics"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestParseMeterType(t *testing.T) {
	for _, mt := range []MeterType{MeterTypeAT1A, MeterTypeAT1M, MeterTypeZLS, MeterTypeTAGS} {
		got, err := ParseMeterType(string(mt))
		if err != nil || got != mt {
			t.Fatalf("parse %s: %v %v", mt, got, err)
		}
	}
	if _, err := ParseMeterType("warp9"); err == nil {
		t.Fatalf("expected error for unknown meter type")
	}
}
