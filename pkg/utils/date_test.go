package utils

import (
	"testing"
	"time"
)

func TestParseTime(t *testing.T) {
	want := time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2024-02-15T10:00:00Z", want},          // ISO UTC
		{"2024-02-15T10:00:00.000Z", want},      // ISO UTC ms
		{"2024-02-15T12:00:00+02:00", want},     // ISO TZ -> UTC
		{"2024-02-15T03:00:00.000-07:00", want}, // ISO TZ ms -> UTC
		{"2024-02-15T10:00:00", want},           // ohne Zone
		{"2024-02-15 10:00:00", want},           // Leerzeichen
		{"2024-02-15", time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)},
	}

	for i, c := range cases {
		got, err := ParseTime(c.in)
		if err != nil {
			t.Fatalf("case %d: ParseTime(%q) error = %v", i, c.in, err)
		}
		if !got.Equal(c.want) || got.Location() != time.UTC {
			t.Fatalf("case %d: ParseTime(%q) = %v, want %v UTC", i, c.in, got, c.want)
		}
	}
}

func TestParseTime_Errors(t *testing.T) {
	for _, in := range []string{"", "   ", "15/02/2024", "invalid"} {
		if _, err := ParseTime(in); err == nil {
			t.Fatalf("ParseTime(%q): expected error", in)
		}
	}
}

func TestFormatTime(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)
	cases := []struct {
		in   time.Time
		want string
	}{
		{time.Time{}, ""},
		{time.Date(2050, 1, 1, 7, 0, 0, 0, time.UTC), "2050-01-01T07:00:00.000Z"},
		{time.Date(2050, 1, 1, 8, 0, 0, 0, berlin), "2050-01-01T07:00:00.000Z"},
		{time.Date(2050, 1, 1, 7, 0, 0, 123456789, time.UTC), "2050-01-01T07:00:00.123Z"},
	}
	for i, c := range cases {
		if got := FormatTime(c.in); got != c.want {
			t.Fatalf("case %d: FormatTime(%v) = %q, want %q", i, c.in, got, c.want)
		}
	}
}

func TestFormatTime_RoundTrip(t *testing.T) {
	in := time.Date(2031, 7, 4, 16, 45, 0, 0, time.FixedZone("EST", -5*3600))
	got, err := ParseTime(FormatTime(in))
	if err != nil {
		t.Fatalf("ParseTime error = %v", err)
	}
	if !got.Equal(in) {
		t.Fatalf("round trip: got %v, want %v", got, in)
	}
}

func TestFormatDateForDisplay(t *testing.T) {
	cases := []struct {
		in   time.Time
		want string
	}{
		{time.Time{}, "Kein Datum"},
		{time.Date(2024, 2, 15, 9, 30, 0, 0, time.UTC), "15.02.2024 09:30"},
	}
	for i, c := range cases {
		if got := FormatDateForDisplay(c.in); got != c.want {
			t.Fatalf("case %d: FormatDateForDisplay(%v) = %q, want %q", i, c.in, got, c.want)
		}
	}
}
