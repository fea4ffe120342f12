package utils

import (
	"fmt"
	"strings"
	"time"
)

// WireLayout ist das Format, in dem Reclaim Zeitpunkte erwartet (UTC, Literal "Z").
const WireLayout = "2006-01-02T15:04:05.000Z"

// Mögliche Formate der Reclaim API
var parseLayouts = []string{
	time.RFC3339Nano,          // ISO mit Z oder Offset, optional Nachkommastellen
	"2006-01-02T15:04:05",     // ISO ohne Zone (UTC)
	"2006-01-02T15:04:05.999", // ISO ohne Zone mit Millisekunden
	"2006-01-02 15:04:05",     // Leerzeichen statt T
	"2006-01-02T15:04Z07:00",  // ohne Sekunden
	"2006-01-02",              // Nur Datum
}

// ParseTime parst einen Zeitstempel in einem der bekannten Formate und normalisiert ihn nach UTC.
func ParseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("parse time: empty value")
	}

	for _, layout := range parseLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("parse time: unknown format %q", value)
}

// FormatTime formatiert einen Zeitpunkt für die API. Der Nullwert ergibt "".
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(WireLayout)
}

// FormatDateForDisplay formatiert Datum für schöne Anzeige
func FormatDateForDisplay(t time.Time) string {
	if t.IsZero() {
		return "Kein Datum"
	}
	return t.UTC().Format("02.01.2006 15:04")
}
