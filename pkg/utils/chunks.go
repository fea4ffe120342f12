package utils

import "math"

const (
	// MinutesPerChunk ist die Größe eines Reclaim Zeit-Chunks.
	MinutesPerChunk = 15
	// ChunksPerHour ergibt sich aus MinutesPerChunk.
	ChunksPerHour = 60 / MinutesPerChunk
)

// HoursToChunks rundet Stunden auf die nächste Anzahl ganzer Chunks.
// Negative Werte ergeben 0.
func HoursToChunks(hours float64) int {
	if hours <= 0 || math.IsNaN(hours) {
		return 0
	}
	return int(math.Round(hours * ChunksPerHour))
}

// ChunksToHours liefert die Dauer in Stunden. Null Chunks bedeuten "kein Wert".
func ChunksToHours(chunks int) (float64, bool) {
	if chunks <= 0 {
		return 0, false
	}
	return float64(chunks) / ChunksPerHour, true
}

// RoundMinutesToChunk rundet Minuten auf ein Vielfaches von MinutesPerChunk.
// Das Vorzeichen bleibt erhalten, negative Werte ziehen Zeit ab.
func RoundMinutesToChunk(minutes float64) int {
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return 0
	}
	return int(math.Round(minutes/MinutesPerChunk)) * MinutesPerChunk
}
