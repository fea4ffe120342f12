package utils

import (
	"strings"
)

// EscapeTableCell escaped Zeichen, die eine Markdown-Tabellenzelle zerstören würden
func EscapeTableCell(text string) string {
	replacer := strings.NewReplacer(
		"|", "\\|",
		"\r\n", " ",
		"\n", " ",
		"*", "\\*",
		"_", "\\_",
		"`", "\\`",
	)
	return replacer.Replace(text)
}

// TruncateText kürzt Text auf maximale Länge (in Runen)
func TruncateText(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}

	if maxLength <= 3 {
		return string(runes[:maxLength])
	}

	return string(runes[:maxLength-3]) + "..."
}

// FormatTable rendert eine Markdown-Tabelle. Zellen werden escaped.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	var content strings.Builder

	writeRow := func(cells []string) {
		content.WriteString("|")
		for i := range headers {
			cell := ""
			if i < len(cells) {
				cell = EscapeTableCell(cells[i])
			}
			content.WriteString(" " + cell + " |")
		}
		content.WriteString("\n")
	}

	writeRow(headers)
	content.WriteString("|" + strings.Repeat("------|", len(headers)) + "\n")
	for _, row := range rows {
		writeRow(row)
	}

	return content.String()
}
