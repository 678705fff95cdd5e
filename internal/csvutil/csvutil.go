// Package csvutil provides the low-level CSV tokenization primitives shared
// by the import parsers. It is deliberately more lenient than encoding/csv:
// it never enforces a uniform field count and tolerates bare quotes inside
// unquoted fields, both of which real bank exports produce.
package csvutil

import "strings"

// ParseLine tokenizes a single logical CSV row into its fields.
//
// The scan is a single left-to-right pass tracking an inside-quotes flag.
// A double quote toggles the flag, except that a doubled quote inside a
// quoted field emits one literal quote. A comma outside quotes terminates
// the current field. The trailing field is emitted even without a
// terminating comma. Newlines inside quoted fields are preserved; joining
// physical lines into logical rows is SplitRows' job.
func ParseLine(raw string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	runes := []rune(raw)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				current.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == ',' && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	fields = append(fields, current.String())

	return fields
}

// SplitRows splits raw CSV text into logical rows, keeping newlines that
// occur inside quoted fields as part of their row. Carriage returns outside
// quotes are dropped and rows that are entirely blank are skipped.
func SplitRows(text string) []string {
	var rows []string
	var current strings.Builder
	inQuotes := false

	for _, ch := range text {
		switch ch {
		case '"':
			inQuotes = !inQuotes
			current.WriteRune(ch)
		case '\r':
			if inQuotes {
				current.WriteRune(ch)
			}
		case '\n':
			if inQuotes {
				current.WriteRune(ch)
				continue
			}
			if strings.TrimSpace(current.String()) != "" {
				rows = append(rows, current.String())
			}
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		rows = append(rows, current.String())
	}

	return rows
}
