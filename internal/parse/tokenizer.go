package parse

import "strings"

// Tokenize splits raw delimited text into rows of string fields. It is a
// single-pass, two-state scanner: inside a quoted field a doubled quote
// decodes to one literal quote and a lone quote closes the field; outside
// quotes a comma ends the field and CR, LF or CRLF ends the row. Malformed
// quoting never fails the scan; field boundaries degrade to best effort.
// A wholly empty trailing line is dropped, every other line is kept.
func Tokenize(text string) [][]string {
	var rows [][]string
	var row []string
	var field strings.Builder
	inQuotes := false

	for i := 0; i < len(text); i++ {
		ch := text[i]

		if inQuotes {
			if ch != '"' {
				field.WriteByte(ch)
				continue
			}
			if i+1 < len(text) && text[i+1] == '"' {
				field.WriteByte('"')
				i++
				continue
			}
			inQuotes = false
			continue
		}

		switch ch {
		case '"':
			inQuotes = true
		case ',':
			row = append(row, field.String())
			field.Reset()
		case '\r', '\n':
			if ch == '\r' && i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			row = append(row, field.String())
			field.Reset()
			rows = append(rows, row)
			row = nil
		default:
			field.WriteByte(ch)
		}
	}

	// Flush the final line unless it is completely empty.
	if field.Len() > 0 || len(row) > 0 {
		row = append(row, field.String())
		rows = append(rows, row)
	}

	return rows
}
