package core

// csv_codec.go implements the quote-aware CSV tokenizer and serializer.
//
// Tokenizing rules:
//   - A double quote toggles quoting. Inside quotes "" is a literal quote.
//   - Commas and line breaks inside quotes are data.
//   - Records end at \n or \r\n outside quotes. Lone \r is data.
//   - Records made of whitespace only are discarded.
//
// Serializing quotes a value if and only if it contains a comma, a double
// quote, \r or \n, doubling any inner quotes.

import (
	"bytes"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// utf8BOM is the UTF-8 byte order mark prepended by some spreadsheet exports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TimestampLayout is the layout timestamps are written with on export.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// csvRecord is one tokenized record with the physical line it started on.
type csvRecord struct {
	line  int
	cells []string
}

// tokenizeCSV splits CSV bytes into records of raw (untrimmed) cells.
func tokenizeCSV(data []byte) ([]csvRecord, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, &ParseError{Msg: "encoding error: file is not valid UTF-8"}
	}

	var (
		records  []csvRecord
		cells    []string
		cell     strings.Builder
		inQuotes bool
		line     = 1
		start    = 1
	)

	endRecord := func() {
		cells = append(cells, cell.String())
		cell.Reset()
		if !(len(cells) == 1 && strings.TrimSpace(cells[0]) == "") {
			records = append(records, csvRecord{line: start, cells: cells})
		}
		cells = nil
		start = line
	}

	for i := 0; i < len(data); i++ {
		c := data[i]
		if inQuotes {
			switch {
			case c == '"' && i+1 < len(data) && data[i+1] == '"':
				cell.WriteByte('"')
				i++
			case c == '"':
				inQuotes = false
			default:
				if c == '\n' {
					line++
				}
				cell.WriteByte(c)
			}
			continue
		}

		switch c {
		case '"':
			inQuotes = true
		case ',':
			cells = append(cells, cell.String())
			cell.Reset()
		case '\r':
			if i+1 < len(data) && data[i+1] == '\n' {
				continue
			}
			cell.WriteByte(c)
		case '\n':
			line++
			endRecord()
		default:
			cell.WriteByte(c)
		}
	}

	if inQuotes {
		return nil, &ParseError{Line: start, Msg: "unterminated quoted field"}
	}
	if cell.Len() > 0 || len(cells) > 0 {
		endRecord()
	}

	return records, nil
}

// EscapeCSV quotes a value when it contains a comma, quote or line break.
func EscapeCSV(s string) string {
	if !strings.ContainsAny(s, ",\"\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// FormatValue renders an external value as CSV cell text for a field.
func FormatValue(spec FieldSpec, v any) string {
	switch spec.Type {
	case FieldInt:
		if v == nil {
			return ""
		}
		return strconv.Itoa(intValue(v))
	case FieldList:
		return strings.Join(listValue(v), ";")
	case FieldTimestamp:
		t := timeValue(v)
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(TimestampLayout)
	default:
		return textValue(v)
	}
}

// WriteCSV writes a header line of field names followed by one line per
// record, columns in the collection's field order.
func WriteCSV(w io.Writer, def CollectionDefinition, records []ExternalRecord) error {
	var b strings.Builder

	writeLine := func(cells []string) {
		for i, c := range cells {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(EscapeCSV(c))
		}
		b.WriteByte('\n')
	}

	writeLine(def.Names())

	cells := make([]string, len(def.FieldSpecs))
	for _, rec := range records {
		for i, spec := range def.FieldSpecs {
			cells[i] = FormatValue(spec, rec[spec.Column])
		}
		writeLine(cells)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// FormatCSV is WriteCSV into a byte slice.
func FormatCSV(def CollectionDefinition, records []ExternalRecord) []byte {
	var buf bytes.Buffer
	_ = WriteCSV(&buf, def, records)
	return buf.Bytes()
}

// ExportFilename builds a download name like "Actions_Backup_2024-03-05.csv".
func ExportFilename(prefix string, now time.Time, ext string) string {
	return prefix + "_" + now.Format(time.DateOnly) + "." + ext
}
