package source

import (
	"encoding/csv"
	"fmt"
	"html"
	"io"
	"strings"
)

// CSVConverter renders a CSV file as a single table. The first record is
// the header row.
type CSVConverter struct{}

func (c *CSVConverter) Convert(r io.Reader, filename string) (*Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return &Document{}, nil
	}

	var b strings.Builder
	b.WriteString("<table>\n<tr>")
	for _, h := range records[0] {
		b.WriteString("<th>" + html.EscapeString(h) + "</th>")
	}
	b.WriteString("</tr>\n")
	for _, row := range records[1:] {
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<td>" + html.EscapeString(cell) + "</td>")
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</table>\n")

	return &Document{Markup: b.String()}, nil
}
