package chunker

import (
	"log/slog"
	"strings"

	"github.com/dgallion1/pagegest/internal/markup"
)

// render turns one top-level element into plain chunk text. A failure
// while rendering drops only that element.
func (c *Chunker) render(el markup.Node, log *slog.Logger) (text string) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("element render failed", "tag", el.Tag(), "panic", r)
			text = ""
		}
	}()

	switch el.Tag() {
	case "table":
		return renderTable(el)
	case "ul", "ol":
		return renderList(el)
	default:
		return el.Text()
	}
}

// renderTable writes "Table Headers: a | b" followed by one "Row:" line per
// data row. Rows made only of header cells are skipped.
func renderTable(table markup.Node) string {
	var lines []string

	var headers []string
	for _, th := range markup.FindAll(table, "th") {
		headers = append(headers, th.Text())
	}
	if len(headers) > 0 {
		lines = append(lines, "Table Headers: "+strings.Join(headers, " | "))
	}

	for _, tr := range markup.FindAll(table, "tr") {
		var cells []string
		for _, td := range tr.Children() {
			if td.Tag() == "td" {
				cells = append(cells, td.Text())
			}
		}
		if len(cells) == 0 {
			continue
		}
		lines = append(lines, "Row: "+strings.Join(cells, " | "))
	}
	return strings.Join(lines, "\n")
}

// renderList writes one bullet per direct list item. Nested list text
// stays inside its parent item.
func renderList(list markup.Node) string {
	var lines []string
	for _, li := range list.Children() {
		if li.Tag() != "li" {
			continue
		}
		lines = append(lines, "• "+li.Text())
	}
	return strings.Join(lines, "\n")
}
