package parser

import (
	"strconv"
	"strings"

	"github.com/dgallion1/pagegest/internal/doctree"
	"github.com/dgallion1/pagegest/internal/markup"
)

func extractTables(root markup.Node) []doctree.Table {
	var tables []doctree.Table
	for _, t := range markup.FindAll(root, "table") {
		tables = append(tables, parseTable(t))
	}
	return tables
}

// parseTable collects every <th> as a header, regardless of row, and keeps
// only rows that have at least one <td>.
func parseTable(t markup.Node) doctree.Table {
	table := doctree.Table{
		Headers: []string{},
		Rows:    [][]doctree.Cell{},
	}
	if c := markup.FindFirst(t, "caption"); c != nil {
		table.Caption = c.Text()
	}

	for _, th := range markup.FindAll(t, "th") {
		table.Headers = append(table.Headers, th.Text())
	}

	for _, tr := range markup.FindAll(t, "tr") {
		var row []doctree.Cell
		for _, c := range tr.Children() {
			if c.Tag() != "td" {
				continue
			}
			row = append(row, doctree.Cell{
				Text:    c.Text(),
				HTML:    c.InnerHTML(),
				Colspan: spanAttr(c, "colspan"),
				Rowspan: spanAttr(c, "rowspan"),
			})
		}
		if len(row) > 0 {
			table.Rows = append(table.Rows, row)
		}
	}
	return table
}

func spanAttr(n markup.Node, key string) int {
	v, ok := n.Attr(key)
	if !ok {
		return 1
	}
	span, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || span < 1 {
		return 1
	}
	return span
}
