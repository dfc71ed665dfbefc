package parser

import (
	"strings"

	"github.com/dgallion1/pagegest/internal/doctree"
	"github.com/dgallion1/pagegest/internal/markup"
)

// extractSections walks each heading's following siblings until a heading
// of the same or a higher level. Headings nested deeper in the tree only
// see their own siblings.
func extractSections(root markup.Node) []doctree.Section {
	headings := markup.FindAll(root, markup.HeadingTags...)
	sections := make([]doctree.Section, 0, len(headings))

	for _, h := range headings {
		level := markup.HeadingLevel(h.Tag())

		var content strings.Builder
		var texts []string
		for sib := h.Next(); sib != nil; sib = sib.Next() {
			if l := markup.HeadingLevel(sib.Tag()); l > 0 && l <= level {
				break
			}
			content.WriteString(sib.HTML())
			texts = append(texts, sib.Text())
		}

		sections = append(sections, doctree.Section{
			Level:       level,
			Title:       h.Text(),
			Content:     content.String(),
			TextContent: strings.Join(texts, "\n"),
		})
	}
	return sections
}
