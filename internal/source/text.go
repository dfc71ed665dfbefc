package source

import (
	"bufio"
	"html"
	"io"
	"strings"
)

// TextConverter turns blank-line separated paragraphs into <p> elements.
type TextConverter struct{}

func (c *TextConverter) Convert(r io.Reader, filename string) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	var out strings.Builder
	for _, para := range paragraphs {
		out.WriteString("<p>" + html.EscapeString(para) + "</p>\n")
	}
	return &Document{Markup: out.String()}, nil
}
