package parser

import (
	"strings"

	"github.com/dgallion1/pagegest/internal/doctree"
	"github.com/dgallion1/pagegest/internal/markup"
)

// languageHints is checked in order; the first substring hit wins.
var languageHints = []struct {
	hint string
	lang string
}{
	{"java", "java"},
	{"js", "javascript"},
	{"py", "python"},
	{"xml", "xml"},
	{"html", "xml"},
	{"css", "css"},
	{"sql", "sql"},
}

func extractCodeBlocks(root markup.Node) []doctree.CodeBlock {
	var blocks []doctree.CodeBlock
	for _, n := range markup.FindAll(root, "pre", "code") {
		blocks = append(blocks, doctree.CodeBlock{
			Language: detectLanguage(n),
			Content:  n.Text(),
			HTML:     n.HTML(),
		})
	}
	return blocks
}

// detectLanguage reads a language-xxx class token first, then falls back to
// hint substrings in the class and highlighter attributes.
func detectLanguage(n markup.Node) string {
	for _, c := range markup.Classes(n) {
		if lang, ok := strings.CutPrefix(c, "language-"); ok && lang != "" {
			return lang
		}
	}

	var hay []string
	for _, key := range []string{"class", "data-language", "data-syntaxhighlighter-params"} {
		if v, ok := n.Attr(key); ok {
			hay = append(hay, strings.ToLower(v))
		}
	}
	joined := strings.Join(hay, " ")
	for _, h := range languageHints {
		if strings.Contains(joined, h.hint) {
			return h.lang
		}
	}
	return "unknown"
}
