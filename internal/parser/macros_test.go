package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_MacrosDefaultRules(t *testing.T) {
	input := `<div class="confluence-information-macro confluence-information-macro-note" data-macro-name="note">
  <span data-parameter-name="title">Heads up</span>
  <div class="confluence-information-macro-body">Careful here.</div>
</div>
<ac:structured-macro ac:name="code">
  <ac:parameter ac:name="language">go</ac:parameter>
  <ac:parameter ac:name="title">Example</ac:parameter>
  <ac:plain-text-body>fmt.Println()</ac:plain-text-body>
</ac:structured-macro>
<div class="panel expand-macro">hidden</div>`

	doc := Parse(input)
	require.Len(t, doc.Macros, 3, "%+v", doc.Macros)

	note := doc.Macros[0]
	assert.Equal(t, "note", note.Name)
	assert.Equal(t, map[string]string{"title": "Heads up"}, note.Parameters)

	code := doc.Macros[1]
	assert.Equal(t, "code", code.Name)
	assert.Equal(t, map[string]string{"language": "go", "title": "Example"}, code.Parameters)

	expand := doc.Macros[2]
	assert.Equal(t, "expand", expand.Name, "name comes from the class")
	assert.Equal(t, "hidden", expand.Content)
	assert.NotNil(t, expand.Parameters)
}

func TestParse_NonMacroClassesIgnored(t *testing.T) {
	doc := Parse(`<div class="macro">bare</div><div class="macros-list">x</div>`)
	assert.Empty(t, doc.Macros)
}

func TestLoadMacroRules(t *testing.T) {
	rules := `macros:
  - tag: section
    attribute: data-widget
parameters:
  - attribute: data-arg
`
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(rules), 0o644))

	rc, err := LoadMacroRules(path)
	require.NoError(t, err)

	p := New(WithMacroClassifier(rc))
	doc := p.Parse(`<section data-widget="chart"><i data-arg="kind">bar</i></section><div data-macro-name="info">x</div>`)
	require.Len(t, doc.Macros, 1, "only the custom macro matches")
	assert.Equal(t, "chart", doc.Macros[0].Name)
	assert.Equal(t, "bar", doc.Macros[0].Parameters["kind"])
}

func TestLoadMacroRules_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "macros: [unclosed"},
		{"no rules", "parameters:\n  - attribute: x\n"},
		{"empty rule", "macros:\n  - nameAttribute: x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "rules.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := LoadMacroRules(path)
			assert.Error(t, err)
		})
	}

	_, err := LoadMacroRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
