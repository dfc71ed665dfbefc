package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFragmentGetsBody(t *testing.T) {
	root, err := Parse("<h1>A</h1><p>x <b>y</b></p>")
	require.NoError(t, err)
	assert.Equal(t, DocumentTag, root.Tag())

	body := Body(root)
	require.NotNil(t, body)
	assert.Equal(t, "body", body.Tag())

	kids := body.Children()
	require.Len(t, kids, 2)
	assert.Equal(t, "h1", kids[0].Tag())
	assert.Equal(t, "x y", kids[1].Text())
	assert.Equal(t, "<p>x <b>y</b></p>", kids[1].HTML())
	assert.Equal(t, "x <b>y</b>", kids[1].InnerHTML())
}

func TestNextSkipsTextNodes(t *testing.T) {
	root, err := Parse("<div><p>a</p> text <p>b</p></div>")
	require.NoError(t, err)

	first := FindFirst(root, "p")
	require.NotNil(t, first)
	next := first.Next()
	require.NotNil(t, next)
	assert.Equal(t, "b", next.Text())
	assert.Nil(t, next.Next())
}

func TestAttrAndClasses(t *testing.T) {
	root, err := Parse(`<div class="one  two" data-macro-name="info">z</div>`)
	require.NoError(t, err)

	div := FindFirst(root, "div")
	require.NotNil(t, div)
	v, ok := div.Attr("DATA-MACRO-NAME")
	assert.True(t, ok)
	assert.Equal(t, "info", v)
	_, ok = div.Attr("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"one", "two"}, Classes(div))
}

func TestNamespacedTagsSurvive(t *testing.T) {
	src := `<ac:structured-macro ac:name="code"><ac:parameter ac:name="language">go</ac:parameter></ac:structured-macro>`
	root, err := Parse(src)
	require.NoError(t, err)

	m := FindFirst(root, "ac:structured-macro")
	require.NotNil(t, m)
	name, ok := m.Attr("ac:name")
	require.True(t, ok)
	assert.Equal(t, "code", name)

	params := FindAll(m, "ac:parameter")
	require.Len(t, params, 1)
	assert.Equal(t, "go", params[0].Text())
}

func TestFindAllDocumentOrderAndAncestors(t *testing.T) {
	root, err := Parse("<h2>b</h2><div><h1>a</h1></div><h3>c</h3>")
	require.NoError(t, err)

	hs := FindAll(root, HeadingTags...)
	require.Len(t, hs, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{hs[0].Text(), hs[1].Text(), hs[2].Text()})
	assert.True(t, HasAncestor(hs[1], "div"))
	assert.False(t, HasAncestor(hs[0], "div"))
}

func TestHeadingLevel(t *testing.T) {
	tests := []struct {
		tag  string
		want int
	}{
		{"h1", 1},
		{"h6", 6},
		{"h7", 0},
		{"hr", 0},
		{"p", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HeadingLevel(tt.tag), tt.tag)
	}
}
