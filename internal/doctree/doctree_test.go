package doctree

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsedDocument_FailedShape(t *testing.T) {
	doc := &ParsedDocument{Error: "bad markup", RawMarkup: "<p"}
	require.True(t, doc.Failed())

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"bad markup","rawMarkup":"<p"}`, string(data))

	// Embedded by value in a record as well.
	data, err = json.Marshal(Record{Meta: DocMeta{ID: "x"}, Document: doc})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"document":{"error":"bad markup","rawMarkup":"<p"}`)
}

func TestParsedDocument_EmptyMetadataKept(t *testing.T) {
	doc := ParsedDocument{Metadata: map[string]string{}, Sections: []Section{}}

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &got))
	assert.JSONEq(t, `{}`, string(got["metadata"]))
	assert.JSONEq(t, `[]`, string(got["sections"]))
	assert.NotContains(t, got, "error")
	assert.NotContains(t, got, "rawMarkup")
}
