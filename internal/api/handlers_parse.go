package api

import (
	"encoding/json"
	"io"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/dgallion1/pagegest/internal/chunker"
	"github.com/dgallion1/pagegest/internal/doctree"
)

// handleParse decomposes a raw markup body into a ParsedDocument.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		jsonError(w, "failed to read body: "+err.Error(), http.StatusRequestEntityTooLarge)
		return
	}

	doc := s.deps.Parser.Parse(string(body))
	writeJSON(w, http.StatusOK, doc)
}

type chunkRequest struct {
	Markup   string          `json:"markup"`
	Meta     doctree.DocMeta `json:"meta"`
	MaxChars int             `json:"maxChars,omitempty"`
}

func (r chunkRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Meta, validation.By(func(value any) error {
			m, _ := value.(doctree.DocMeta)
			return validation.ValidateStruct(&m,
				validation.Field(&m.ID, validation.Required),
			)
		})),
		validation.Field(&r.MaxChars, validation.When(r.MaxChars != 0, validation.Min(100))),
	)
}

// handleChunk splits markup into vector chunks without storing anything.
func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var req chunkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	c := s.deps.Chunker
	if req.MaxChars != 0 {
		c = chunker.New(chunker.Config{MaxChars: req.MaxChars, BaseURL: s.cfg.PageBaseURL}, s.log)
	}
	chunks := c.Chunk(req.Markup, req.Meta)

	writeJSON(w, http.StatusOK, map[string]any{
		"chunks": chunks,
		"count":  len(chunks),
	})
}
