package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/pagegest/internal/store"
)

// handleListDocuments lists stored documents, optionally for one container.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if s.deps.Documents == nil {
		jsonError(w, "document store unavailable", http.StatusServiceUnavailable)
		return
	}

	docs, err := s.deps.Documents.ListDocuments(r.Context(), r.URL.Query().Get("container"))
	if err != nil {
		s.log.Error("list documents failed", "error", err)
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []store.DocumentInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	if s.deps.Documents == nil {
		jsonError(w, "document store unavailable", http.StatusServiceUnavailable)
		return
	}

	docID := chi.URLParam(r, "docID")
	rec, err := s.deps.Documents.Document(r.Context(), docID)
	if err != nil {
		s.log.Error("load document failed", "doc_id", docID, "error", err)
		jsonError(w, "failed to load document: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if rec == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"meta":        rec.Meta,
		"contentHash": rec.ContentHash,
		"document":    rec.Document,
		"chunkCount":  len(rec.Chunks),
	})
}

func (s *Server) handleDocumentChunks(w http.ResponseWriter, r *http.Request) {
	if s.deps.Documents == nil {
		jsonError(w, "document store unavailable", http.StatusServiceUnavailable)
		return
	}

	docID := chi.URLParam(r, "docID")
	chunks, err := s.deps.Documents.Chunks(r.Context(), docID)
	if err != nil {
		s.log.Error("load chunks failed", "doc_id", docID, "error", err)
		jsonError(w, "failed to load chunks: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if len(chunks) == 0 {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"chunks": chunks})
}

// handleDeleteDocument removes a document locally and, when a remote sink
// is configured, from the remote store too.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if s.deps.Documents == nil {
		jsonError(w, "document store unavailable", http.StatusServiceUnavailable)
		return
	}

	ctx := r.Context()
	docID := chi.URLParam(r, "docID")
	log := s.log.With("doc_id", docID)

	rec, err := s.deps.Documents.Document(ctx, docID)
	if err != nil {
		log.Error("load document failed", "error", err)
		jsonError(w, "failed to load document: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if rec == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	remoteDeleted := false
	if s.deps.Remote != nil {
		if err := s.deps.Remote.Delete(ctx, rec.Meta, rec.ContentHash); err != nil {
			log.Error("remote delete failed", "error", err)
			jsonError(w, "failed to delete remote copy: "+err.Error(), http.StatusBadGateway)
			return
		}
		remoteDeleted = true
	}

	deleted, err := s.deps.Documents.DeleteDocument(ctx, docID)
	if err != nil {
		log.Error("delete document failed", "error", err)
		jsonError(w, "failed to delete document: "+err.Error(), http.StatusInternalServerError)
		return
	}

	log.Info("document deleted", "chunks", len(rec.Chunks), "remote", remoteDeleted)
	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":         docID,
		"deleted":        deleted,
		"chunks_deleted": len(rec.Chunks),
		"remote_deleted": remoteDeleted,
	})
}
