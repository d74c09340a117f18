package api

import (
	"io"
	"net/http"

	"github.com/UkralStul/x-clone-service/internal/domain"
	"github.com/UkralStul/x-clone-service/internal/identity"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) uploadBlob(w http.ResponseWriter, r *http.Request) {
	// Лишний байт нужен, чтобы отличить ровно 1 MiB от большего файла
	data, err := io.ReadAll(io.LimitReader(r.Body, domain.MaxPhotoBytes+1))
	if err != nil {
		h.respondError(w, r, "blob", errInvalidBody)
		return
	}
	ref, url, err := h.Blobs.Upload(r.Context(), identity.UserFrom(r.Context()), chi.URLParam(r, "*"), data)
	if err != nil {
		h.respondError(w, r, "blob", err)
		return
	}
	respondJSON(w, http.StatusOK, BlobResponse{Path: ref.Path, URL: url})
}

func (h *Handler) blobURL(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	url, err := h.Blobs.URL(r.Context(), path)
	if err != nil {
		h.respondError(w, r, "blob", err)
		return
	}
	respondJSON(w, http.StatusOK, BlobResponse{Path: path, URL: url})
}

func (h *Handler) deleteBlob(w http.ResponseWriter, r *http.Request) {
	if err := h.Blobs.Delete(r.Context(), identity.UserFrom(r.Context()), chi.URLParam(r, "*")); err != nil {
		h.respondError(w, r, "blob", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
