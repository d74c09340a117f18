package api

import (
	"net/http"
	"strconv"

	"github.com/UkralStul/x-clone-service/internal/dataloader"
	"github.com/UkralStul/x-clone-service/internal/domain"
	"github.com/UkralStul/x-clone-service/internal/identity"
	"github.com/UkralStul/x-clone-service/internal/service"
	"github.com/UkralStul/x-clone-service/internal/storage"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	var req service.NewPost
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, "post", err)
		return
	}
	post, err := h.Posts.Insert(r.Context(), identity.UserFrom(r.Context()), req)
	if err != nil {
		h.respondError(w, r, "post", err)
		return
	}
	h.enrich(r, post)
	respondJSON(w, http.StatusCreated, post)
}

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	q, err := parsePostQuery(r)
	if err != nil {
		h.respondError(w, r, "post", err)
		return
	}
	posts, err := h.Posts.Query(r.Context(), q)
	if err != nil {
		h.respondError(w, r, "post", err)
		return
	}
	h.enrich(r, posts...)
	respondJSON(w, http.StatusOK, posts)
}

func (h *Handler) getPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.Posts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, "post", err)
		return
	}
	h.enrich(r, post)
	respondJSON(w, http.StatusOK, post)
}

func (h *Handler) updatePost(w http.ResponseWriter, r *http.Request) {
	var req PostPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, "post", err)
		return
	}
	post, err := h.Posts.Update(r.Context(), identity.UserFrom(r.Context()), chi.URLParam(r, "id"), storage.PostPatch{
		Text:     req.Text,
		PhotoURL: req.PhotoURL,
	})
	if err != nil {
		h.respondError(w, r, "post", err)
		return
	}
	h.enrich(r, post)
	respondJSON(w, http.StatusOK, post)
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.Posts.Delete(r.Context(), identity.UserFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, r, "post", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// enrich подставляет аватары авторов. Ошибка не мешает ответу.
func (h *Handler) enrich(r *http.Request, posts ...*domain.Post) {
	loaders := dataloader.For(r.Context())
	if loaders == nil {
		return
	}
	if err := loaders.EnrichAuthors(r.Context(), posts); err != nil {
		h.logger().Warn("enrich post authors", "err", err)
	}
}

func parsePostQuery(r *http.Request) (storage.PostQuery, error) {
	values := r.URL.Query()
	q := storage.PostQuery{AuthorID: values.Get("authorId")}
	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return q, errInvalidBody
		}
		q.Limit = limit
	}
	return q, nil
}
