package api

import (
	"net/http"

	"github.com/UkralStul/x-clone-service/internal/identity"
	"github.com/UkralStul/x-clone-service/internal/service"
	"github.com/UkralStul/x-clone-service/internal/storage"
)

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, "user", err)
		return
	}
	session, err := h.Identity.SignUp(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		h.respondError(w, r, "user", err)
		return
	}
	respondJSON(w, http.StatusCreated, session)
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, "user", err)
		return
	}
	session, err := h.Identity.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, r, "user", err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (h *Handler) githubRedirect(w http.ResponseWriter, r *http.Request) {
	url, err := h.Identity.GitHubAuthURL(r.Context())
	if err != nil {
		h.respondError(w, r, "user", err)
		return
	}
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (h *Handler) githubCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	session, err := h.Identity.CompleteGitHub(r.Context(), q.Get("state"), q.Get("code"))
	if err != nil {
		h.respondError(w, r, "user", err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	token := identity.TokenFrom(r.Context())
	if token == "" {
		h.respondError(w, r, "user", service.ErrUnauthenticated)
		return
	}
	if err := h.Identity.SignOut(r.Context(), token); err != nil {
		h.respondError(w, r, "user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user := identity.UserFrom(r.Context())
	if user == nil {
		h.respondError(w, r, "user", service.ErrUnauthenticated)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *Handler) updateMe(w http.ResponseWriter, r *http.Request) {
	user := identity.UserFrom(r.Context())
	if user == nil {
		h.respondError(w, r, "user", service.ErrUnauthenticated)
		return
	}
	var req ProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, "user", err)
		return
	}
	updated, err := h.Identity.UpdateProfile(r.Context(), user.ID, storage.UserPatch{
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		h.respondError(w, r, "user", err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}
