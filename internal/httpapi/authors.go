package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bookly-io/bookly/internal/domain/author"
	"github.com/bookly-io/bookly/internal/httputil"
)

type authorCreateRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
}

type authorUpdateRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email" validate:"omitempty,email"`
}

func (h *handler) createAuthor(w http.ResponseWriter, r *http.Request) {
	var payload authorCreateRequest
	if err := decodeAndValidate(r, &payload); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	created, err := h.app.Authors.Create(r.Context(), author.Author{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
	})
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, created, "Author created successfully")
}

func (h *handler) listAuthors(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Authors.List(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, list, "")
}

func (h *handler) getAuthor(w http.ResponseWriter, r *http.Request) {
	a, err := h.app.Authors.Get(r.Context(), mux.Vars(r)["uid"])
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, a, "")
}

func (h *handler) updateAuthor(w http.ResponseWriter, r *http.Request) {
	var payload authorUpdateRequest
	if err := decodeAndValidate(r, &payload); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	existing, err := h.app.Authors.Get(r.Context(), mux.Vars(r)["uid"])
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	if payload.FirstName != nil {
		existing.FirstName = *payload.FirstName
	}
	if payload.LastName != nil {
		existing.LastName = *payload.LastName
	}
	if payload.Email != nil {
		existing.Email = *payload.Email
	}

	updated, err := h.app.Authors.Update(r.Context(), existing)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, updated, "Author updated successfully")
}

func (h *handler) deleteAuthor(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Authors.Delete(r.Context(), mux.Vars(r)["uid"]); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, nil, "Author deleted successfully")
}
