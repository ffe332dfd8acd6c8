package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bookly-io/bookly/internal/domain/publisher"
	"github.com/bookly-io/bookly/internal/httputil"
)

type publisherCreateRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
}

type publisherUpdateRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email" validate:"omitempty,email"`
}

func (h *handler) createPublisher(w http.ResponseWriter, r *http.Request) {
	var payload publisherCreateRequest
	if err := decodeAndValidate(r, &payload); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	created, err := h.app.Publishers.Create(r.Context(), publisher.Publisher{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
	})
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, created, "Publisher created successfully")
}

func (h *handler) listPublishers(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Publishers.List(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, list, "")
}

func (h *handler) getPublisher(w http.ResponseWriter, r *http.Request) {
	p, err := h.app.Publishers.Get(r.Context(), mux.Vars(r)["uid"])
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, p, "")
}

func (h *handler) updatePublisher(w http.ResponseWriter, r *http.Request) {
	var payload publisherUpdateRequest
	if err := decodeAndValidate(r, &payload); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	existing, err := h.app.Publishers.Get(r.Context(), mux.Vars(r)["uid"])
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

	updated, err := h.app.Publishers.Update(r.Context(), existing)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, updated, "Publisher updated successfully")
}

func (h *handler) deletePublisher(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Publishers.Delete(r.Context(), mux.Vars(r)["uid"]); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, nil, "Publisher deleted successfully")
}
