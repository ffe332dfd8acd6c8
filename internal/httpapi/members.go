package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bookly-io/bookly/internal/domain/member"
	"github.com/bookly-io/bookly/internal/httputil"
)

type memberCreateRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
}

type memberUpdateRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
	City      *string `json:"city"`
	IsActive  *bool   `json:"is_active"`
}

func (h *handler) createMember(w http.ResponseWriter, r *http.Request) {
	var payload memberCreateRequest
	if err := decodeAndValidate(r, &payload); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	created, err := h.app.Members.Create(r.Context(), member.Member{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Phone:     payload.Phone,
		Address:   payload.Address,
		City:      payload.City,
	})
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, created, "Member created successfully")
}

func (h *handler) listMembers(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Members.List(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, list, "")
}

func (h *handler) getMember(w http.ResponseWriter, r *http.Request) {
	m, err := h.app.Members.Get(r.Context(), mux.Vars(r)["uid"])
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, m, "")
}

func (h *handler) updateMember(w http.ResponseWriter, r *http.Request) {
	var payload memberUpdateRequest
	if err := decodeAndValidate(r, &payload); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	existing, err := h.app.Members.Get(r.Context(), mux.Vars(r)["uid"])
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
	if payload.Phone != nil {
		existing.Phone = *payload.Phone
	}
	if payload.Address != nil {
		existing.Address = *payload.Address
	}
	if payload.City != nil {
		existing.City = *payload.City
	}
	if payload.IsActive != nil {
		existing.IsActive = *payload.IsActive
	}

	updated, err := h.app.Members.Update(r.Context(), existing)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, updated, "Member updated successfully")
}

func (h *handler) deleteMember(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Members.Delete(r.Context(), mux.Vars(r)["uid"]); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, nil, "Member deleted successfully")
}
