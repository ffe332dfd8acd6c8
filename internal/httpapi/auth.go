package httpapi

import (
	"net/http"

	"github.com/bookly-io/bookly/internal/domain/user"
	"github.com/bookly-io/bookly/internal/errors"
	"github.com/bookly-io/bookly/internal/httputil"
	"github.com/bookly-io/bookly/internal/middleware"
)

type signupRequest struct {
	Username  string `json:"username" validate:"required,min=3"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type signinRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// userSummary is the trimmed user object embedded in auth responses.
type userSummary struct {
	UID       string `json:"uid"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func summarize(u user.User) userSummary {
	return userSummary{
		UID:       u.UID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func (h *handler) signup(w http.ResponseWriter, r *http.Request) {
	var payload signupRequest
	if err := decodeAndValidate(r, &payload); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	created, err := h.app.Users.Signup(r.Context(), user.User{
		Username:  payload.Username,
		Email:     payload.Email,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
	}, payload.Password)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, created, "Account created successfully")
}

func (h *handler) signin(w http.ResponseWriter, r *http.Request) {
	var payload signinRequest
	if err := decodeAndValidate(r, &payload); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	u, access, refresh, err := h.app.Users.Signin(r.Context(), payload.Email, payload.Password)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"access_token":  access,
		"refresh_token": refresh,
		"user":          summarize(u),
	}, "Login successful")
}

func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())
	if claims == nil {
		httputil.WriteError(w, r, errors.Unauthorized("Refresh token required"))
		return
	}

	access, err := h.app.Users.Refresh(r.Context(), claims)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, map[string]string{"access_token": access}, "Token refreshed")
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UserIDFrom(r.Context())
	if uid == "" {
		httputil.WriteError(w, r, errors.Unauthorized("Access token required"))
		return
	}

	u, err := h.app.Users.Get(r.Context(), uid)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, u, "")
}
