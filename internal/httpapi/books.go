package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/bookly-io/bookly/internal/domain/book"
	"github.com/bookly-io/bookly/internal/httputil"
)

type bookCreateRequest struct {
	Title           string     `json:"title" validate:"required"`
	AuthorUID       *string    `json:"author_uid"`
	PublisherUID    *string    `json:"publisher_uid"`
	ISBN            string     `json:"isbn" validate:"required"`
	Description     string     `json:"description"`
	PublishedDate   *time.Time `json:"published_date"`
	Pages           *int       `json:"pages" validate:"omitempty,gte=1"`
	Language        string     `json:"language"`
	AvailableCopies int        `json:"available_copies" validate:"gte=0"`
}

type bookUpdateRequest struct {
	Title           *string    `json:"title"`
	AuthorUID       *string    `json:"author_uid"`
	PublisherUID    *string    `json:"publisher_uid"`
	ISBN            *string    `json:"isbn"`
	Description     *string    `json:"description"`
	PublishedDate   *time.Time `json:"published_date"`
	Pages           *int       `json:"pages" validate:"omitempty,gte=1"`
	Language        *string    `json:"language"`
	AvailableCopies *int       `json:"available_copies" validate:"omitempty,gte=0"`
}

func (h *handler) createBook(w http.ResponseWriter, r *http.Request) {
	var payload bookCreateRequest
	if err := decodeAndValidate(r, &payload); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	created, err := h.app.Books.Create(r.Context(), book.Book{
		Title:           payload.Title,
		AuthorUID:       payload.AuthorUID,
		PublisherUID:    payload.PublisherUID,
		ISBN:            payload.ISBN,
		Description:     payload.Description,
		PublishedDate:   payload.PublishedDate,
		Pages:           payload.Pages,
		Language:        payload.Language,
		AvailableCopies: payload.AvailableCopies,
	})
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, created, "Book created successfully")
}

func (h *handler) listBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.app.Books.List(r.Context(), book.ListFilter{
		Title:        q.Get("title"),
		AuthorUID:    q.Get("author_uid"),
		PublisherUID: q.Get("publisher_uid"),
		ISBN:         q.Get("isbn"),
	})
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, list, "")
}

func (h *handler) getBook(w http.ResponseWriter, r *http.Request) {
	b, err := h.app.Books.Get(r.Context(), mux.Vars(r)["uid"])
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, b, "")
}

func (h *handler) updateBook(w http.ResponseWriter, r *http.Request) {
	var payload bookUpdateRequest
	if err := decodeAndValidate(r, &payload); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	existing, err := h.app.Books.Get(r.Context(), mux.Vars(r)["uid"])
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	if payload.Title != nil {
		existing.Title = *payload.Title
	}
	if payload.AuthorUID != nil {
		existing.AuthorUID = payload.AuthorUID
	}
	if payload.PublisherUID != nil {
		existing.PublisherUID = payload.PublisherUID
	}
	if payload.ISBN != nil {
		existing.ISBN = *payload.ISBN
	}
	if payload.Description != nil {
		existing.Description = *payload.Description
	}
	if payload.PublishedDate != nil {
		existing.PublishedDate = payload.PublishedDate
	}
	if payload.Pages != nil {
		existing.Pages = payload.Pages
	}
	if payload.Language != nil {
		existing.Language = *payload.Language
	}
	if payload.AvailableCopies != nil {
		existing.AvailableCopies = *payload.AvailableCopies
	}

	updated, err := h.app.Books.Update(r.Context(), existing)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, updated, "Book updated successfully")
}

func (h *handler) deleteBook(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Books.Delete(r.Context(), mux.Vars(r)["uid"]); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, nil, "Book deleted successfully")
}
