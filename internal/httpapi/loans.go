package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/bookly-io/bookly/internal/domain/loan"
	"github.com/bookly-io/bookly/internal/httputil"
)

type loanCreateRequest struct {
	BookUID    string     `json:"book_uid" validate:"required"`
	MemberUID  string     `json:"member_uid" validate:"required"`
	BorrowedAt *time.Time `json:"borrowed_at"`
	DueDate    *time.Time `json:"due_date"`
}

type loanReissueRequest struct {
	DueDate *time.Time `json:"due_date"`
}

type loanReturnRequest struct {
	ReturnedAt      *time.Time `json:"returned_at"`
	FineAmount      float64    `json:"fine_amount" validate:"gte=0"`
	FineGraceAmount float64    `json:"fine_grace_amount" validate:"gte=0"`
}

func (h *handler) createLoan(w http.ResponseWriter, r *http.Request) {
	var payload loanCreateRequest
	if err := decodeAndValidate(r, &payload); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	l := loan.Loan{BookUID: payload.BookUID, MemberUID: payload.MemberUID}
	if payload.BorrowedAt != nil {
		l.BorrowedAt = *payload.BorrowedAt
	}
	if payload.DueDate != nil {
		l.DueDate = *payload.DueDate
	}

	created, err := h.app.Loans.Borrow(r.Context(), l)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordLoanCreated()
	}
	httputil.WriteSuccess(w, http.StatusCreated, created, "Loan created successfully")
}

func (h *handler) listLoans(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.app.Loans.List(r.Context(), loan.ListFilter{
		BookUID:   q.Get("book_uid"),
		MemberUID: q.Get("member_uid"),
	})
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, list, "")
}

func (h *handler) getActiveLoan(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	l, err := h.app.Loans.Active(r.Context(), q.Get("book_uid"), q.Get("member_uid"))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, l, "")
}

func (h *handler) getLoan(w http.ResponseWriter, r *http.Request) {
	l, err := h.app.Loans.Get(r.Context(), mux.Vars(r)["uid"])
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, l, "")
}

func (h *handler) reissueLoan(w http.ResponseWriter, r *http.Request) {
	var payload loanReissueRequest
	if err := decodeAndValidate(r, &payload); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	var dueDate time.Time
	if payload.DueDate != nil {
		dueDate = *payload.DueDate
	}

	updated, err := h.app.Loans.Reissue(r.Context(), mux.Vars(r)["uid"], dueDate)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, updated, "Loan reissued successfully")
}

func (h *handler) returnLoan(w http.ResponseWriter, r *http.Request) {
	var payload loanReturnRequest
	if err := decodeAndValidate(r, &payload); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	updated, err := h.app.Loans.Return(r.Context(), mux.Vars(r)["uid"], payload.ReturnedAt, payload.FineAmount, payload.FineGraceAmount)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordLoanReturned()
	}
	httputil.WriteSuccess(w, http.StatusOK, updated, "Loan returned successfully")
}
