// Package httpapi exposes the REST API under /api/v1.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bookly-io/bookly/internal/app"
	"github.com/bookly-io/bookly/internal/errors"
	"github.com/bookly-io/bookly/internal/httputil"
	"github.com/bookly-io/bookly/internal/metrics"
	"github.com/bookly-io/bookly/internal/middleware"
)

// handler bundles the HTTP endpoints for the application services.
type handler struct {
	app     *app.Application
	metrics *metrics.Metrics
}

// NewHandler returns the API router. Auth routes are public except token
// refresh; everything else under /api/v1 requires an access token.
func NewHandler(application *app.Application, authMW *middleware.AuthMiddleware, m *metrics.Metrics) http.Handler {
	h := &handler{app: application, metrics: m}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	if m != nil {
		// Registered on the router so the middleware sees the matched
		// route template rather than the raw path.
		r.Use(middleware.MetricsMiddleware(m))
		r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	authRoutes := api.PathPrefix("/auth").Subrouter()
	authRoutes.HandleFunc("/signup", h.signup).Methods(http.MethodPost)
	authRoutes.HandleFunc("/signin", h.signin).Methods(http.MethodPost)

	refresh := api.PathPrefix("/auth/refresh").Subrouter()
	refresh.Use(authMW.RequireRefreshToken())
	refresh.HandleFunc("", h.refresh).Methods(http.MethodPost)

	me := api.PathPrefix("/auth/me").Subrouter()
	me.Use(authMW.RequireAccessToken())
	me.HandleFunc("", h.me).Methods(http.MethodGet)

	protected := api.NewRoute().Subrouter()
	protected.Use(authMW.RequireAccessToken())

	protected.HandleFunc("/authors", h.createAuthor).Methods(http.MethodPost)
	protected.HandleFunc("/authors", h.listAuthors).Methods(http.MethodGet)
	protected.HandleFunc("/authors/{uid}", h.getAuthor).Methods(http.MethodGet)
	protected.HandleFunc("/authors/{uid}", h.updateAuthor).Methods(http.MethodPatch)
	protected.HandleFunc("/authors/{uid}", h.deleteAuthor).Methods(http.MethodDelete)

	protected.HandleFunc("/publishers", h.createPublisher).Methods(http.MethodPost)
	protected.HandleFunc("/publishers", h.listPublishers).Methods(http.MethodGet)
	protected.HandleFunc("/publishers/{uid}", h.getPublisher).Methods(http.MethodGet)
	protected.HandleFunc("/publishers/{uid}", h.updatePublisher).Methods(http.MethodPatch)
	protected.HandleFunc("/publishers/{uid}", h.deletePublisher).Methods(http.MethodDelete)

	protected.HandleFunc("/books", h.createBook).Methods(http.MethodPost)
	protected.HandleFunc("/books", h.listBooks).Methods(http.MethodGet)
	protected.HandleFunc("/books/{uid}", h.getBook).Methods(http.MethodGet)
	protected.HandleFunc("/books/{uid}", h.updateBook).Methods(http.MethodPatch)
	protected.HandleFunc("/books/{uid}", h.deleteBook).Methods(http.MethodDelete)

	protected.HandleFunc("/members", h.createMember).Methods(http.MethodPost)
	protected.HandleFunc("/members", h.listMembers).Methods(http.MethodGet)
	protected.HandleFunc("/members/{uid}", h.getMember).Methods(http.MethodGet)
	protected.HandleFunc("/members/{uid}", h.updateMember).Methods(http.MethodPatch)
	protected.HandleFunc("/members/{uid}", h.deleteMember).Methods(http.MethodDelete)

	protected.HandleFunc("/loans", h.createLoan).Methods(http.MethodPost)
	protected.HandleFunc("/loans", h.listLoans).Methods(http.MethodGet)
	protected.HandleFunc("/loans/active", h.getActiveLoan).Methods(http.MethodGet)
	protected.HandleFunc("/loans/{uid}", h.getLoan).Methods(http.MethodGet)
	protected.HandleFunc("/loans/{uid}/reissue", h.reissueLoan).Methods(http.MethodPatch)
	protected.HandleFunc("/loans/{uid}/return", h.returnLoan).Methods(http.MethodPatch)

	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"}, "")
}

func notFound(w http.ResponseWriter, r *http.Request) {
	httputil.WriteError(w, r, errors.NotFound("Resource not found"))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httputil.WriteErrorResponse(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}
