package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bookly-io/bookly/internal/app"
	"github.com/bookly-io/bookly/internal/auth"
	"github.com/bookly-io/bookly/internal/logging"
	"github.com/bookly-io/bookly/internal/metrics"
	"github.com/bookly-io/bookly/internal/middleware"
)

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
}

type errorEnvelope struct {
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
	Error      struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
	RequestID string `json:"requestId"`
}

func newTestServer(t *testing.T) *httptest.Server {
	return newTestServerWithMetrics(t, nil)
}

func newTestServerWithMetrics(t *testing.T, m *metrics.Metrics) *httptest.Server {
	t.Helper()
	issuer := auth.NewTokenIssuer("test-secret", time.Minute, time.Hour)
	application := app.New(app.Stores{}, issuer, nil)
	authMW := middleware.NewAuthMiddleware(issuer, nil)

	logger := logging.NewDefault("test")
	logger.SetOutput(bytes.NewBuffer(nil))

	router := NewHandler(application, authMW, m)
	srv := httptest.NewServer(middleware.RequestIDMiddleware(logger)(router))
	t.Cleanup(srv.Close)
	return srv
}

// borrowFixture creates a one-copy book, a member and an active loan,
// returning their uids.
func borrowFixture(t *testing.T, srv *httptest.Server, token string) (string, string, string) {
	t.Helper()
	var env envelope
	var created struct {
		UID string `json:"uid"`
	}

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/books", token, map[string]interface{}{
		"title": "Dune", "isbn": "978-0441013593", "available_copies": 1,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create book: expected 201, got %d: %s", resp.StatusCode, body)
	}
	json.Unmarshal(body, &env)
	json.Unmarshal(env.Data, &created)
	bookUID := created.UID

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/v1/members", token, map[string]string{
		"first_name": "Paul", "last_name": "Atreides", "email": "paul@example.com",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create member: expected 201, got %d: %s", resp.StatusCode, body)
	}
	json.Unmarshal(body, &env)
	json.Unmarshal(env.Data, &created)
	memberUID := created.UID

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/v1/loans", token, map[string]string{
		"book_uid": bookUID, "member_uid": memberUID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create loan: expected 201, got %d: %s", resp.StatusCode, body)
	}
	json.Unmarshal(body, &env)
	json.Unmarshal(env.Data, &created)
	return bookUID, memberUID, created.UID
}

func doJSON(t *testing.T, method, url, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, out.Bytes()
}

func signupAndSignin(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/signup", "", map[string]string{
		"username": "ada",
		"email":    "ada@example.com",
		"password": "s3cret",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d", resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/signin", "", map[string]string{
		"email":    "ada@example.com",
		"password": "s3cret",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("signin: expected 200, got %d: %s", resp.StatusCode, body)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Message != "Login successful" {
		t.Fatalf("expected login message, got %q", env.Message)
	}
	var data struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		User         struct {
			UID      string `json:"uid"`
			Username string `json:"username"`
		} `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode signin data: %v", err)
	}
	if data.AccessToken == "" || data.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if data.User.Username != "ada" {
		t.Fatalf("expected user summary, got %+v", data.User)
	}
	return data.AccessToken
}

func TestSignupDuplicateEmail(t *testing.T) {
	srv := newTestServer(t)
	payload := map[string]string{"username": "ada", "email": "ada@example.com", "password": "s3cret"}

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/signup", "", payload)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	payload["username"] = "other"
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/signup", "", payload)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", resp.StatusCode, body)
	}

	var errEnv errorEnvelope
	if err := json.Unmarshal(body, &errEnv); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if errEnv.Status != "error" || errEnv.Error.Code != "CONFLICT" {
		t.Fatalf("unexpected error envelope: %+v", errEnv)
	}
	if errEnv.RequestID == "" {
		t.Fatal("expected requestId in error envelope")
	}
}

func TestSignupValidationDetails(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/signup", "", map[string]string{
		"username": "ada",
		"email":    "not-an-email",
		"password": "s3cret",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", resp.StatusCode, body)
	}

	var errEnv errorEnvelope
	if err := json.Unmarshal(body, &errEnv); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if _, ok := errEnv.Error.Details["email"]; !ok {
		t.Fatalf("expected per-field detail for email, got %+v", errEnv.Error.Details)
	}
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/books", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", resp.StatusCode, body)
	}
}

func TestRequestIDHeaderEchoed(t *testing.T) {
	srv := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set("X-Request-ID", "test-request-id")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "test-request-id" {
		t.Fatalf("expected request id echoed, got %q", got)
	}

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected request id generated when absent")
	}
}

func TestRefreshFlow(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/signup", "", map[string]string{
		"username": "ada", "email": "ada@example.com", "password": "s3cret",
	})
	_, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/signin", "", map[string]string{
		"email": "ada@example.com", "password": "s3cret",
	})
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(env.Data, &tokens); err != nil {
		t.Fatalf("decode tokens: %v", err)
	}

	// The access token must not pass for a refresh token.
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/refresh", tokens.AccessToken, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for access token, got %d", resp.StatusCode)
	}

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/refresh", tokens.RefreshToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	var refreshed struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(env.Data, &refreshed); err != nil {
		t.Fatalf("decode refreshed token: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Fatal("expected new access token")
	}
}

func TestLoanLifecycle(t *testing.T) {
	srv := newTestServer(t)
	token := signupAndSignin(t, srv)

	// Catalog setup.
	_, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/authors", token, map[string]string{
		"first_name": "Frank", "last_name": "Herbert", "email": "frank@example.com",
	})
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode author envelope: %v", err)
	}
	var created struct {
		UID string `json:"uid"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode author: %v", err)
	}
	authorUID := created.UID

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/books", token, map[string]interface{}{
		"title": "Dune", "isbn": "978-0441013593", "author_uid": authorUID, "available_copies": 1,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create book: expected 201, got %d: %s", resp.StatusCode, body)
	}
	json.Unmarshal(body, &env)
	json.Unmarshal(env.Data, &created)
	bookUID := created.UID

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/v1/members", token, map[string]string{
		"first_name": "Paul", "last_name": "Atreides", "email": "paul@example.com",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create member: expected 201, got %d: %s", resp.StatusCode, body)
	}
	json.Unmarshal(body, &env)
	json.Unmarshal(env.Data, &created)
	memberUID := created.UID

	// Borrow the only copy.
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/v1/loans", token, map[string]string{
		"book_uid": bookUID, "member_uid": memberUID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create loan: expected 201, got %d: %s", resp.StatusCode, body)
	}
	json.Unmarshal(body, &env)
	json.Unmarshal(env.Data, &created)
	loanUID := created.UID

	// The only copy is out; a second borrow is rejected.
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/v1/loans", token, map[string]string{
		"book_uid": bookUID, "member_uid": memberUID,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate loan, got %d: %s", resp.StatusCode, body)
	}

	// Inventory is at zero.
	_, body = doJSON(t, http.MethodGet, srv.URL+"/api/v1/books/"+bookUID, token, nil)
	json.Unmarshal(body, &env)
	var bookData struct {
		AvailableCopies int `json:"available_copies"`
	}
	json.Unmarshal(env.Data, &bookData)
	if bookData.AvailableCopies != 0 {
		t.Fatalf("expected 0 copies, got %d", bookData.AvailableCopies)
	}

	// Return the loan.
	resp, body = doJSON(t, http.MethodPatch, srv.URL+"/api/v1/loans/"+loanUID+"/return", token, map[string]float64{
		"fine_amount": 1.25,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("return loan: expected 200, got %d: %s", resp.StatusCode, body)
	}

	// Second return conflicts.
	resp, body = doJSON(t, http.MethodPatch, srv.URL+"/api/v1/loans/"+loanUID+"/return", token, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for second return, got %d: %s", resp.StatusCode, body)
	}

	// Inventory restored; the member can borrow again.
	_, body = doJSON(t, http.MethodGet, srv.URL+"/api/v1/books/"+bookUID, token, nil)
	json.Unmarshal(body, &env)
	json.Unmarshal(env.Data, &bookData)
	if bookData.AvailableCopies != 1 {
		t.Fatalf("expected 1 copy after return, got %d", bookData.AvailableCopies)
	}

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/v1/loans", token, map[string]string{
		"book_uid": bookUID, "member_uid": memberUID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("borrow after return: expected 201, got %d: %s", resp.StatusCode, body)
	}
}

func TestReturnHonorsBackdatedTimestamp(t *testing.T) {
	srv := newTestServer(t)
	token := signupAndSignin(t, srv)
	_, _, loanUID := borrowFixture(t, srv, token)

	backdated := time.Now().UTC().Add(-72 * time.Hour).Truncate(time.Second)
	resp, body := doJSON(t, http.MethodPatch, srv.URL+"/api/v1/loans/"+loanUID+"/return", token, map[string]interface{}{
		"returned_at": backdated,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("return loan: expected 200, got %d: %s", resp.StatusCode, body)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	var loanData struct {
		ReturnedAt *time.Time `json:"returned_at"`
	}
	if err := json.Unmarshal(env.Data, &loanData); err != nil {
		t.Fatalf("decode loan: %v", err)
	}
	if loanData.ReturnedAt == nil || !loanData.ReturnedAt.Equal(backdated) {
		t.Fatalf("expected returned_at %v, got %v", backdated, loanData.ReturnedAt)
	}
}

func TestBorrowHonorsSuppliedTimestamp(t *testing.T) {
	srv := newTestServer(t)
	token := signupAndSignin(t, srv)
	bookUID, _, _ := borrowFixture(t, srv, token)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/members", token, map[string]string{
		"first_name": "Leto", "last_name": "Atreides", "email": "leto@example.com",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create member: expected 201, got %d: %s", resp.StatusCode, body)
	}
	var env envelope
	json.Unmarshal(body, &env)
	var created struct {
		UID string `json:"uid"`
	}
	json.Unmarshal(env.Data, &created)

	// Restore inventory so the second member can borrow.
	resp, body = doJSON(t, http.MethodPatch, srv.URL+"/api/v1/books/"+bookUID, token, map[string]int{
		"available_copies": 1,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update book: expected 200, got %d: %s", resp.StatusCode, body)
	}

	borrowed := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Second)
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/v1/loans", token, map[string]interface{}{
		"book_uid": bookUID, "member_uid": created.UID, "borrowed_at": borrowed,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create loan: expected 201, got %d: %s", resp.StatusCode, body)
	}
	json.Unmarshal(body, &env)
	var loanData struct {
		BorrowedAt time.Time `json:"borrowed_at"`
	}
	if err := json.Unmarshal(env.Data, &loanData); err != nil {
		t.Fatalf("decode loan: %v", err)
	}
	if !loanData.BorrowedAt.Equal(borrowed) {
		t.Fatalf("expected borrowed_at %v, got %v", borrowed, loanData.BorrowedAt)
	}
}

func TestLoanCountersRecorded(t *testing.T) {
	m := metrics.New()
	srv := newTestServerWithMetrics(t, m)
	token := signupAndSignin(t, srv)
	_, _, loanUID := borrowFixture(t, srv, token)

	resp, body := doJSON(t, http.MethodPatch, srv.URL+"/api/v1/loans/"+loanUID+"/return", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("return loan: expected 200, got %d: %s", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/metrics", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", resp.StatusCode)
	}
	text := string(body)
	if !strings.Contains(text, "bookly_loans_created_total 1") {
		t.Fatal("expected loan creation counted")
	}
	if !strings.Contains(text, "bookly_loans_returned_total 1") {
		t.Fatal("expected loan return counted")
	}
}

func TestBookFilters(t *testing.T) {
	srv := newTestServer(t)
	token := signupAndSignin(t, srv)

	for i, title := range []string{"Dune", "Dune Messiah", "Neuromancer"} {
		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/books", token, map[string]interface{}{
			"title": title, "isbn": fmt.Sprintf("isbn-%d", i), "available_copies": 1,
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create book: expected 201, got %d: %s", resp.StatusCode, body)
		}
	}

	_, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/books?title=dune", token, nil)
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	var list []struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 matches for title filter, got %d", len(list))
	}
}

func TestMethodNotAllowedEnvelope(t *testing.T) {
	srv := newTestServer(t)
	token := signupAndSignin(t, srv)

	resp, body := doJSON(t, http.MethodPut, srv.URL+"/api/v1/books", token, nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d: %s", resp.StatusCode, body)
	}

	var errEnv errorEnvelope
	if err := json.Unmarshal(body, &errEnv); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if errEnv.Error.Code != "METHOD_NOT_ALLOWED" {
		t.Fatalf("unexpected code %q", errEnv.Error.Code)
	}
}

func TestDeleteReturnsEnvelope(t *testing.T) {
	srv := newTestServer(t)
	token := signupAndSignin(t, srv)

	_, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/authors", token, map[string]string{
		"first_name": "Frank", "last_name": "Herbert", "email": "frank@example.com",
	})
	var env envelope
	json.Unmarshal(body, &env)
	var created struct {
		UID string `json:"uid"`
	}
	json.Unmarshal(env.Data, &created)

	resp, body := doJSON(t, http.MethodDelete, srv.URL+"/api/v1/authors/"+created.UID, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Message != "Author deleted successfully" {
		t.Fatalf("unexpected message %q", env.Message)
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/authors/"+created.UID, token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}
