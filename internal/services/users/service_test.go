package users

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bookly-io/bookly/internal/auth"
	"github.com/bookly-io/bookly/internal/domain/user"
	"github.com/bookly-io/bookly/internal/errors"
	"github.com/bookly-io/bookly/internal/storage/memory"
)

func newService() *Service {
	issuer := auth.NewTokenIssuer("test-secret", time.Minute, time.Hour)
	return New(memory.New(), issuer, nil)
}

func TestSignupAndSignin(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	created, err := svc.Signup(ctx, user.User{Username: "ada", Email: "ada@example.com", FirstName: "Ada"}, "s3cret")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if created.PasswordHash == "" || created.PasswordHash == "s3cret" {
		t.Fatal("password must be stored hashed")
	}

	u, access, refresh, err := svc.Signin(ctx, "ada@example.com", "s3cret")
	if err != nil {
		t.Fatalf("signin: %v", err)
	}
	if u.UID != created.UID {
		t.Fatalf("expected user %s, got %s", created.UID, u.UID)
	}
	if access == "" || refresh == "" {
		t.Fatal("expected both tokens")
	}
}

func TestSignupDuplicateEmailConflicts(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	if _, err := svc.Signup(ctx, user.User{Username: "ada", Email: "ada@example.com"}, "pw"); err != nil {
		t.Fatalf("signup: %v", err)
	}
	_, err := svc.Signup(ctx, user.User{Username: "other", Email: "ada@example.com"}, "pw")
	if !errors.IsCode(err, errors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestSigninWrongPasswordUnauthorized(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	if _, err := svc.Signup(ctx, user.User{Username: "ada", Email: "ada@example.com"}, "right"); err != nil {
		t.Fatalf("signup: %v", err)
	}

	_, _, _, err := svc.Signin(ctx, "ada@example.com", "wrong")
	if !errors.IsCode(err, errors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	_, _, _, err = svc.Signin(ctx, "nobody@example.com", "right")
	if !errors.IsCode(err, errors.CodeUnauthorized) {
		t.Fatalf("unknown email must look identical, got %v", err)
	}
}

func TestRefreshIssuesAccessToken(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", time.Minute, time.Hour)
	svc := New(memory.New(), issuer, nil)
	ctx := context.Background()

	created, err := svc.Signup(ctx, user.User{Username: "ada", Email: "ada@example.com"}, "pw")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	refresh, err := issuer.IssueRefreshToken(created.UID, created.Email)
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	claims, err := issuer.Decode(refresh)
	if err != nil {
		t.Fatalf("decode refresh: %v", err)
	}

	access, err := svc.Refresh(ctx, claims)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	got, err := issuer.Decode(access)
	if err != nil {
		t.Fatalf("decode access: %v", err)
	}
	if got.Refresh {
		t.Fatal("refreshed token must be an access token")
	}
	if got.Subject != created.UID {
		t.Fatalf("expected subject %s, got %s", created.UID, got.Subject)
	}
}

func TestRefreshRejectsExpiredClaims(t *testing.T) {
	svc := newService()

	claims := &auth.Claims{
		Email:   "ada@example.com",
		Refresh: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	_, err := svc.Refresh(context.Background(), claims)
	if !errors.IsCode(err, errors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	claims.ExpiresAt = nil
	_, err = svc.Refresh(context.Background(), claims)
	if !errors.IsCode(err, errors.CodeUnauthorized) {
		t.Fatalf("missing expiry must be rejected, got %v", err)
	}
}

func TestSignupValidation(t *testing.T) {
	svc := newService()
	_, err := svc.Signup(context.Background(), user.User{Username: " ", Email: "a@b.com"}, "pw")
	if !errors.IsCode(err, errors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
