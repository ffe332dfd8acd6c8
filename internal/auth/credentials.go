// Package auth implements the credential service: password hashing and
// JWT issuance/verification.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrExpiredToken marks a token whose expiry has passed.
var ErrExpiredToken = errors.New("token has expired")

// ErrInvalidToken marks any other decode or verification failure.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the token payload. Subject carries the user uid.
type Claims struct {
	Email   string `json:"email"`
	Refresh bool   `json:"refresh"`
	jwt.RegisteredClaims
}

// HashPassword produces a one-way salted hash of the password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether plain matches the stored hash.
func VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// TokenIssuer signs and verifies tokens with a process-wide HMAC secret.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenIssuer creates an issuer. TTLs fall back to 15 minutes and
// 48 hours when zero.
func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 48 * time.Hour
	}
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccessToken mints a short-lived access token for the user.
func (t *TokenIssuer) IssueAccessToken(userUID, email string) (string, error) {
	return t.issue(userUID, email, t.accessTTL, false)
}

// IssueRefreshToken mints a long-lived refresh token for the user.
func (t *TokenIssuer) IssueRefreshToken(userUID, email string) (string, error) {
	return t.issue(userUID, email, t.refreshTTL, true)
}

func (t *TokenIssuer) issue(userUID, email string, ttl time.Duration, refresh bool) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email:   email,
		Refresh: refresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userUID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the token signature and expiry. It fails closed: any
// mismatch yields ErrExpiredToken or ErrInvalidToken, never partial claims.
func (t *TokenIssuer) Decode(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
