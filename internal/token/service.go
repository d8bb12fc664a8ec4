// Package token signs session records into compact HS256 tokens and verifies
// them again. Verification is purely cryptographic and never consults the
// session cache.
package token

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/odyssey-erp/odyssey-auth/internal/session"
)

// FallbackSecret is used when no secret is configured. Deployments must set
// JWT_SECRET; anyone who knows this value can mint tokens.
const FallbackSecret = "QWERTYUOas;ldfj;4u1023740^&&*()_)*&^"

// Claims is the token payload: the session record and nothing else.
type Claims struct {
	Auth          uint64 `json:"auth"`
	LastLoginTime int64  `json:"last_login_time"`
	Name          string `json:"name"`
	ID            int32  `json:"id"`
}

// GetExpirationTime implements jwt.Claims. Tokens carry no expiry; they are
// revoked by deleting the cached session.
func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) { return nil, nil }

// GetIssuedAt implements jwt.Claims.
func (c Claims) GetIssuedAt() (*jwt.NumericDate, error) { return nil, nil }

// GetNotBefore implements jwt.Claims.
func (c Claims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }

// GetIssuer implements jwt.Claims.
func (c Claims) GetIssuer() (string, error) { return "", nil }

// GetSubject implements jwt.Claims.
func (c Claims) GetSubject() (string, error) { return "", nil }

// GetAudience implements jwt.Claims.
func (c Claims) GetAudience() (jwt.ClaimStrings, error) { return nil, nil }

// Service signs and verifies tokens with a single HMAC secret.
type Service struct {
	secret []byte
	logger *slog.Logger
	parser *jwt.Parser
}

// New constructs a Service. An empty secret selects FallbackSecret.
func New(secret string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if secret == "" {
		logger.Warn("JWT_SECRET not set, signing tokens with the built-in fallback secret")
		secret = FallbackSecret
	}
	return &Service{
		secret: []byte(secret),
		logger: logger,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithStrictDecoding(),
		),
	}
}

// Sign produces a token carrying rec.
func (s *Service) Sign(rec session.Record) (string, error) {
	claims := Claims{
		Auth:          rec.Auth,
		LastLoginTime: rec.LastLoginTime,
		Name:          rec.UserName,
		ID:            rec.UserID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify checks the signature of raw and returns the record it carries.
// It reports false for empty, malformed or tampered tokens.
func (s *Service) Verify(raw string) (*session.Record, bool) {
	if raw == "" {
		return nil, false
	}
	var claims Claims
	_, err := s.parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		s.logger.Error("verify token", slog.Any("error", err))
		return nil, false
	}
	return &session.Record{
		UserID:        claims.ID,
		UserName:      claims.Name,
		Auth:          claims.Auth,
		LastLoginTime: claims.LastLoginTime,
	}, true
}

// ErrMissingBearer indicates that the request carries no bearer token.
var ErrMissingBearer = errors.New("token: missing bearer token")

// FromRequest extracts the bearer token from the Authorization header.
func FromRequest(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, raw, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissingBearer
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrMissingBearer
	}
	return raw, nil
}
