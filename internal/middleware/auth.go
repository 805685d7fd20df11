package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/todo-backend/internal/config"
	"github.com/todo-backend/internal/model"
)

type contextKey string

const subjectContextKey contextKey = "subject"

// AuthMiddleware issues and validates bearer tokens. The signing secret is
// loaded once at startup and never mutated; validation is pure computation
// with no datastore lookup.
type AuthMiddleware struct {
	jwtSecret []byte
	expiry    time.Duration
}

func NewAuthMiddleware(cfg config.JWTConfig) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: []byte(cfg.Secret),
		expiry:    time.Duration(cfg.ExpirationHours) * time.Hour,
	}
}

// GenerateToken signs a token for an already-authenticated user and returns
// it with its lifetime in seconds. The issuer performs no credential check;
// callers must have verified the password first. The email claim is carried
// for display only and is never trusted for authorization.
func (m *AuthMiddleware) GenerateToken(user *model.User) (string, int64, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatInt(user.ID, 10),
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(m.expiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(m.jwtSecret)
	if err != nil {
		return "", 0, err
	}

	return tokenStr, int64(m.expiry.Seconds()), nil
}

// ValidateToken verifies the signature and expiry of a token and returns the
// subject id. Every failure mode collapses to model.ErrUnauthorized so the
// caller cannot be used as a signature or expiry oracle.
func (m *AuthMiddleware) ValidateToken(tokenStr string) (int64, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, model.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, model.ErrUnauthorized
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return 0, model.ErrUnauthorized
	}

	subjectID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, model.ErrUnauthorized
	}

	return subjectID, nil
}

// Authenticate guards protected routes. It extracts the bearer token,
// validates it, and injects the subject id into the request context. A
// missing, malformed, badly signed, or expired token all produce the same
// 401 response.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
			return
		}

		subjectID, err := m.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), subjectContextKey, subjectID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SubjectFromContext returns the authenticated subject id injected by
// Authenticate.
func SubjectFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(subjectContextKey).(int64)
	return id, ok
}
