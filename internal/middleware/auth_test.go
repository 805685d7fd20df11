package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/todo-backend/internal/config"
	"github.com/todo-backend/internal/middleware"
	"github.com/todo-backend/internal/model"
)

const testSecret = "test-secret-key-for-unit-tests"

func newAuth(t *testing.T) *middleware.AuthMiddleware {
	t.Helper()
	return middleware.NewAuthMiddleware(config.JWTConfig{Secret: testSecret, ExpirationHours: 24})
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestGenerateToken_RoundTrip(t *testing.T) {
	auth := newAuth(t)
	user := &model.User{ID: 42, Email: "alice@example.com"}

	token, expiresIn, err := auth.GenerateToken(user)
	require.NoError(t, err)
	assert.Equal(t, int64(86400), expiresIn)

	subject, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), subject)
}

func TestGenerateToken_TwoTokensBothValid(t *testing.T) {
	auth := newAuth(t)
	user := &model.User{ID: 7, Email: "alice@example.com"}

	t1, _, err := auth.GenerateToken(user)
	require.NoError(t, err)
	t2, _, err := auth.GenerateToken(user)
	require.NoError(t, err)

	// No single-session enforcement: both tokens validate independently.
	for _, token := range []string{t1, t2} {
		subject, err := auth.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, int64(7), subject)
	}
}

func TestValidateToken_Failures(t *testing.T) {
	auth := newAuth(t)

	now := time.Now()
	tests := []struct {
		name  string
		token string
	}{
		{"malformed", "not.a.token"},
		{"empty", ""},
		{
			"expired",
			signToken(t, testSecret, jwt.MapClaims{
				"sub": "42", "email": "a@b.com",
				"iat": now.Add(-48 * time.Hour).Unix(),
				"exp": now.Add(-24 * time.Hour).Unix(),
			}),
		},
		{
			"wrong secret",
			signToken(t, "another-secret", jwt.MapClaims{
				"sub": "42", "exp": now.Add(time.Hour).Unix(),
			}),
		},
		{
			"missing sub",
			signToken(t, testSecret, jwt.MapClaims{
				"email": "a@b.com", "exp": now.Add(time.Hour).Unix(),
			}),
		},
		{
			"non-numeric sub",
			signToken(t, testSecret, jwt.MapClaims{
				"sub": "alice", "exp": now.Add(time.Hour).Unix(),
			}),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// Every cause collapses to the same error.
			_, err := auth.ValidateToken(tc.token)
			assert.ErrorIs(t, err, model.ErrUnauthorized)
		})
	}
}

func TestValidateToken_RejectsTampering(t *testing.T) {
	auth := newAuth(t)
	token, _, err := auth.GenerateToken(&model.User{ID: 42, Email: "alice@example.com"})
	require.NoError(t, err)

	// Flip a character in the payload segment.
	tampered := []byte(token)
	mid := len(tampered) / 2
	if tampered[mid] == 'A' {
		tampered[mid] = 'B'
	} else {
		tampered[mid] = 'A'
	}

	_, err = auth.ValidateToken(string(tampered))
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestValidateToken_RejectsUnsignedAlg(t *testing.T) {
	auth := newAuth(t)

	// alg=none token, no signature.
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "42", "exp": time.Now().Add(time.Hour).Unix(),
	})
	unsigned, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = auth.ValidateToken(unsigned)
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestAuthenticate_InjectsSubject(t *testing.T) {
	auth := newAuth(t)
	token, _, err := auth.GenerateToken(&model.User{ID: 9, Email: "alice@example.com"})
	require.NoError(t, err)

	var gotSubject int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, ok := middleware.SubjectFromContext(r.Context())
		require.True(t, ok)
		gotSubject = subject
	})

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	auth.Authenticate(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(9), gotSubject)
}

func TestAuthenticate_RejectsIdentically(t *testing.T) {
	auth := newAuth(t)

	expired := signToken(t, testSecret, jwt.MapClaims{
		"sub": "9",
		"iat": time.Now().Add(-48 * time.Hour).Unix(),
		"exp": time.Now().Add(-24 * time.Hour).Unix(),
	})

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc123"},
		{"garbage token", "Bearer zzz"},
		{"expired token", "Bearer " + expired},
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for unauthenticated requests")
	})

	var bodies []string
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			auth.Authenticate(next).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			bodies = append(bodies, rec.Body.String())
		})
	}

	// All failure causes produce byte-identical responses.
	for i := 1; i < len(bodies); i++ {
		assert.Equal(t, bodies[0], bodies[i])
	}
}
