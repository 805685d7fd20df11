package storage

import (
	"context"
	"database/sql/driver"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/todo-backend/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt.MinCost keeps the hashing fast in tests.
func newUserRepoWithMock(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := &Database{DB: sqlx.NewDb(mockDB, "sqlmock")}
	return NewUserRepository(db, bcrypt.MinCost), mock
}

func userColumns() []string {
	return []string{"id", "email", "password_hash", "created_at", "updated_at"}
}

func TestUserRepository_Create(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO users \(email, password_hash\)`).
		WithArgs("alice@example.com", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(1, "alice@example.com", "$2a$04$hash", now, now))

	user, err := repo.Create(context.Background(), "alice@example.com", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_HashesPassword(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	now := time.Now()

	var storedHash string
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("alice@example.com", hashCapture{t, "Passw0rd!", &storedHash}).
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(1, "alice@example.com", "x", now, now))

	_, err := repo.Create(context.Background(), "alice@example.com", "Passw0rd!")
	require.NoError(t, err)

	// The plaintext never reaches the database.
	assert.NotEqual(t, "Passw0rd!", storedHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(storedHash), []byte("Passw0rd!")))
}

// hashCapture asserts the inserted value is a bcrypt hash of the expected
// plaintext and records it.
type hashCapture struct {
	t      *testing.T
	plain  string
	target *string
}

func (h hashCapture) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	*h.target = s
	return bcrypt.CompareHashAndPassword([]byte(s), []byte(h.plain)) == nil
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("alice@example.com", sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	_, err := repo.Create(context.Background(), "alice@example.com", "Passw0rd!")
	assert.ErrorIs(t, err, model.ErrDuplicateEmail)
}

func TestUserRepository_FindByEmail_NotFound(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectQuery(`SELECT id, email, password_hash, created_at, updated_at FROM users WHERE email`).
		WithArgs("missing@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns()))

	_, err := repo.FindByEmail(context.Background(), "missing@example.com")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUserRepository_FindByID(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT id, email, password_hash, created_at, updated_at FROM users WHERE id`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(3, "bob@example.com", "hash", now, now))

	user, err := repo.FindByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", user.Email)
}

func TestUserRepository_ValidatePassword(t *testing.T) {
	repo, _ := newUserRepoWithMock(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &model.User{PasswordHash: string(hash)}

	assert.True(t, repo.ValidatePassword(user, "Passw0rd!"))
	assert.False(t, repo.ValidatePassword(user, "wrong-password"))
	assert.False(t, repo.ValidatePassword(user, ""))
}

func TestUserRepository_LongPassword(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	now := time.Now()

	// 100 characters exceeds bcrypt's 72-byte input cap; the repository
	// truncates instead of failing, and validation sees the same prefix.
	long := strings.Repeat("x", 100)

	var storedHash string
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("alice@example.com", hashCapture{t, long[:72], &storedHash}).
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(1, "alice@example.com", "x", now, now))

	_, err := repo.Create(context.Background(), "alice@example.com", long)
	require.NoError(t, err)

	user := &model.User{PasswordHash: storedHash}
	assert.True(t, repo.ValidatePassword(user, long))
	assert.False(t, repo.ValidatePassword(user, strings.Repeat("y", 100)))
}
