package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/todo-backend/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// uniqueViolation is the Postgres error code for unique constraint failures.
const uniqueViolation = "23505"

// bcrypt only considers the first 72 bytes of its input and errors on
// anything longer. Passwords up to 128 characters are valid, so truncate
// before hashing and verifying alike; both sides see the same prefix.
const bcryptMaxBytes = 72

func bcryptInput(password string) []byte {
	b := []byte(password)
	if len(b) > bcryptMaxBytes {
		b = b[:bcryptMaxBytes]
	}
	return b
}

type UserRepository struct {
	db         *Database
	bcryptCost int
}

func NewUserRepository(db *Database, bcryptCost int) *UserRepository {
	return &UserRepository{db: db, bcryptCost: bcryptCost}
}

// Create hashes the password and inserts a new user. The email must already
// be normalized by the caller. A unique violation on the email column is
// reported as model.ErrDuplicateEmail.
func (r *UserRepository) Create(ctx context.Context, email, password string) (*model.User, error) {
	hashed, err := bcrypt.GenerateFromPassword(bcryptInput(password), r.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var user model.User
	query := `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, email, password_hash, created_at, updated_at
	`
	err = r.db.QueryRowxContext(ctx, query, email, string(hashed)).StructScan(&user)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, model.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	query := `SELECT id, email, password_hash, created_at, updated_at FROM users WHERE email = $1`
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	query := `SELECT id, email, password_hash, created_at, updated_at FROM users WHERE id = $1`
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return &user, nil
}

// ValidatePassword compares a plaintext password against the stored hash.
// bcrypt's comparison is constant time; a mismatch is reported as false,
// never as an error.
func (r *UserRepository) ValidatePassword(user *model.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), bcryptInput(password))
	return err == nil
}
