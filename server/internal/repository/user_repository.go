package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/maynagashev/redactvault/models"
)

// PostgreSQL error codes.
const (
	pgUniqueViolationCode = "23505"
)

// UserRepository stores reviewer accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

type postgresUserRepository struct {
	db *sqlx.DB
}

// NewPostgresUserRepository returns a UserRepository backed by PostgreSQL.
func NewPostgresUserRepository(db *sqlx.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

// CreateUser inserts the user and returns the new id.
func (r *postgresUserRepository) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	query := `INSERT INTO users (username, password_hash, role) VALUES ($1, $2, $3) RETURNING id`
	var userID int64

	err := r.db.QueryRowxContext(ctx, query, user.Username, user.PasswordHash, user.Role).Scan(&userID)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			log.Printf("[UserRepo] Username '%s' is already taken", user.Username)
			return 0, ErrUsernameTaken
		}
		log.Printf("[UserRepo] Unexpected error creating user '%s': %v", user.Username, err)
		return 0, fmt.Errorf("create user query: %w", err)
	}

	log.Printf("[UserRepo] User '%s' created with ID %d and role '%s'", user.Username, userID, user.Role)
	return userID, nil
}

// GetUserByUsername looks a user up by name.
func (r *postgresUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT id, username, password_hash, role, created_at FROM users WHERE username=$1`
	var user models.User

	err := r.db.GetContext(ctx, &user, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[UserRepo] User '%s' not found", username)
			return nil, ErrUserNotFound
		}
		log.Printf("[UserRepo] Error looking up user '%s': %v", username, err)
		return nil, fmt.Errorf("get user query: %w", err)
	}

	return &user, nil
}

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)
