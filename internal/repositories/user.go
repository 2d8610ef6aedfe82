package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/cdx/internal/models"
	"github.com/desertthunder/cdx/internal/shared"
)

const userColumns = `id, sequence, email, name, api_token, created_at, updated_at, deleted_at`

// UserRepository implements [models.Repository] for [models.User] persistence.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user with generated ID, sequence, and API token.
func (r *UserRepository) Create(user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	sequence, err := NextSequence(r.db, "users")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	token, err := shared.GenerateToken(32)
	if err != nil {
		return fmt.Errorf("failed to generate api token: %w", err)
	}

	user.SetID(shared.GenerateID())
	user.SetSequence(sequence)
	user.SetAPIToken(token)

	query := `INSERT INTO users (id, sequence, email, name, api_token, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.Exec(query, user.ID(), sequence, user.Email(), user.Name(), token, user.CreatedAt(), user.UpdatedAt())
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: email %s already registered", shared.ErrInvalidInput, user.Email())
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// Get retrieves a user by ID, excluding soft-deleted users
func (r *UserRepository) Get(id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ? AND deleted_at IS NULL`
	return scanUser(r.db.QueryRow(query, id))
}

// GetByToken resolves an API token to its user.
func (r *UserRepository) GetByToken(token string) (*models.User, error) {
	if token == "" {
		return nil, shared.ErrNotAuthenticated
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE api_token = ? AND deleted_at IS NULL`
	user, err := scanUser(r.db.QueryRow(query, token))
	if errors.Is(err, shared.ErrUserNotFound) {
		return nil, shared.ErrNotAuthenticated
	}
	return user, err
}

// GetByEmail retrieves a user by email address.
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ? AND deleted_at IS NULL`
	return scanUser(r.db.QueryRow(query, email))
}

// Update modifies an existing user's email and name.
func (r *UserRepository) Update(user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	now := time.Now()
	user.SetUpdatedAt(now)

	query := `UPDATE users SET email = ?, name = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, user.Email(), user.Name(), now, user.ID())
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return mustAffect(result, fmt.Errorf("%w: %s", shared.ErrUserNotFound, user.ID()))
}

// RotateToken issues a new API token for the user, invalidating the old one.
func (r *UserRepository) RotateToken(id string) (string, error) {
	token, err := shared.GenerateToken(32)
	if err != nil {
		return "", fmt.Errorf("failed to generate api token: %w", err)
	}

	query := `UPDATE users SET api_token = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`
	result, err := r.db.Exec(query, token, time.Now(), id)
	if err != nil {
		return "", fmt.Errorf("failed to rotate token: %w", err)
	}
	if err := mustAffect(result, fmt.Errorf("%w: %s", shared.ErrUserNotFound, id)); err != nil {
		return "", err
	}
	return token, nil
}

// Delete soft-deletes a user by ID
func (r *UserRepository) Delete(id string) error {
	query := `UPDATE users SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return mustAffect(result, fmt.Errorf("%w: %s", shared.ErrUserNotFound, id))
}

// List retrieves all users matching the given criteria, excluding soft-deleted users.
//
// Supported criteria: "email".
func (r *UserRepository) List(criteria map[string]any) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE deleted_at IS NULL`
	args := []any{}

	if email, ok := criteria["email"].(string); ok && email != "" {
		query += " AND email = ?"
		args = append(args, email)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return users, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	var (
		id        string
		sequence  int
		email     string
		name      string
		token     string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &email, &name, &token, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	user := models.NewUser(sequence, email, name)
	user.SetID(id)
	user.SetAPIToken(token)
	user.SetCreatedAt(createdAt)
	user.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		user.SetDeletedAt(&deletedAt.Time)
	}

	return user, nil
}
