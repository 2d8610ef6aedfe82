package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/cdx/internal/models"
)

// ProfileRepository stores each user's Discogs connection.
type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Get returns the profile for userID. A user without a row gets an empty, disconnected profile.
func (r *ProfileRepository) Get(userID string) (*models.Profile, error) {
	query := `
		SELECT discogs_username, discogs_oauth_token, discogs_oauth_token_secret
		FROM profiles
		WHERE user_id = ?
	`

	var username, token, secret sql.NullString
	err := r.db.QueryRow(query, userID).Scan(&username, &token, &secret)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.Profile{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}

	return &models.Profile{
		UserID:           userID,
		DiscogsUsername:  nullable(username),
		OAuthToken:       nullable(token),
		OAuthTokenSecret: nullable(secret),
	}, nil
}

// SaveCredential replaces any prior credential for userID in a single statement.
func (r *ProfileRepository) SaveCredential(userID string, cred models.AccessCredential) error {
	query := `
		INSERT INTO profiles (user_id, discogs_username, discogs_oauth_token, discogs_oauth_token_secret, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			discogs_username = excluded.discogs_username,
			discogs_oauth_token = excluded.discogs_oauth_token,
			discogs_oauth_token_secret = excluded.discogs_oauth_token_secret,
			updated_at = excluded.updated_at
	`

	if _, err := r.db.Exec(query, userID, cred.Username, cred.Token, cred.Secret, time.Now()); err != nil {
		return fmt.Errorf("failed to store discogs credentials: %w", err)
	}
	return nil
}

// Disconnect clears all three credential fields.
func (r *ProfileRepository) Disconnect(userID string) error {
	query := `
		UPDATE profiles
		SET discogs_username = NULL, discogs_oauth_token = NULL, discogs_oauth_token_secret = NULL, updated_at = ?
		WHERE user_id = ?
	`

	if _, err := r.db.Exec(query, time.Now(), userID); err != nil {
		return fmt.Errorf("failed to disconnect discogs: %w", err)
	}
	return nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
