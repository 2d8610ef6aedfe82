package models

import (
	"fmt"
	"strings"
)

// User is an application account. The API token authenticates relay requests.
type User struct {
	entity
	email    string
	name     string
	apiToken string
}

// NewUser creates a User with creation timestamps set.
func NewUser(sequence int, email, name string) *User {
	return &User{entity: newEntity(sequence), email: email, name: name}
}

func (u *User) Email() string         { return u.email }
func (u *User) Name() string          { return u.name }
func (u *User) APIToken() string      { return u.apiToken }
func (u *User) SetEmail(email string) { u.email = email }
func (u *User) SetName(name string)   { u.name = name }
func (u *User) SetAPIToken(t string)  { u.apiToken = t }

// Validate requires an email address.
func (u *User) Validate() error {
	if strings.TrimSpace(u.email) == "" {
		return fmt.Errorf("email is required")
	}
	if !strings.Contains(u.email, "@") {
		return fmt.Errorf("invalid email: %s", u.email)
	}
	return nil
}

// Profile is a user's Discogs connection.
type Profile struct {
	UserID           string
	DiscogsUsername  *string
	OAuthToken       *string
	OAuthTokenSecret *string
}

// Connected reports whether the profile holds a usable access credential.
func (p *Profile) Connected() bool {
	return p != nil && p.DiscogsUsername != nil && p.OAuthToken != nil && p.OAuthTokenSecret != nil
}

// Credential returns the stored access credential, or false when not connected.
func (p *Profile) Credential() (AccessCredential, bool) {
	if !p.Connected() {
		return AccessCredential{}, false
	}
	return AccessCredential{Username: *p.DiscogsUsername, Token: *p.OAuthToken, Secret: *p.OAuthTokenSecret}, true
}
