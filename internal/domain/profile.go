package domain

import "time"

// Profile is an account that owns bucket items.
type Profile struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	DisplayName  string    `json:"display_name" db:"display_name"`
	CreatedAt    time.Time `json:"created_at" db:"-"`
	UpdatedAt    time.Time `json:"updated_at" db:"-"`
	LastLoginAt  time.Time `json:"last_login_at" db:"-"`
}

// Name returns the best available name to display for the profile.
func (p *Profile) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Email
}

// Session represents an active login with a refresh token.
type Session struct {
	ID               string    `json:"id"`
	ProfileID        string    `json:"profile_id"`
	RefreshTokenHash string    `json:"-"`
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	LastSeenAt       time.Time `json:"last_seen_at"`
	IPAddress        string    `json:"ip_address,omitempty"`
	UserAgent        string    `json:"user_agent,omitempty"`
}

// IsExpired checks if the session has passed its expiration time.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
