// Package store defines the persistence contract shared by the Postgres and SQLite
// backends: glucose readings, users and per-user glucose settings.
package store

import (
	"context"
	"time"

	"lg/glucose-api/internal/glucose"
)

// Store is the interface for persistent storage.
type Store interface {
	glucose.ReadingStore

	// Users
	CreateUser(ctx context.Context, u *User) (*User, error)
	UserByUsername(ctx context.Context, username string) (*User, error)
	UserByToken(ctx context.Context, token string) (*User, error)

	// Settings
	GetSettings(ctx context.Context, userID int) (*Settings, error)
	SaveSettings(ctx context.Context, s *Settings) (*Settings, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}

// User is an account. AuthToken and Password are hidden from JSON responses.
type User struct {
	ID        int        `json:"id" db:"id"`
	Username  string     `json:"username" db:"username"`
	Email     string     `json:"email" db:"email"`
	AuthToken string     `json:"-" db:"auth_token"`
	Password  string     `json:"-" db:"password"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
}

// Settings are a user's glucose preferences. One row per user; an empty Timezone
// means the server default. The target range applies only when both bounds are set.
type Settings struct {
	UserID     int        `json:"user_id" db:"user_id"`
	Timezone   string     `json:"timezone" db:"timezone"`
	TargetLow  *float64   `json:"target_low" db:"target_low"`
	TargetHigh *float64   `json:"target_high" db:"target_high"`
	UpdatedAt  *time.Time `json:"updated_at" db:"updated_at"`
}

// Target returns the settings range, or nil when either bound is missing.
func (s *Settings) Target() *glucose.TargetRange {
	if s == nil {
		return nil
	}
	return TargetFromColumns(s.TargetLow, s.TargetHigh)
}
