package models

import (
	"time"
)

// User represents an account that can author posts and comments
type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	IsStaff      bool      `json:"is_staff" db:"is_staff"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// UserProfile holds the optional public details of a user
type UserProfile struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Bio       *string   `json:"bio" db:"bio"`
	Website   *string   `json:"website" db:"website"`
	Avatar    *string   `json:"avatar" db:"avatar"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SignupRequest is the body of POST /users
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdateRequest is the body of PUT /users/me/profile.
// Nil fields are left untouched.
type ProfileUpdateRequest struct {
	Bio     *string `json:"bio"`
	Website *string `json:"website"`
	Avatar  *string `json:"avatar"`
}

// UserResponse is the public representation of a user
type UserResponse struct {
	ID       string           `json:"id"`
	Username string           `json:"username"`
	Email    string           `json:"email"`
	IsStaff  bool             `json:"is_staff"`
	Profile  *ProfileResponse `json:"profile,omitempty"`
}

// ProfileResponse is the public representation of a profile
type ProfileResponse struct {
	Bio     *string `json:"bio"`
	Website *string `json:"website"`
	Avatar  *string `json:"avatar"`
}

// TokenResponse is returned by POST /token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
