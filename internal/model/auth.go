package model

import (
	"errors"
	"time"
)

// AuthRequest types
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse types
type LoginResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// TokenClaims is what a validated bearer token resolves to.
type TokenClaims struct {
	DoctorID  string
	Username  string
	ExpiresAt time.Time
}

// Auth errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
)
