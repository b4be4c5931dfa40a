package dto

import (
	"time"

	"github.com/spec-kit/task-service/internal/domain"
)

// SignupRequest payload for new accounts.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token and the caller's identity.
type LoginResponse struct {
	Token     string          `json:"token"`
	UserID    string          `json:"user_id"`
	Role      domain.UserRole `json:"role"`
	ExpiresAt time.Time       `json:"expires_at"`
}
