package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserView, error)
	ListUsers(ctx context.Context) ([]UserView, error)
	UpdateRole(ctx context.Context, userID string, role Role) (*UserView, error)
	DeleteUser(ctx context.Context, userID string) error

	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, rawToken string) (*AuthenticatedUser, error)
	ChangePassword(ctx context.Context, userID string, newPassword string) error
}

type CreateUserRequest struct {
	Username    string
	Password    string
	DisplayName string
	Role        Role
}

type LoginRequest struct {
	Username  string
	Password  string
	UserAgent string
	IPAddress string
}

type LoginResult struct {
	User      *UserView
	RawToken  string
	ExpiresAt time.Time
	SessionID snowflake.ID
}

// AuthenticatedUser pairs a live session with its account.
type AuthenticatedUser struct {
	User    *User
	Session *Session
}

// UserView is returned to clients without exposing the password hash.
type UserView struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
	IsDefault   bool      `json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
}
