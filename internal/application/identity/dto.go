package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/identity"
)

// LoginInput contains login credentials
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResult is an issued token pair
type TokenResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// UserInfo is the public view of a user
type UserInfo struct {
	ID    uuid.UUID     `json:"id"`
	OrgID uuid.UUID     `json:"org_id"`
	Email string        `json:"email"`
	Name  string        `json:"name"`
	Role  identity.Role `json:"role"`
}

// LoginResult contains the tokens and the logged-in user
type LoginResult struct {
	TokenResult
	User UserInfo `json:"user"`
}

// RefreshInput carries a refresh token
type RefreshInput struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutInput identifies the access token being revoked
type LogoutInput struct {
	UserID uuid.UUID
	JTI    string
	TTL    time.Duration
}

// CreateUserInput adds a user to the caller's organization
type CreateUserInput struct {
	Email    string        `json:"email" binding:"required,email"`
	Name     string        `json:"name"`
	Password string        `json:"password" binding:"required,min=8"`
	Role     identity.Role `json:"role" binding:"required,oneof=OWNER CASHIER CAFE"`
}

func toUserInfo(u *identity.User) UserInfo {
	return UserInfo{
		ID:    u.ID,
		OrgID: u.OrgID,
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
	}
}
