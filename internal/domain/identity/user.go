package identity

import (
	"context"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 12

const minPasswordLength = 8

// Role is what a user does for their organization
type Role string

const (
	RoleOwner   Role = "OWNER"
	RoleCashier Role = "CASHIER"
	RoleCafe    Role = "CAFE"
)

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleCashier, RoleCafe:
		return true
	}
	return false
}

// String returns the role name
func (r Role) String() string {
	return string(r)
}

// User is a login belonging to exactly one organization
type User struct {
	shared.OrgEntity
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
	IsActive     bool   `json:"is_active"`
}

// NewUser validates input and creates an active user
func NewUser(orgID uuid.UUID, email, name, password string, role Role) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, shared.NewValidationError("invalid email %q", email)
	}
	if !role.IsValid() {
		return nil, shared.NewValidationError("invalid role %q", role)
	}

	u := &User{
		OrgEntity: shared.NewOrgEntity(orgID),
		Email:     email,
		Name:      strings.TrimSpace(name),
		Role:      role,
		IsActive:  true,
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

// SetPassword validates and hashes a new password
func (u *User) SetPassword(password string) error {
	if len(password) < minPasswordLength {
		return shared.NewValidationError("password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	u.Touch()
	return nil
}

// VerifyPassword checks a password against the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// UserRepository defines persistence for users
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	Save(ctx context.Context, u *User) error
}
