package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/identity"
	"github.com/posterdash/backend/internal/domain/shared"
	"github.com/posterdash/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// AuthService handles authentication operations
type AuthService struct {
	users   identity.UserRepository
	tokens  *auth.JWTService
	revoked auth.RevocationList
	logger  *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(users identity.UserRepository, tokens *auth.JWTService, revoked auth.RevocationList, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:   users,
		tokens:  tokens,
		revoked: revoked,
		logger:  logger,
	}
}

var errInvalidCredentials = shared.NewUnauthorizedError("invalid email or password")

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, input.Email)
	if errors.Is(err, shared.ErrNotFound) {
		s.logger.Warn("Login for unknown email", zap.String("email", input.Email))
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !user.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("user_id", user.ID.String()))
		return nil, errInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.NewForbiddenError("account has been deactivated")
	}

	pair, err := s.tokens.GenerateTokenPair(auth.TokenInput{
		OrgID:  user.OrgID,
		UserID: user.ID,
		Role:   user.Role.String(),
	})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, err
	}

	s.logger.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("org_id", user.OrgID.String()),
		zap.String("role", user.Role.String()),
	)
	return &LoginResult{TokenResult: toTokenResult(pair), User: toUserInfo(user)}, nil
}

// Refresh exchanges a refresh token for a new pair. The user must still be active.
func (s *AuthService) Refresh(ctx context.Context, input RefreshInput) (*TokenResult, error) {
	claims, err := s.tokens.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		return nil, shared.NewUnauthorizedError("invalid refresh token: %v", err)
	}
	if revoked, err := s.revoked.IsRevoked(ctx, claims.ID); err != nil {
		return nil, err
	} else if revoked {
		return nil, shared.NewUnauthorizedError("refresh token has been revoked")
	}

	userID, err := claims.UserUUID()
	if err != nil {
		return nil, shared.NewUnauthorizedError("invalid user id in token")
	}
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewUnauthorizedError("user no longer exists")
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.NewForbiddenError("account has been deactivated")
	}

	pair, err := s.tokens.GenerateTokenPair(auth.TokenInput{
		OrgID:  user.OrgID,
		UserID: user.ID,
		Role:   user.Role.String(),
	})
	if err != nil {
		return nil, err
	}
	// the old refresh token is single use
	if err := s.revoked.Revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		s.logger.Error("Failed to revoke used refresh token", zap.Error(err))
	}

	result := toTokenResult(pair)
	return &result, nil
}

// Logout revokes the caller's access token
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if err := s.revoked.Revoke(ctx, input.JTI, input.TTL); err != nil {
		return err
	}
	s.logger.Info("User logged out", zap.String("user_id", input.UserID.String()))
	return nil
}

// IsRevoked reports whether a token was revoked by Logout or Refresh
func (s *AuthService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return s.revoked.IsRevoked(ctx, jti)
}

// CurrentUser returns the caller's profile
func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewNotFoundError("user not found")
	}
	if err != nil {
		return nil, err
	}
	info := toUserInfo(user)
	return &info, nil
}

// CreateUser adds a user to an organization
func (s *AuthService) CreateUser(ctx context.Context, orgID uuid.UUID, input CreateUserInput) (*UserInfo, error) {
	user, err := identity.NewUser(orgID, input.Email, input.Name, input.Password, input.Role)
	if err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("org_id", orgID.String()),
		zap.String("role", user.Role.String()),
	)
	info := toUserInfo(user)
	return &info, nil
}

func toTokenResult(pair *auth.TokenPair) TokenResult {
	return TokenResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}
}
