package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/infrastructure/auth"
	"github.com/posterdash/backend/internal/infrastructure/config"
	"github.com/posterdash/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService(accessTTL time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  accessTTL,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "posterdash-test",
	})
}

type stubRevocations struct {
	revoked map[string]bool
	err     error
}

func (s stubRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	return s.revoked[jti], s.err
}

func newProtectedRouter(cfg JWTMiddlewareConfig, roles ...string) *gin.Engine {
	router := gin.New()
	router.Use(RequestID())
	group := router.Group("/", JWTAuthMiddleware(cfg))
	if len(roles) > 0 {
		group.Use(RequireRole(roles...))
	}
	group.GET("/me", func(c *gin.Context) {
		orgID, ok := GetJWTOrgID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"org_id": orgID.String(), "role": GetJWTRole(c)})
	})
	return router
}

func call(router *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	orgID := uuid.New()
	pair, err := svc.GenerateTokenPair(auth.TokenInput{OrgID: orgID, UserID: uuid.New(), Role: "OWNER"})
	require.NoError(t, err)

	w := call(newProtectedRouter(JWTMiddlewareConfig{JWTService: svc}), pair.AccessToken)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"org_id":"`+orgID.String()+`","role":"OWNER"}`, w.Body.String())
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	pair, err := svc.GenerateTokenPair(auth.TokenInput{OrgID: uuid.New(), UserID: uuid.New(), Role: "OWNER"})
	require.NoError(t, err)

	expired, err := newTestJWTService(-time.Minute).GenerateTokenPair(auth.TokenInput{OrgID: uuid.New(), UserID: uuid.New(), Role: "OWNER"})
	require.NoError(t, err)

	router := newProtectedRouter(JWTMiddlewareConfig{JWTService: svc})

	tests := []struct {
		name  string
		token string
		code  string
	}{
		{"missing header", "", dto.ErrCodeUnauthorized},
		{"garbage", "not-a-jwt", dto.ErrCodeTokenInvalid},
		{"refresh token", pair.RefreshToken, dto.ErrCodeTokenInvalid},
		{"expired", expired.AccessToken, dto.ErrCodeTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(router, tt.token)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestJWTAuthMiddleware_Revocation(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	pair, err := svc.GenerateTokenPair(auth.TokenInput{OrgID: uuid.New(), UserID: uuid.New(), Role: "OWNER"})
	require.NoError(t, err)
	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	t.Run("revoked token is rejected", func(t *testing.T) {
		router := newProtectedRouter(JWTMiddlewareConfig{
			JWTService:  svc,
			Revocations: stubRevocations{revoked: map[string]bool{claims.ID: true}},
		})
		w := call(router, pair.AccessToken)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenRevoked, errorCode(t, w))
	})

	t.Run("store failure fails open", func(t *testing.T) {
		router := newProtectedRouter(JWTMiddlewareConfig{
			JWTService:  svc,
			Revocations: stubRevocations{err: errors.New("redis down")},
		})
		assert.Equal(t, http.StatusOK, call(router, pair.AccessToken).Code)
	})
}

func TestRequireRole(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	router := newProtectedRouter(JWTMiddlewareConfig{JWTService: svc}, "OWNER")

	owner, err := svc.GenerateTokenPair(auth.TokenInput{OrgID: uuid.New(), UserID: uuid.New(), Role: "OWNER"})
	require.NoError(t, err)
	cashier, err := svc.GenerateTokenPair(auth.TokenInput{OrgID: uuid.New(), UserID: uuid.New(), Role: "CASHIER"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, call(router, owner.AccessToken).Code)

	w := call(router, cashier.AccessToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrCodeForbidden, errorCode(t, w))
}
