package router

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appexpense "github.com/posterdash/backend/internal/application/expense"
	"github.com/posterdash/backend/internal/application/identity"
	apppos "github.com/posterdash/backend/internal/application/pos"
	apprecurring "github.com/posterdash/backend/internal/application/recurring"
	appsettlement "github.com/posterdash/backend/internal/application/settlement"
	"github.com/posterdash/backend/internal/domain/pos"
	"github.com/posterdash/backend/internal/domain/pos/posmock"
	"github.com/posterdash/backend/internal/infrastructure/auth"
	"github.com/posterdash/backend/internal/infrastructure/cache"
	"github.com/posterdash/backend/internal/infrastructure/config"
	"github.com/posterdash/backend/internal/infrastructure/persistence"
	"github.com/posterdash/backend/internal/infrastructure/persistence/models"
	"github.com/posterdash/backend/internal/infrastructure/scheduler"
	"github.com/posterdash/backend/internal/interfaces/http/dto"
	"github.com/posterdash/backend/internal/interfaces/http/handler"
	"github.com/posterdash/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const cronSecret = "cron-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping() error { return p.err }

type fakeJobs struct{}

func (fakeJobs) Jobs() []scheduler.JobState {
	return []scheduler.JobState{{Name: "recurring", Schedule: "daily at 09:00 UTC", Status: scheduler.JobStatusIdle}}
}

type testAPI struct {
	engine  *gin.Engine
	jwt     *auth.JWTService
	gateway *posmock.Gateway
	orgID   uuid.UUID
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	log := zap.NewNop()
	gw := new(posmock.Gateway)
	gateways := new(posmock.GatewayFactory)
	gateways.On("ForAccount", mock.Anything).Return(gw, nil)

	accounts := persistence.NewGormPosAccountRepository(db)
	closings := persistence.NewGormShiftClosingRepository(db)
	shiftData := persistence.NewGormCashierShiftDataRepository(db)
	recons := persistence.NewGormReconciliationRepository(db)
	templates := persistence.NewGormTemplateRepository(db)
	runLogs := persistence.NewGormRunLogRepository(db)
	drafts := persistence.NewGormDraftRepository(db)
	users := persistence.NewGormUserRepository(db)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "router-test-secret-at-least-32-ch",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "posterdash-test",
	})
	authService := identity.NewAuthService(users, jwtService, auth.NewMemoryRevocationList(), log)

	calendar := handler.NewCalendar(time.UTC, 6)
	runner := apprecurring.NewRunnerService(templates, runLogs, accounts, gateways, apprecurring.RunnerConfig{}, log)
	syncer := appexpense.NewSyncService(drafts, accounts, gateways, appexpense.SyncConfig{}, log)

	engine := New(Config{
		MaxBodySize: 1 << 20,
		JWT:         middleware.JWTMiddlewareConfig{JWTService: jwtService, Revocations: authService},
		CronSecret:  cronSecret,
		Logger:      log,
	}, Handlers{
		Auth: handler.NewAuthHandler(authService),
		Shift: handler.NewShiftHandler(
			appsettlement.NewCloseShiftService(closings, shiftData, accounts, gateways, log),
			appsettlement.NewShiftDataService(shiftData, log),
			appsettlement.NewReconciliationService(recons),
			calendar,
		),
		Templates:  handler.NewTemplateHandler(apprecurring.NewTemplateService(templates, accounts, gateways, log)),
		Expenses:   handler.NewExpenseHandler(appexpense.NewDraftService(drafts, accounts, gateways, log), syncer, calendar),
		PosAccount: handler.NewPosAccountHandler(apppos.NewAccountService(accounts, gateways, cache.NewMemoryReferenceCache(time.Minute), log)),
		Cron:       handler.NewCronHandler(runner, syncer),
		System:     handler.NewSystemHandler(fakePinger{}, fakeJobs{}, "test"),
	})

	return &testAPI{engine: engine, jwt: jwtService, gateway: gw, orgID: uuid.New()}
}

func (a *testAPI) token(t *testing.T, role string) string {
	t.Helper()
	pair, err := a.jwt.GenerateTokenPair(auth.TokenInput{OrgID: a.orgID, UserID: uuid.New(), Role: role})
	require.NoError(t, err)
	return pair.AccessToken
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var resp dto.Response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func dataOf[T any](t *testing.T, resp dto.Response) T {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	w, resp := api.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	health := dataOf[handler.HealthResponse](t, resp)
	assert.Equal(t, "ok", health.Status)
	require.Len(t, health.Jobs, 1)
	assert.Equal(t, "recurring", health.Jobs[0].Name)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestHealth_DatabaseDown(t *testing.T) {
	h := handler.NewSystemHandler(fakePinger{err: errors.New("connection refused")}, nil, "test")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	h.Health(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")
}

func TestAuthAndRoles(t *testing.T) {
	api := newTestAPI(t)

	w, resp := api.do(t, http.MethodGet, "/api/v1/expenses/drafts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error.Code)

	w, resp = api.do(t, http.MethodGet, "/api/v1/expenses/drafts", api.token(t, "CASHIER"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrCodeForbidden, resp.Error.Code)

	w, _ = api.do(t, http.MethodGet, "/api/v1/expenses/drafts?date=2024-03-10", api.token(t, "OWNER"), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp = api.do(t, http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, "OWNER")

	w, _ := api.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp := api.do(t, http.MethodGet, "/api/v1/recurring/templates", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenRevoked, resp.Error.Code)
}

func TestShiftDataByRole(t *testing.T) {
	api := newTestAPI(t)

	w, _ := api.do(t, http.MethodPost, "/api/v1/shift-data", api.token(t, "CASHIER"), map[string]any{
		"date":       "2024-03-10",
		"wolt":       1000,
		"kaspi":      2500,
		"kaspi_cafe": 999,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = api.do(t, http.MethodPost, "/api/v1/shift-data", api.token(t, "CAFE"), map[string]any{
		"date":       "2024-03-10",
		"wolt":       7777,
		"kaspi_cafe": 400,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, resp := api.do(t, http.MethodGet, "/api/v1/shift-data?date=2024-03-10", api.token(t, "OWNER"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := dataOf[map[string]any](t, resp)
	assert.Equal(t, "1000", data["wolt"])
	assert.Equal(t, "2500", data["kaspi"])
	assert.Equal(t, "400", data["kaspi_cafe"])

	w, resp = api.do(t, http.MethodPost, "/api/v1/shift-data", api.token(t, "OWNER"), map[string]any{"date": "2024-03-10"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
}

func TestReconciliation(t *testing.T) {
	api := newTestAPI(t)
	owner := api.token(t, "OWNER")

	w, _ := api.do(t, http.MethodPut, "/api/v1/reconciliation/kaspi", owner, map[string]any{
		"date":         "2024-03-10",
		"fact_balance": 120500,
		"notes":        "terminal z-report",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, resp := api.do(t, http.MethodGet, "/api/v1/reconciliation?date=2024-03-10", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := dataOf[[]map[string]any](t, resp)
	require.Len(t, entries, 3)
	for _, e := range entries {
		if e["source"] == "KASPI" {
			assert.Equal(t, "terminal z-report", e["notes"])
		}
	}

	w, resp = api.do(t, http.MethodPut, "/api/v1/reconciliation/bitcoin", owner, map[string]any{"date": "2024-03-10"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
}

func createPosAccount(t *testing.T, api *testAPI, owner string) map[string]any {
	t.Helper()
	w, resp := api.do(t, http.MethodPost, "/api/v1/pos-accounts", owner, map[string]any{
		"account_name": "Main hall",
		"base_url":     "https://joinposter.com/api/",
		"token":        "123:abc",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return dataOf[map[string]any](t, resp)
}

func TestPosAccounts(t *testing.T) {
	api := newTestAPI(t)
	owner := api.token(t, "OWNER")

	account := createPosAccount(t, api, owner)
	assert.Equal(t, true, account["is_primary"])
	assert.Equal(t, "https://joinposter.com/api", account["base_url"])
	assert.NotContains(t, account, "token")

	api.gateway.On("Accounts", mock.Anything).Return([]pos.FinanceAccount{{ID: 1, Name: "Cash"}}, nil).Once()
	w, resp := api.do(t, http.MethodPost, "/api/v1/pos-accounts/"+account["id"].(string)+"/verify", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, dataOf[[]pos.FinanceAccount](t, resp), 1)

	w, _ = api.do(t, http.MethodPost, "/api/v1/pos-accounts/not-a-uuid/verify", owner, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = api.do(t, http.MethodPost, "/api/v1/pos-accounts/"+uuid.NewString()+"/verify", owner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
}

func TestCloseShift_Errors(t *testing.T) {
	api := newTestAPI(t)
	owner := api.token(t, "OWNER")
	createPosAccount(t, api, owner)

	w, resp := api.do(t, http.MethodPost, "/api/v1/shift-closing", owner, map[string]any{"cashier_count": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)

	w, resp = api.do(t, http.MethodPost, "/api/v1/shift-closing", owner, map[string]any{"date": "2024-03-10", "cashier_count": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)

	api.gateway.On("GetClosedOrderTotals", mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()
	w, resp = api.do(t, http.MethodPost, "/api/v1/shift-closing", owner, map[string]any{"date": "2024-03-10", "cashier_count": 2})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, dto.ErrCodeGateway, resp.Error.Code)
}

func TestTemplates(t *testing.T) {
	api := newTestAPI(t)
	owner := api.token(t, "OWNER")

	w, resp := api.do(t, http.MethodPost, "/api/v1/recurring/templates", owner, map[string]any{"amount": 5000})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)

	w, resp = api.do(t, http.MethodPost, "/api/v1/recurring/templates", owner, map[string]any{
		"transaction_type": 0,
		"category_id":      7,
		"account_from_id":  4,
		"amount":           5000,
		"comment":          "Rent",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := dataOf[map[string]any](t, resp)
	assert.Equal(t, true, created["is_enabled"])

	w, resp = api.do(t, http.MethodPost, "/api/v1/recurring/templates/"+created["id"].(string)+"/toggle", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, dataOf[map[string]any](t, resp)["is_enabled"])

	w, _ = api.do(t, http.MethodDelete, "/api/v1/recurring/templates/"+created["id"].(string), owner, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = api.do(t, http.MethodGet, "/api/v1/recurring/templates", owner, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDrafts_CreateAndProcess(t *testing.T) {
	api := newTestAPI(t)
	owner := api.token(t, "OWNER")
	createPosAccount(t, api, owner)

	w, resp := api.do(t, http.MethodPost, "/api/v1/expenses/drafts", owner, map[string]any{
		"date":        "2024-03-10",
		"amount":      1500,
		"description": "Bread",
		"source":      "cash",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	draft := dataOf[map[string]any](t, resp)
	assert.Equal(t, "CASH", draft["source"])

	w, resp = api.do(t, http.MethodGet, "/api/v1/expenses/drafts?date=2024-03-10", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, dataOf[[]map[string]any](t, resp), 1)

	api.gateway.On("Accounts", mock.Anything).Return([]pos.FinanceAccount{{ID: 4, Name: "Наличные"}}, nil).Maybe()
	api.gateway.On("Categories", mock.Anything).Return([]pos.Category{}, nil).Maybe()
	api.gateway.On("CreateTransaction", mock.Anything, mock.Anything).Return("900", nil).Once()

	w, resp = api.do(t, http.MethodPost, "/api/v1/expenses/process", owner, map[string]any{
		"draft_ids": []string{draft["id"].(string)},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := dataOf[appexpense.ProcessReport](t, resp)
	assert.Equal(t, 1, report.Created)

	w, resp = api.do(t, http.MethodPost, "/api/v1/expenses/process", owner, map[string]any{"draft_ids": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
}

func TestCron(t *testing.T) {
	api := newTestAPI(t)

	w, _ := api.do(t, http.MethodPost, "/cron/recurring", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = api.do(t, http.MethodPost, "/cron/recurring", api.token(t, "OWNER"), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "a user token is not the cron secret")

	w, resp := api.do(t, http.MethodPost, "/cron/recurring", cronSecret, nil)
	require.Equal(t, http.StatusOK, w.Code)
	report := dataOf[apprecurring.RunReport](t, resp)
	assert.Empty(t, report.Orgs)

	w, _ = api.do(t, http.MethodPost, "/cron/expenses-sync", cronSecret, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
