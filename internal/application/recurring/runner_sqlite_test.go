package recurring

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/pos"
	"github.com/posterdash/backend/internal/domain/pos/posmock"
	"github.com/posterdash/backend/internal/domain/recurring"
	"github.com/posterdash/backend/internal/infrastructure/persistence"
	"github.com/posterdash/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func sqliteRunLogs(t *testing.T) *persistence.GormRunLogRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// every connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return persistence.NewGormRunLogRepository(db)
}

func TestRunRecurringTransactions_SecondRunSameDaySkips(t *testing.T) {
	templates := new(MockTemplateRepository)
	accounts := new(posmock.AccountRepository)
	factory := new(posmock.GatewayFactory)
	gw := new(posmock.Gateway)
	runLogs := sqliteRunLogs(t)
	orgID := uuid.New()
	asOf := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	templates.On("ListActive", mock.Anything).Return([]recurring.Template{
		expenseTemplate(t, orgID, "", "Аренда", 20000),
	}, nil)
	accounts.On("ListByOrg", mock.Anything, orgID).Return([]pos.Account{posAccount(t, orgID, "Main", true)}, nil)
	factory.On("ForAccount", mock.Anything).Return(gw, nil)
	gw.On("CreateTransaction", mock.Anything, mock.Anything).Return("77", nil)

	svc := NewRunnerService(templates, runLogs, accounts, factory, RunnerConfig{Location: time.UTC, CutoverHour: 6}, zap.NewNop())

	first, err := svc.RunRecurringTransactions(context.Background(), asOf)
	require.NoError(t, err)
	require.Len(t, first.Orgs, 1)
	assert.Equal(t, OrgSuccess, first.Orgs[0].Status)
	assert.Equal(t, 1, first.Orgs[0].Posted)

	// an hour later is the same business day
	second, err := svc.RunRecurringTransactions(context.Background(), asOf.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, second.Orgs, 1)
	assert.Equal(t, OrgSkipped, second.Orgs[0].Status)
	assert.Equal(t, DetailAlreadyExecuted, second.Orgs[0].Detail)
	assert.Zero(t, second.Orgs[0].Posted)

	gw.AssertNumberOfCalls(t, "CreateTransaction", 1)

	log, err := runLogs.FindByDay(context.Background(), orgID, first.Date)
	require.NoError(t, err)
	assert.Equal(t, recurring.RunStatusCompleted, log.Status)
	assert.Equal(t, 1, log.Count)
}

func TestRunRecurringTransactions_InterruptedClaimReported(t *testing.T) {
	templates := new(MockTemplateRepository)
	factory := new(posmock.GatewayFactory)
	runLogs := sqliteRunLogs(t)
	orgID := uuid.New()
	asOf := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	templates.On("ListActive", mock.Anything).Return([]recurring.Template{
		expenseTemplate(t, orgID, "", "Аренда", 20000),
	}, nil)

	// a process that died after claiming never completes or releases
	_, err := runLogs.Claim(context.Background(), orgID, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	svc := NewRunnerService(templates, runLogs, new(posmock.AccountRepository), factory, RunnerConfig{Location: time.UTC, CutoverHour: 6}, zap.NewNop())
	report, err := svc.RunRecurringTransactions(context.Background(), asOf)
	require.NoError(t, err)
	require.Len(t, report.Orgs, 1)
	assert.Equal(t, OrgSkipped, report.Orgs[0].Status)
	assert.Equal(t, DetailClaimRunning, report.Orgs[0].Detail)
	factory.AssertNotCalled(t, "ForAccount", mock.Anything)
}
