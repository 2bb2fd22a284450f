package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appexpense "github.com/posterdash/backend/internal/application/expense"
	identityapp "github.com/posterdash/backend/internal/application/identity"
	apppos "github.com/posterdash/backend/internal/application/pos"
	apprecurring "github.com/posterdash/backend/internal/application/recurring"
	appsettlement "github.com/posterdash/backend/internal/application/settlement"
	"github.com/posterdash/backend/internal/infrastructure/auth"
	"github.com/posterdash/backend/internal/infrastructure/cache"
	"github.com/posterdash/backend/internal/infrastructure/config"
	"github.com/posterdash/backend/internal/infrastructure/logger"
	"github.com/posterdash/backend/internal/infrastructure/persistence"
	"github.com/posterdash/backend/internal/infrastructure/poster"
	"github.com/posterdash/backend/internal/infrastructure/scheduler"
	"github.com/posterdash/backend/internal/infrastructure/telemetry"
	"github.com/posterdash/backend/internal/interfaces/http/handler"
	"github.com/posterdash/backend/internal/interfaces/http/middleware"
	"github.com/posterdash/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	tel, err := telemetry.Setup(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		ServiceName:       cfg.App.Name,
		ServiceVersion:    version,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		Logs:              cfg.Telemetry.Logs,
		Profiling: telemetry.ProfilerConfig{
			Enabled:           cfg.Telemetry.ProfilingEnabled,
			ServerAddress:     cfg.Telemetry.ProfilingServer,
			BasicAuthUser:     cfg.Telemetry.ProfilingUser,
			BasicAuthPassword: cfg.Telemetry.ProfilingPassword,
		},
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := tel.Shutdown(ctx); err != nil {
			log.Warn("Telemetry did not shut down cleanly", zap.Error(err))
		}
	}()
	if level, err := zapcore.ParseLevel(cfg.Log.Level); err == nil {
		log = tel.Logs.Bridge(log, level)
	}

	log.Info("Starting posterdash",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	loc, err := cfg.App.Location()
	if err != nil {
		log.Fatal("Invalid timezone", zap.String("timezone", cfg.App.Timezone), zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database, log, cfg.Log.Level)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	if cfg.Telemetry.Enabled {
		if err := telemetry.InstrumentDB(db.DB, cfg.Database.DBName); err != nil {
			log.Fatal("Failed to instrument database", zap.Error(err))
		}
		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatal("Failed to access connection pool", zap.Error(err))
		}
		if err := telemetry.RegisterPoolMetrics(tel.Meter.Provider(), sqlDB); err != nil {
			log.Warn("Failed to register pool metrics", zap.Error(err))
		}
	}

	refCache, err := cache.NewReferenceCache(cfg.Cache, cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to initialize reference cache", zap.Error(err))
	}
	defer func() {
		if err := refCache.Close(); err != nil {
			log.Warn("Error closing reference cache", zap.Error(err))
		}
	}()

	revocations, err := auth.NewRevocationList(cfg.Cache, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to initialize token revocation list", zap.Error(err))
	}

	gateways := poster.NewFactory(cfg.Poster.Timeout, cfg.Poster.MaxResponseBytes, loc, refCache, log)
	if cfg.Telemetry.Enabled {
		instruments, err := telemetry.NewGatewayInstruments(tel.Tracer.Provider(), tel.Meter.Provider())
		if err != nil {
			log.Fatal("Failed to create POS instruments", zap.Error(err))
		}
		gateways.Instrument(instruments.Wrap)
	}

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	accountRepo := persistence.NewGormPosAccountRepository(db.DB)
	closingRepo := persistence.NewGormShiftClosingRepository(db.DB)
	shiftDataRepo := persistence.NewGormCashierShiftDataRepository(db.DB)
	reconRepo := persistence.NewGormReconciliationRepository(db.DB)
	templateRepo := persistence.NewGormTemplateRepository(db.DB)
	runLogRepo := persistence.NewGormRunLogRepository(db.DB)
	draftRepo := persistence.NewGormDraftRepository(db.DB)

	// Services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, revocations, log)
	accountService := apppos.NewAccountService(accountRepo, gateways, refCache, log)
	closeShiftService := appsettlement.NewCloseShiftService(closingRepo, shiftDataRepo, accountRepo, gateways, log)
	shiftDataService := appsettlement.NewShiftDataService(shiftDataRepo, log)
	reconService := appsettlement.NewReconciliationService(reconRepo)
	templateService := apprecurring.NewTemplateService(templateRepo, accountRepo, gateways, log)
	runner := apprecurring.NewRunnerService(templateRepo, runLogRepo, accountRepo, gateways, apprecurring.RunnerConfig{
		Workers:     cfg.Scheduler.Workers,
		Location:    loc,
		CutoverHour: cfg.Scheduler.CutoverHour,
	}, log)
	draftService := appexpense.NewDraftService(draftRepo, accountRepo, gateways, log)
	syncService := appexpense.NewSyncService(draftRepo, accountRepo, gateways, appexpense.SyncConfig{
		Workers:     cfg.Scheduler.Workers,
		Location:    loc,
		CutoverHour: cfg.Scheduler.CutoverHour,
	}, log)

	// Background jobs
	var jobs handler.JobLister
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = newScheduler(cfg, loc, runner, syncService, log)
		if err != nil {
			log.Fatal("Failed to configure scheduler", zap.Error(err))
		}
		if err := sched.Start(context.Background()); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		jobs = sched
	} else {
		log.Info("Scheduler disabled; jobs run only through /cron")
	}

	calendar := handler.NewCalendar(loc, cfg.Scheduler.CutoverHour)
	engine := router.New(router.Config{
		CORS: middleware.CORSConfig{
			AllowOrigins: cfg.HTTP.CORSAllowOrigins,
			AllowMethods: cfg.HTTP.CORSAllowMethods,
			AllowHeaders: cfg.HTTP.CORSAllowHeaders,
			MaxAge:       middleware.DefaultCORSConfig().MaxAge,
		},
		MaxBodySize: cfg.HTTP.MaxBodySize,
		JWT: middleware.JWTMiddlewareConfig{
			JWTService:  jwtService,
			Revocations: authService,
			Logger:      log,
		},
		CronSecret:  cfg.Cron.Secret,
		LoginLimit:  cfg.HTTP.LoginRateLimit,
		LoginWindow: cfg.HTTP.LoginRateWindow,
		Tracing: middleware.TracingConfig{
			Enabled:     cfg.Telemetry.Enabled,
			ServiceName: cfg.App.Name,
		},
		Logger: log,
	}, router.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Shift:      handler.NewShiftHandler(closeShiftService, shiftDataService, reconService, calendar),
		Templates:  handler.NewTemplateHandler(templateService),
		Expenses:   handler.NewExpenseHandler(draftService, syncService, calendar),
		PosAccount: handler.NewPosAccountHandler(accountService),
		Cron:       handler.NewCronHandler(runner, syncService),
		System:     handler.NewSystemHandler(db, jobs, version),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if sched != nil {
		if err := sched.Stop(ctx); err != nil {
			log.Warn("Scheduler did not stop cleanly", zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}

// newScheduler registers the daily recurring run and the periodic draft sync
func newScheduler(
	cfg *config.Config,
	loc *time.Location,
	runner *apprecurring.RunnerService,
	syncer *appexpense.SyncService,
	log *zap.Logger,
) (*scheduler.Scheduler, error) {
	sched := scheduler.New(scheduler.Config{
		CheckInterval: time.Minute,
		JobTimeout:    cfg.Scheduler.JobTimeout,
	}, log)

	daily, err := scheduler.Daily(cfg.Scheduler.RecurringHour, cfg.Scheduler.RecurringMinute, loc)
	if err != nil {
		return nil, err
	}
	sched.Register("recurring-transactions", daily, func(ctx context.Context, now time.Time) error {
		_, err := runner.RunRecurringTransactions(ctx, now)
		return err
	})

	interval, err := scheduler.Every(cfg.Scheduler.SyncInterval)
	if err != nil {
		return nil, err
	}
	sched.Register("expense-sync", interval, func(ctx context.Context, _ time.Time) error {
		results, err := syncer.SyncAll(ctx)
		if err != nil {
			return err
		}
		failed := 0
		for _, r := range results {
			if r.Error != "" {
				failed++
			}
		}
		if failed > 0 {
			log.Warn("expense sync failed for some organizations",
				zap.Int("failed", failed),
				zap.Int("orgs", len(results)),
			)
		}
		return nil
	})

	return sched, nil
}
