// Package app assembles and runs the service.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tradeperk/rebate-engine/internal/bridge"
	"github.com/tradeperk/rebate-engine/internal/config"
	"github.com/tradeperk/rebate-engine/internal/handler"
	"github.com/tradeperk/rebate-engine/internal/repository"
	"github.com/tradeperk/rebate-engine/internal/router"
	"github.com/tradeperk/rebate-engine/internal/service"
	"github.com/tradeperk/rebate-engine/internal/worker"
	"github.com/tradeperk/rebate-engine/pkg/logger"
)

// App is the assembled service.
type App struct {
	cfg    *config.Config
	server *http.Server
	worker *worker.SettlementWorker
	redis  *redis.Client
}

// New wires configuration, storage, services and the HTTP surface.
func New(cfg *config.Config) (*App, error) {
	if err := logger.Init(&cfg.Log); err != nil {
		return nil, err
	}

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	if err := SeedDefaults(context.Background(), db); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	users := repository.NewUserRepository(db)
	exchanges := repository.NewExchangeRepository(db)
	bindings := repository.NewBindingRepository(db)
	reports := repository.NewReportRepository(db)
	settlements := repository.NewSettlementRepository(db)
	logs := repository.NewTransactionLogRepository(db)
	withdrawals := repository.NewWithdrawalRepository(db)
	vipConfigs := repository.NewVipConfigRepository(db)
	systemConfigs := repository.NewSystemConfigRepository(db)
	nonces := repository.NewNonceRepository(db)

	configSvc := service.NewConfigService(systemConfigs, cfg)
	bridgeClient := bridge.NewClient(configSvc)
	vipSvc := service.NewVipService(users, vipConfigs)
	ledgerSvc := service.NewLedgerService(users, logs)
	notifySvc := service.NewNotifyService(cfg.Telegram)
	rebateSvc := service.NewRebateService(vipSvc, settlements, configSvc)
	bindingSvc := service.NewBindingService(users, exchanges, bindings, bridgeClient, configSvc)
	settlementSvc := service.NewSettlementService(settlements, users, ledgerSvc, cfg.Worker.BatchSize)
	importSvc := service.NewImportService(users, exchanges, bindings, reports, rebateSvc, bridgeClient)
	checkInSvc := service.NewCheckInService(users, ledgerSvc, vipSvc, configSvc)
	withdrawalSvc := service.NewWithdrawalService(users, withdrawals, ledgerSvc, configSvc, notifySvc)
	userSvc := service.NewUserService(users, ledgerSvc, vipSvc)
	communitySvc := service.NewCommunityService(bindings, reports, configSvc)
	statsSvc := service.NewStatsService(users, reports, bindings, withdrawals, settlements, logs)

	handlers := router.Handlers{
		User:       handler.NewUserHandler(statsSvc, checkInSvc, communitySvc, ledgerSvc),
		Binding:    handler.NewBindingHandler(bindingSvc),
		Withdrawal: handler.NewWithdrawalHandler(withdrawalSvc),
		Admin:      handler.NewAdminHandler(importSvc, settlementSvc, userSvc, statsSvc, configSvc, vipSvc),
	}
	engine := router.New(cfg, handlers, nonces)

	settlementWorker := worker.NewSettlementWorker(
		rdb, settlementSvc, cfg.Worker.SettlementCron,
		time.Duration(cfg.Worker.LockTTL)*time.Second,
	)

	return &App{
		cfg: cfg,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		worker: settlementWorker,
		redis:  rdb,
	}, nil
}

// Run starts the worker and serves HTTP until the server stops.
func (a *App) Run() error {
	if err := a.worker.Start(); err != nil {
		return err
	}
	logger.Info("server listening", zap.String("addr", a.server.Addr))
	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the worker and drains in-flight requests.
func (a *App) Shutdown(ctx context.Context) error {
	a.worker.Stop()
	err := a.server.Shutdown(ctx)
	if cerr := a.redis.Close(); err == nil {
		err = cerr
	}
	logger.Sync()
	return err
}

func openDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database failed: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	return db, nil
}
