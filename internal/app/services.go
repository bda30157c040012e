package app

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/gestao-municipal/gestao/internal/amendments"
	"github.com/gestao-municipal/gestao/internal/contracts"
	"github.com/gestao-municipal/gestao/internal/notifications"
	"github.com/gestao-municipal/gestao/internal/shared"
)

// Services bundles the domain services shared by the server and the worker.
type Services struct {
	Contracts  *contracts.Service
	Amendments *amendments.Service
	Settings   *notifications.SettingsService
	SettingsDB *notifications.SettingsRepository
	Log        *notifications.Log
}

// NewServices wires repositories, cache and audit into the domain services.
// A nil redis client disables the summary cache.
func NewServices(cfg *Config, pool *pgxpool.Pool, redisClient *redis.Client, logger *slog.Logger) *Services {
	audit := shared.NewAuditLogger(pool)
	amendmentRepo := amendments.NewRepository(pool)
	contractRepo := contracts.NewRepository(pool)

	summaryCache := contracts.NewCache(redisClient, cfg.CacheTTL)
	engine := contracts.NewEngine(cfg.Policy(), cfg.Clock(), cfg.WarningDays)
	contractService := contracts.NewService(contractRepo, amendmentRepo, engine, summaryCache, audit, logger)
	amendmentService := amendments.NewService(amendmentRepo, contractService, audit, contractService, logger)

	settingsRepo := notifications.NewSettingsRepository(pool)

	return &Services{
		Contracts:  contractService,
		Amendments: amendmentService,
		Settings:   notifications.NewSettingsService(settingsRepo),
		SettingsDB: settingsRepo,
		Log:        notifications.NewLog(pool),
	}
}
