package main

import (
	"os"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-dispatch/internal/advisory"
	"github.com/rxtech-lab/argo-dispatch/internal/backend"
	"github.com/rxtech-lab/argo-dispatch/internal/config"
	"github.com/rxtech-lab/argo-dispatch/internal/executor"
	"github.com/rxtech-lab/argo-dispatch/internal/history"
	"github.com/rxtech-lab/argo-dispatch/internal/logger"
	"github.com/rxtech-lab/argo-dispatch/internal/marketcache"
	"github.com/rxtech-lab/argo-dispatch/internal/ratelimit"
	"github.com/rxtech-lab/argo-dispatch/internal/risk"
	"github.com/rxtech-lab/argo-dispatch/internal/types"
	"github.com/rxtech-lab/argo-dispatch/internal/wallet"
	"go.uber.org/zap"
)

// app holds the components wired from one configuration.
type app struct {
	config   config.Config
	logger   *logger.Logger
	cache    *marketcache.Cache
	risk     *risk.Manager
	pool     *backend.Pool
	store    *history.Store
	executor *executor.Executor
	// started is set once the executor owns the pool and closes it on Stop.
	started bool
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		cfg := config.Default()
		cfg.ApplyEnv()

		return cfg, cfg.Validate()
	}

	return config.Load(path)
}

func newLogger(cfg config.Config, override string) (*logger.Logger, error) {
	level := cfg.LogLevel
	if override != "" {
		level = override
	}

	return logger.NewLoggerWithLevel(level)
}

// newAssessApp wires only the risk side, enough to assess proposals offline.
func newAssessApp(cfg config.Config, log *logger.Logger) *app {
	cache := marketcache.NewCache(cfg.Cache.DefaultTTL)

	return &app{
		config: cfg,
		logger: log,
		cache:  cache,
		risk:   risk.NewManager(cfg.Risk, cache, ratelimit.NewLimiter(), log),
	}
}

// newExecuteApp wires the full dispatch path: backend pool, wallet, history store, optional AI
// validator and the executor.
func newExecuteApp(cfg config.Config, log *logger.Logger) (*app, error) {
	a := newAssessApp(cfg, log)

	factory, err := backend.NewFactory(cfg.Backend, log)
	if err != nil {
		return nil, err
	}

	a.pool = backend.NewPool(cfg.Backend, factory, log)
	if err := a.pool.Initialize(cfg.Backend.Addresses); err != nil {
		return nil, err
	}

	deps := executor.Dependencies{
		Wallet:  newWallet(cfg),
		Backend: a.pool,
		Risk:    a.risk,
		Cache:   a.cache,
		Logger:  log,
	}

	if cfg.History.Enabled {
		a.store, err = history.NewStore(cfg.History.OutputPath, log)
		if err != nil {
			_ = a.pool.Close()

			return nil, err
		}

		deps.History = a.store
	}

	if cfg.Advisory.Enabled {
		deps.Validator = advisory.NewHTTPValidator(cfg.Advisory.HTTP, log)
	}

	a.executor, err = executor.NewExecutor(cfg.Executor, deps)
	if err != nil {
		a.close()

		return nil, err
	}

	return a, nil
}

func newWallet(cfg config.Config) wallet.Wallet {
	if cfg.Wallet.Provider == config.WalletBinance {
		return wallet.NewBinanceWallet(
			cfg.Backend.Binance.ApiKey,
			cfg.Backend.Binance.SecretKey,
			cfg.Wallet.Asset,
			cfg.Wallet.BaseURL,
			cfg.Wallet.Testnet || cfg.Backend.Provider == backend.ProviderBinancePaper,
		)
	}

	return wallet.NewStaticWallet(cfg.Wallet.PublicKey, cfg.Wallet.Balance)
}

// loadProposal reads a proposal file and seeds the cache with the snapshot it carries.
func (a *app) loadProposal(path string) (types.TradeProposal, optional.Option[types.MarketSnapshot], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.TradeProposal{}, optional.None[types.MarketSnapshot](), err
	}

	proposal, snapshot, err := types.ParseProposalFile(data)
	if err != nil {
		return types.TradeProposal{}, optional.None[types.MarketSnapshot](), err
	}

	if snapshot.IsSome() {
		s := snapshot.Unwrap()
		if s.Timestamp.IsZero() {
			s.Timestamp = time.Now()
		}

		if s.Source == "" {
			s.Source = types.SnapshotSourceLive
		}

		a.cache.Put(s.Symbol, s, 0)
		snapshot = optional.Some(s)
	}

	return proposal, snapshot, nil
}

func (a *app) close() {
	if a.pool != nil && !a.started {
		if err := a.pool.Close(); err != nil {
			a.logger.Warn("Failed to close backend pool", zap.Error(err))
		}
	}

	if a.store != nil {
		if err := a.store.Flush(); err != nil {
			a.logger.Error("Failed to flush trade history", zap.Error(err))
		}

		if err := a.store.Close(); err != nil {
			a.logger.Warn("Failed to close trade history", zap.Error(err))
		}
	}

	_ = a.logger.Sync()
}
