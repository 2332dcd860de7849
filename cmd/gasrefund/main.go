package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/choppy227/paraswap-volume-tracker/internal/alert"
	"github.com/choppy227/paraswap-volume-tracker/internal/budget"
	"github.com/choppy227/paraswap-volume-tracker/internal/chainclient"
	"github.com/choppy227/paraswap-volume-tracker/internal/config"
	"github.com/choppy227/paraswap-volume-tracker/internal/domain/model"
	"github.com/choppy227/paraswap-volume-tracker/internal/ingestion"
	"github.com/choppy227/paraswap-volume-tracker/internal/orchestrator"
	"github.com/choppy227/paraswap-volume-tracker/internal/revalidation"
	"github.com/choppy227/paraswap-volume-tracker/internal/stake"
	"github.com/choppy227/paraswap-volume-tracker/internal/store/postgres"
	"github.com/choppy227/paraswap-volume-tracker/internal/store/redislock"
	"github.com/choppy227/paraswap-volume-tracker/internal/tier"
	"github.com/choppy227/paraswap-volume-tracker/internal/tracing"
)

func main() {
	migrate := flag.Bool("migrate", false, "Run DB migrations before starting the engine")
	flag.Parse()

	logLevel := slog.LevelInfo
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	switch cfg.Log.Level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	logger.Info("starting gas-refund-engine",
		"chains", len(cfg.Chains.Supported),
		"genesis_epoch", cfg.Epochs.Genesis,
		"sm_start_epoch", cfg.Epochs.SMStartEpoch,
	)

	shutdownTracing, err := tracing.Init(context.Background(), cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.Insecure)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown error", "error", err)
		}
	}()

	db, err := postgres.New(postgres.Config{
		URL:             cfg.DB.URL,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	if *migrate {
		logger.Info("running database migrations")
		if err := db.RunMigrations("internal/store/postgres/migrations"); err != nil {
			logger.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations completed")
	}

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to redis")

	txRepo := postgres.NewTransactionRepo(db)
	distRepo := postgres.NewDistributionRepo(db)
	partRepo := postgres.NewParticipationRepo(db)
	blacklistRepo := postgres.NewReorgBlacklistRepo(db)

	var alerters []alert.Alerter
	if cfg.Alert.WebhookURL != "" {
		alerters = append(alerters, alert.NewWebhookAlerter(cfg.Alert.WebhookURL))
	}
	alerter := alert.NewMultiAlerter(cfg.Alert.Cooldown, logger, alerters...)

	subgraphEndpoints := toChainEndpoints(cfg.Collab.SubgraphBaseURLByChain)
	explorerEndpoints := toChainEndpoints(cfg.Collab.ExplorerBaseURLByChain)

	subgraphClient := chainclient.NewHTTPSubgraphClient(subgraphEndpoints, cfg.Collab.HTTPTimeout, cfg.Collab.RateLimitRPS, cfg.Collab.RateLimitBurst, logger)
	explorerClient := chainclient.NewHTTPExplorerClient(explorerEndpoints, cfg.Collab.HTTPTimeout, cfg.Collab.RateLimitRPS, cfg.Collab.RateLimitBurst, logger)
	blockInfoClient := chainclient.NewHTTPBlockInfoClient(explorerEndpoints, cfg.Collab.HTTPTimeout, cfg.Collab.RateLimitRPS, cfg.Collab.RateLimitBurst, logger)
	priceClient := chainclient.NewHTTPPriceOracleClient(cfg.Collab.PriceOracleBaseURL, cfg.Collab.HTTPTimeout, cfg.Collab.RateLimitRPS, cfg.Collab.RateLimitBurst, logger)
	spspClient := chainclient.NewHTTPStakeSourceClient(cfg.Collab.SPSPSourceBaseURL, cfg.Collab.HTTPTimeout, cfg.Collab.RateLimitRPS, cfg.Collab.RateLimitBurst, logger)
	smClient := chainclient.NewHTTPStakeSourceClient(cfg.Collab.SMSourceBaseURL, cfg.Collab.HTTPTimeout, cfg.Collab.RateLimitRPS, cfg.Collab.RateLimitBurst, logger)

	stakeAgg := stake.NewPreloadingAggregator(
		stake.NewHTTPSource(spspClient),
		stake.NewHTTPSource(smClient),
		cfg.Epochs.SMStartEpoch,
	)

	chains := make([]model.ChainID, 0, len(cfg.Chains.Supported))
	for _, c := range cfg.Chains.Supported {
		chains = append(chains, model.ChainID(c))
	}

	ingestionCfg := ingestion.Config{
		TxOriginCheckEpoch:   cfg.Epochs.TxOriginCheckEpoch,
		DedupEpoch:           cfg.Epochs.DedupEpoch,
		ContractTxsEpoch:     cfg.Epochs.ContractTxsEpoch,
		PrecisionGlitchEpoch: cfg.Epochs.PrecisionGlitchEpoch,
		GasLookupWorkers:     cfg.Pipeline.GasLookupWorkers,
	}
	revalidationCfg := revalidation.Config{
		Genesis:              cfg.Epochs.Genesis,
		EpochBudgetEpoch:     cfg.Epochs.EpochBudgetEpoch,
		PrecisionGlitchEpoch: cfg.Epochs.PrecisionGlitchEpoch,
	}

	// BudgetState is global, not chain-scoped (spec.md §3), so every
	// chain's driver and the single re-validation pass share one
	// Guardian instance.
	guardian := budget.New(cfg.Epochs.Genesis, cfg.Epochs.EpochBudgetEpoch, budget.NewStoreTotalsLoader(txRepo))

	drivers := make(map[model.ChainID]orchestrator.ChainDriver, len(chains))
	for _, chainID := range chains {
		drivers[chainID] = ingestion.New(
			ingestionCfg, subgraphClient, explorerClient, blockInfoClient, priceClient,
			blacklistRepo, txRepo, stakeAgg, guardian, logger,
		)
	}
	pass := revalidation.New(revalidationCfg, txRepo, guardian, tier.Resolve)

	locker := redislock.NewLocker(redisClient, 10*time.Minute)
	orch := orchestrator.New(
		orchestrator.Config{
			Genesis:          cfg.Epochs.Genesis,
			GenesisTimestamp: cfg.Epochs.GenesisTimestamp,
			LockTTL:          10 * time.Minute,
			LockPollInterval: 2 * time.Second,
			RoundInterval:    5 * time.Minute,
		},
		chains,
		orchestrator.RedisLocker{Inner: locker},
		drivers,
		pass,
		txRepo,
		distRepo,
		partRepo,
		db,
		alerter,
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	healthDone := make(chan error, 1)
	go func() {
		healthDone <- runHealthServer(ctx, cfg.Server.HealthPort, logger)
	}()

	orchDone := make(chan error, 1)
	go func() {
		orchDone <- orch.Run(ctx)
	}()

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	case err := <-orchDone:
		if err != nil {
			logger.Error("orchestrator round exited with error", "error", err)
		}
		cancel()
	}

	if err := <-healthDone; err != nil && err != http.ErrServerClosed {
		logger.Warn("health server shutdown error", "error", err)
	}

	logger.Info("gas-refund-engine shut down")
}

func toChainEndpoints(byChain map[int64]string) chainclient.ChainEndpoints {
	out := make(chainclient.ChainEndpoints, len(byChain))
	for chainID, url := range byChain {
		if url == "" {
			continue
		}
		out[model.ChainID(chainID)] = url
	}
	return out
}

func runHealthServer(ctx context.Context, port int, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			logger.Warn("failed to write health response", "error", err)
		}
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
			logger.Warn("health server shutdown error", "error", err)
		}
	}()

	logger.Info("health server started", "port", port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("health server: %w", err)
	}
	return nil
}
