// Package config loads gas-refund service configuration from the
// environment, following the teacher's flat-struct-plus-getEnv style.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DB         DBConfig
	Redis      RedisConfig
	Chains     ChainsConfig
	Collab     CollabConfig
	Pipeline   PipelineConfig
	Epochs     EpochGates
	Server     ServerConfig
	Log        LogConfig
	Alert      AlertConfig
	Tracing    TracingConfig
}

type DBConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// ChainsConfig lists the closed set of supported chain IDs (spec.md §6).
type ChainsConfig struct {
	Supported []int64
}

// CollabConfig holds base URLs and timeouts for the external
// collaborators described in spec.md §6. The core only depends on
// their interface contracts (internal/chainclient); these settings
// configure the concrete HTTP adapters.
type CollabConfig struct {
	SubgraphBaseURLByChain map[int64]string
	ExplorerBaseURLByChain map[int64]string
	PriceOracleBaseURL     string
	SPSPSourceBaseURL      string
	SMSourceBaseURL        string
	HTTPTimeout            time.Duration
	RateLimitRPS           float64
	RateLimitBurst         int
}

type PipelineConfig struct {
	SliceWidth       time.Duration
	GasLookupWorkers int
	RevalidationPage int
}

// EpochGates carries every epoch-gated constant named in spec.md §6.
// Each gate is a plain integer epoch number. SMStartEpoch,
// TxOriginCheckEpoch, DedupEpoch and EpochBudgetEpoch turn a feature on
// from that epoch (inclusive) onward; PrecisionGlitchEpoch applies to
// that one epoch only; ContractTxsEpoch is carried through to the
// qualifier config but does not change its filtering.
type EpochGates struct {
	Genesis               int64
	GenesisTimestamp      time.Time
	SMStartEpoch          int64
	TxOriginCheckEpoch    int64
	DedupEpoch            int64
	EpochBudgetEpoch      int64
	PrecisionGlitchEpoch  int64
	ContractTxsEpoch      int64
}

type ServerConfig struct {
	HealthPort int
}

type LogConfig struct {
	Level string
}

type AlertConfig struct {
	WebhookURL string
	Cooldown   time.Duration
}

type TracingConfig struct {
	Endpoint    string
	Insecure    bool
	ServiceName string
}

// Supported chain IDs per spec.md §6.
const (
	ChainMainnet   = 1
	ChainBSC       = 56
	ChainPolygon   = 137
	ChainFantom    = 250
	ChainAvalanche = 43114
)

func Load() (*Config, error) {
	cfg := &Config{
		DB: DBConfig{
			URL:             getEnv("DB_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 30)) * time.Minute,
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Chains: ChainsConfig{
			Supported: []int64{ChainMainnet, ChainBSC, ChainPolygon, ChainFantom, ChainAvalanche},
		},
		Collab: CollabConfig{
			SubgraphBaseURLByChain: map[int64]string{
				ChainMainnet:   getEnv("SUBGRAPH_URL_MAINNET", ""),
				ChainBSC:       getEnv("SUBGRAPH_URL_BSC", ""),
				ChainPolygon:   getEnv("SUBGRAPH_URL_POLYGON", ""),
				ChainFantom:    getEnv("SUBGRAPH_URL_FANTOM", ""),
				ChainAvalanche: getEnv("SUBGRAPH_URL_AVALANCHE", ""),
			},
			ExplorerBaseURLByChain: map[int64]string{
				ChainMainnet:   getEnv("EXPLORER_URL_MAINNET", ""),
				ChainBSC:       getEnv("EXPLORER_URL_BSC", ""),
				ChainPolygon:   getEnv("EXPLORER_URL_POLYGON", ""),
				ChainFantom:    getEnv("EXPLORER_URL_FANTOM", ""),
				ChainAvalanche: getEnv("EXPLORER_URL_AVALANCHE", ""),
			},
			PriceOracleBaseURL: getEnv("PRICE_ORACLE_URL", ""),
			SPSPSourceBaseURL:  getEnv("SPSP_SOURCE_URL", ""),
			SMSourceBaseURL:    getEnv("SM_SOURCE_URL", ""),
			HTTPTimeout:        time.Duration(getEnvInt("COLLAB_TIMEOUT_SEC", 30)) * time.Second,
			RateLimitRPS:       getEnvFloat("COLLAB_RATE_LIMIT_RPS", 10),
			RateLimitBurst:     getEnvInt("COLLAB_RATE_LIMIT_BURST", 20),
		},
		Pipeline: PipelineConfig{
			SliceWidth:       time.Duration(getEnvInt("SLICE_WIDTH_HOURS", 6)) * time.Hour,
			GasLookupWorkers: getEnvInt("GAS_LOOKUP_WORKERS", 8),
			RevalidationPage: getEnvInt("REVALIDATION_PAGE_SIZE", 1000),
		},
		Epochs: EpochGates{
			Genesis:              int64(getEnvInt("EPOCH_GENESIS", 0)),
			GenesisTimestamp:     getEnvTime("EPOCH_GENESIS_TIMESTAMP", time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC)),
			SMStartEpoch:         int64(getEnvInt("EPOCH_SM_START", 20)),
			TxOriginCheckEpoch:   int64(getEnvInt("EPOCH_TX_ORIGIN_CHECK", 8)),
			DedupEpoch:           int64(getEnvInt("EPOCH_DEDUP", 8)),
			EpochBudgetEpoch:     int64(getEnvInt("EPOCH_BUDGET", 20)),
			PrecisionGlitchEpoch: int64(getEnvInt("EPOCH_PRECISION_GLITCH", 11)),
			ContractTxsEpoch:     int64(getEnvInt("EPOCH_CONTRACT_TXS", 25)),
		},
		Server: ServerConfig{
			HealthPort: getEnvInt("HEALTH_PORT", 8080),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Alert: AlertConfig{
			WebhookURL: getEnv("ALERT_WEBHOOK_URL", ""),
			Cooldown:   time.Duration(getEnvInt("ALERT_COOLDOWN_MIN", 60)) * time.Minute,
		},
		Tracing: TracingConfig{
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:    getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "gas-refund-engine"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DB.URL == "" {
		return fmt.Errorf("DB_URL is required")
	}
	if c.Epochs.SMStartEpoch < c.Epochs.Genesis {
		return fmt.Errorf("EPOCH_SM_START must not precede EPOCH_GENESIS")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvTime(key string, fallback time.Time) time.Time {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t.UTC()
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
