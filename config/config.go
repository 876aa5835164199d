package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Bybit    BybitConfig    `mapstructure:"bybit"`
	Series   SeriesConfig   `mapstructure:"series"`
	Log      LogConfig      `mapstructure:"log"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type BybitConfig struct {
	REST RESTConfig `mapstructure:"rest"`
	WS   WSConfig   `mapstructure:"ws"`
}

type RESTConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Category string        `mapstructure:"category"` // e.g., "linear", "spot"
}

type WSConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SeriesConfig controls the candle series kept per symbol.
type SeriesConfig struct {
	Symbols          []string `mapstructure:"symbols"`            // empty list enables REST discovery
	MaxLen           int      `mapstructure:"max_len"`            // bound per series, oldest bars trimmed
	BackfillPages    int      `mapstructure:"backfill_pages"`     // backward pagination budget
	BackfillPageSize int      `mapstructure:"backfill_page_size"` // bars per history request
	MaxSymbols       int      `mapstructure:"max_symbols"`        // cap applied to discovered symbols
	BackfillWorkers  int      `mapstructure:"backfill_workers"`   // concurrent backfills across symbols
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"` // listen address for the query API, empty disables it
}

// RedisConfig configures the optional Redis-backed series persistence.
// An empty Addr keeps all series in memory.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Load loads application configuration using Viper.
// It reads from config.yaml and overrides with environment variables.
func Load() *Config {
	v := viper.New()

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")

	ex, _ := os.Executable()
	if strings.Contains(ex, "go-build") {
		pwd, _ := os.Getwd()
		v.AddConfigPath(filepath.Join(pwd, "../../config"))
	} else {
		v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
	}

	v.SetDefault("bybit.rest.base_url", "https://api.bybit.com")
	v.SetDefault("bybit.rest.timeout", 10*time.Second)
	v.SetDefault("bybit.rest.category", "linear")
	v.SetDefault("bybit.ws.url", "wss://stream.bybit.com/v5/public/linear")
	v.SetDefault("series.max_len", 10000)
	v.SetDefault("series.backfill_pages", 5)
	v.SetDefault("series.backfill_page_size", 200)
	v.SetDefault("series.max_symbols", 50)
	v.SetDefault("series.backfill_workers", 5)

	// Support environment variables with dot notation (e.g., BYBIT_WS_URL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("failed to read config: %v", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	return &cfg
}
