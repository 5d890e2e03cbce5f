package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	PortfolioFile string `env:"PORTFOLIO_FILE" envDefault:"portafoglio_data.json"`
	API           API
	Market        Market
	Cache         Cache
	Jobs          Jobs
	GoogleDrive   GoogleDrive
}

type API struct {
	Debug    bool          `env:"API_DEBUG" envDefault:"false"`
	Timeout  time.Duration `env:"API_TIMEOUT" envDefault:"30s"`
	YahooApi YahooApi
}

type YahooApi struct {
	Url string `env:"YAHOO_API_URL" envDefault:"https://query1.finance.yahoo.com"`
}

type Market struct {
	Period      string        `env:"MARKET_PERIOD" envDefault:"1y"`
	Granularity string        `env:"MARKET_GRANULARITY" envDefault:"1d"`
	FetchDelay  time.Duration `env:"MARKET_FETCH_DELAY" envDefault:"100ms"`
}

type Cache struct {
	Dir         string        `env:"CACHE_DIR" envDefault:"."`
	SnapshotTTL time.Duration `env:"CACHE_SNAPSHOT_TTL" envDefault:"24h"`
	MemoTTL     time.Duration `env:"CACHE_MEMO_TTL" envDefault:"1h"`
}

type Jobs struct {
	FillMarketCacheInterval time.Duration `env:"FILL_MARKET_CACHE_JOB_INTERVAL" envDefault:"6h"`
	DriveCleanupInterval    time.Duration `env:"DRIVE_CLEANUP_JOB_INTERVAL" envDefault:"24h"`
}

type GoogleDrive struct {
	CredentialsFile string        `env:"GOOGLE_DRIVE_CREDENTIALS_FILE" envDefault:""`
	FileTTL         time.Duration `env:"GOOGLE_DRIVE_FILE_TTL" envDefault:"168h"`
}

func MustLoad() *Config {
	_ = godotenv.Load(".env")

	cfg := &Config{}

	opts := env.Options{RequiredIfNoDef: true}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		log.Fatalf("parse config error: %s", err)
	}

	return cfg
}
