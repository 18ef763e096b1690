package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr     string        `env:"RUN_ADDRESS"`
	LogLevel       string        `env:"LOG_LEVEL"`
	LogFormat      string        `env:"LOG_FORMAT"`
	StoreBackend   string        `env:"STORE_BACKEND"`
	WorkbookName   string        `env:"WORKBOOK_NAME"`
	WorkbookPath   string        `env:"WORKBOOK_PATH"`
	SheetsAPIURL   string        `env:"SHEETS_API_URL"`
	SpreadsheetID  string        `env:"SPREADSHEET_ID"`
	SheetsToken    string        `env:"SHEETS_ACCESS_TOKEN"`
	DatabaseURI    string        `env:"DATABASE_URI"`
	StoreTimeout   time.Duration `env:"STORE_TIMEOUT"`
	StoreRetryWait time.Duration `env:"STORE_RETRY_WAIT"`
	JWTSecretKey   string        `env:"JWT_SECRET_KEY"`
	SessionTTL     time.Duration `env:"SESSION_TTL"`
	RedisAddr      string        `env:"REDIS_ADDR"`
	CORSOrigins    string        `env:"CORS_ORIGINS"`
}

func NewConfig() (Config, error) {
	return parse(flag.CommandLine, nil)
}

func parse(fset *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{}

	fset.StringVar(&cfg.ServerAddr, "a", "0.0.0.0:8080", "server listening address [env:RUN_ADDRESS]")
	fset.StringVar(&cfg.LogLevel, "l", "info", "log output level [env:LOG_LEVEL]")
	fset.StringVar(&cfg.LogFormat, "f", "json", "log output format: json, text [env:LOG_FORMAT]")
	fset.StringVar(&cfg.StoreBackend, "b", "xlsx", "record store backend: memory, xlsx, sheets, postgres [env:STORE_BACKEND]")
	fset.StringVar(&cfg.WorkbookName, "n", "FuelTracker", "workbook name [env:WORKBOOK_NAME]")
	fset.StringVar(&cfg.WorkbookPath, "w", "FuelTracker.xlsx", "workbook file for the xlsx backend [env:WORKBOOK_PATH]")
	fset.StringVar(&cfg.SheetsAPIURL, "sheets-url", "https://sheets.googleapis.com", "spreadsheet REST API base URL [env:SHEETS_API_URL]")
	fset.StringVar(&cfg.SpreadsheetID, "sheets-id", "", "spreadsheet ID for the sheets backend [env:SPREADSHEET_ID]")
	fset.StringVar(&cfg.SheetsToken, "sheets-token", "", "spreadsheet API bearer token [env:SHEETS_ACCESS_TOKEN]")
	fset.StringVar(&cfg.DatabaseURI, "d", "", "database connection string [env:DATABASE_URI]")
	fset.DurationVar(&cfg.StoreTimeout, "t", 10*time.Second, "record store call timeout [env:STORE_TIMEOUT]")
	fset.DurationVar(&cfg.StoreRetryWait, "r", 1*time.Second, "wait before retrying a failed store call [env:STORE_RETRY_WAIT]")
	fset.StringVar(&cfg.JWTSecretKey, "s", "secretkey", "JWT secret to sign tokens [env:JWT_SECRET_KEY]")
	fset.DurationVar(&cfg.SessionTTL, "ttl", 12*time.Hour, "session token lifetime [env:SESSION_TTL]")
	fset.StringVar(&cfg.RedisAddr, "redis", "", "redis address for session revocation [env:REDIS_ADDR]")
	fset.StringVar(&cfg.CORSOrigins, "cors", "*", "comma separated allowed CORS origins [env:CORS_ORIGINS]")

	if args == nil {
		flag.Parse()
	} else if err := fset.Parse(args); err != nil {
		return cfg, fmt.Errorf("fset.Parse: %w", err)
	}

	// A missing .env file is not an error, the environment may be set by other means.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("godotenv.Load: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("env.Parse: %w", err)
	}

	return cfg, nil
}

// AllowedOrigins splits CORSOrigins into a list.
func (c Config) AllowedOrigins() []string {
	origins := make([]string, 0)

	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return origins
}
