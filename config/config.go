package config

import (
	"flag"
	"os"
	"sync"
)

const (
	defaultServerAddress   = ":8080"
	defaultDatabaseDSN     = ""
	defaultCardGatewayAddr = "http://localhost:8282"
	defaultAuthTokenKey    = "f53ac685bbceebd75043e6be2e06ee07"
	defaultLogLevel        = "debug"
)

type Config struct {
	ServerAddr      string
	DatabaseDSN     string
	CardGatewayAddr string
	AuthTokenKey    string
	LogLevel        string
}

var (
	once      sync.Once
	singleton *Config
)

// New returns new Config. It parses command line and environment variables only once.
func New() (*Config, error) {
	once.Do(func() {
		cfg := Config{}

		// initialize flags
		flag.StringVar(&cfg.ServerAddr, "a", defaultServerAddress, "server address")
		flag.StringVar(&cfg.DatabaseDSN, "d", defaultDatabaseDSN, "database DSN")
		flag.StringVar(&cfg.CardGatewayAddr, "g", defaultCardGatewayAddr, "card gateway address")
		flag.StringVar(&cfg.AuthTokenKey, "k", defaultAuthTokenKey, "auth token key, hex encoded")
		flag.StringVar(&cfg.LogLevel, "l", defaultLogLevel, "log level")

		flag.Parse()

		// if environment variable is set, then using it
		if runAddrEnv := os.Getenv("RUN_ADDRESS"); runAddrEnv != "" {
			cfg.ServerAddr = runAddrEnv
		}
		if databaseURIEnv := os.Getenv("DATABASE_URI"); databaseURIEnv != "" {
			cfg.DatabaseDSN = databaseURIEnv
		}
		if gatewayAddrEnv := os.Getenv("CARD_GATEWAY_ADDRESS"); gatewayAddrEnv != "" {
			cfg.CardGatewayAddr = gatewayAddrEnv
		}
		if tokenKeyEnv := os.Getenv("AUTH_TOKEN_KEY"); tokenKeyEnv != "" {
			cfg.AuthTokenKey = tokenKeyEnv
		}
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			cfg.LogLevel = logLevelEnv
		}

		singleton = &cfg
	})

	return singleton, nil
}
