package config

import (
	"os"
	"strings"
)

// Environment variable names
const (
	EnvHome             = "TIPJAR_HOME"
	EnvAPIURL           = "TIPJAR_API_URL"
	EnvNetwork          = "TIPJAR_NETWORK"
	EnvEVMRPC           = "TIPJAR_EVM_RPC"
	EnvSolanaRPC        = "TIPJAR_SOLANA_RPC"
	EnvLogLevel         = "TIPJAR_LOG_LEVEL"
	EnvLogFormat        = "TIPJAR_LOG_FORMAT"
	EnvMetricsListen    = "TIPJAR_METRICS_LISTEN"
	EnvEVMPrivateKey    = "TIPJAR_EVM_PRIVATE_KEY"    // #nosec G101 -- variable name, not a credential
	EnvSolanaPrivateKey = "TIPJAR_SOLANA_PRIVATE_KEY" // #nosec G101 -- variable name, not a credential
)

// ApplyEnvironment applies environment variable overrides to cfg
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.API.URL = SanitizeURL(v)
	}

	if v := os.Getenv(EnvNetwork); v != "" {
		cfg.Network = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv(EnvEVMRPC); v != "" {
		cfg.EVM.RPC = SanitizeURL(v)
	}

	if v := os.Getenv(EnvSolanaRPC); v != "" {
		cfg.Solana.RPC = SanitizeURL(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Logging.Format = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv(EnvMetricsListen); v != "" {
		cfg.Metrics.Listen = strings.TrimSpace(v)
	}
}

// SanitizeURL trims whitespace and trailing slashes left over from copy-paste
func SanitizeURL(url string) string {
	return strings.TrimRight(strings.TrimSpace(url), "/")
}
