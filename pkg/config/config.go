package config

// Package config provides a reusable loader for the service's environment
// variables, with an optional .env file merged in first. It is versioned so
// that applications can depend on a stable API contract.
//
// Version: v0.2.0

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"dexstream/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.2.0"

// Config is the process-wide configuration resolved from the environment.
type Config struct {
	// Networks is the lowercased, enabled subset of NETWORKS.
	Networks []string
	// Heartbeats holds one external heartbeat endpoint id per enabled
	// network, positionally aligned with Networks.
	Heartbeats []string
	// Origin is the CORS origin pinned when Testing is false.
	Origin string
	// Testing relaxes CORS to any origin/header and shortens the
	// supervisor's restart back-off.
	Testing bool
	// TychoAPIKey authenticates outbound calls to the upstream streaming
	// and token-enumeration providers.
	TychoAPIKey string
	// WebAPIKey is the shared secret compute endpoints require in the
	// tycho-orderbook-web-api-key header.
	WebAPIKey string
	// APIPort is the bind port for the HTTP surface.
	APIPort string
	// RedisHost is host:port for the KV cache.
	RedisHost string
	// CachePingTimeoutSeconds bounds the startup check that the cache is
	// reachable before any network is started.
	CachePingTimeoutSeconds int
	// ShutdownTimeoutSeconds bounds how long the HTTP surface is given to
	// drain in-flight requests on shutdown.
	ShutdownTimeoutSeconds uint64
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load merges the .env file at envFile (if present) into the process
// environment, then resolves Config from it. A missing envFile is not an
// error: deployments may rely on variables already present in the
// environment.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)

	viper.AutomaticEnv()

	AppConfig = Config{
		Networks:                utils.EnvCSV("NETWORKS"),
		Heartbeats:              splitCSVPreserveCase(viper.GetString("HEARTBEATS")),
		Origin:                  utils.EnvOrDefault("ORIGIN", "*"),
		Testing:                 utils.EnvBool("TESTING"),
		TychoAPIKey:             viper.GetString("TYCHO_API_KEY"),
		WebAPIKey:               viper.GetString("WEB_API_KEY"),
		APIPort:                 utils.EnvOrDefault("API_PORT", "42042"),
		RedisHost:               utils.EnvOrDefault("REDIS_HOST", "127.0.0.1:7777"),
		CachePingTimeoutSeconds: utils.EnvOrDefaultInt("CACHE_PING_TIMEOUT_SECONDS", 5),
		ShutdownTimeoutSeconds:  utils.EnvOrDefaultUint64("SHUTDOWN_TIMEOUT_SECONDS", 10),
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the default .env path.
func LoadFromEnv() (*Config, error) {
	return Load(".env")
}

func splitCSVPreserveCase(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(raw); i++ {
		if i == len(raw) || raw[i] == ',' {
			if i > start {
				out = append(out, raw[start:i])
			}
			start = i + 1
		}
	}
	return out
}
