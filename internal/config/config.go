package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// defaultConfigPath is used when no explicit config path is provided.
const defaultConfigPath = "config.yaml"

// AppConfig is the root configuration for the server process.
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	JWT      JWTConfig      `yaml:"jwt"`
	Redis    RedisConfig    `yaml:"redis"`
	Wallet   WalletConfig   `yaml:"wallet"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr string `yaml:"addr"` // Listen address, e.g. ":8080".
}

// DatabaseConfig holds the database connection string.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"` // PostgreSQL DSN or SQLite path.
}

// LogConfig holds logging output settings.
type LogConfig struct {
	Level string `yaml:"level"` // logrus level name, default "info".
	File  string `yaml:"file"`  // Rotating log file path; empty logs to stdout only.
}

// JWTConfig holds session token signing settings.
type JWTConfig struct {
	Secret string        `yaml:"secret"` // HMAC signing secret.
	Expiry time.Duration `yaml:"expiry"` // Session token lifetime.
}

// RedisConfig holds optional Redis settings for the ownership cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`     // host:port; empty disables the cache.
	Password string `yaml:"password"` // Optional password.
	DB       int    `yaml:"db"`       // Logical database index.
}

// WalletConfig holds the wallet authentication subsystem settings.
//
// Allow-lists and endpoints are loaded here once and passed into the oracle and
// session issuer at construction time; business logic never reads the process
// environment directly.
type WalletConfig struct {
	ContractAddress string `yaml:"contract-address"` // Gating ERC-721 contract address.
	ChainID         int64  `yaml:"chain-id"`         // Chain the contract lives on.

	RPCEndpoints []string `yaml:"rpc-endpoints"` // Ordered JSON-RPC endpoints to try.

	AdminWhitelist    []string `yaml:"admin-whitelist"`    // Addresses eligible for the admin role.
	FallbackWhitelist []string `yaml:"fallback-whitelist"` // Addresses trusted when every RPC endpoint fails.

	EmailDomain string `yaml:"email-domain"` // Domain for synthesized pseudo-emails.
}

// ResolveConfigPath returns the effective config path, honoring CONFIG_PATH.
func ResolveConfigPath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed != "" {
		return trimmed
	}
	if env := strings.TrimSpace(os.Getenv("CONFIG_PATH")); env != "" {
		return env
	}
	return defaultConfigPath
}

// Load reads the YAML config file and applies environment overrides.
//
// A missing file is not an error; the configuration then comes entirely from
// defaults and the environment.
func Load(path string) (AppConfig, error) {
	cfg := AppConfig{
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info"},
		JWT:    JWTConfig{Expiry: 48 * time.Hour},
		Wallet: WalletConfig{EmailDomain: "wallet.healingbudstacks.com"},
	}

	data, errRead := os.ReadFile(path)
	if errRead != nil && !os.IsNotExist(errRead) {
		return cfg, fmt.Errorf("config: read %s: %w", path, errRead)
	}
	if errRead == nil {
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
		}
	}

	applyEnvOverrides(&cfg)

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return cfg, fmt.Errorf("config: missing database dsn")
	}
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return cfg, fmt.Errorf("config: missing jwt secret")
	}
	if strings.TrimSpace(cfg.Wallet.ContractAddress) == "" {
		return cfg, fmt.Errorf("config: missing wallet contract address")
	}
	return cfg, nil
}

// applyEnvOverrides layers environment variables over file values.
func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv("SERVER_ADDR")); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_DSN")); v != "" {
		cfg.Database.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_FILE")); v != "" {
		cfg.Log.File = v
	}
	if v := strings.TrimSpace(os.Getenv("JWT_SECRET")); v != "" {
		cfg.JWT.Secret = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_ADDR")); v != "" {
		cfg.Redis.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("NFT_CONTRACT_ADDRESS")); v != "" {
		cfg.Wallet.ContractAddress = v
	}
	if v := strings.TrimSpace(os.Getenv("ETH_RPC_ENDPOINTS")); v != "" {
		cfg.Wallet.RPCEndpoints = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv("ADMIN_WALLET_WHITELIST")); v != "" {
		cfg.Wallet.AdminWhitelist = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv("FALLBACK_WALLET_WHITELIST")); v != "" {
		cfg.Wallet.FallbackWhitelist = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv("WALLET_EMAIL_DOMAIN")); v != "" {
		cfg.Wallet.EmailDomain = v
	}
}

// splitList splits a comma-separated list, trimming blanks.
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
