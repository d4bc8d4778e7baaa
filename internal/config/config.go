package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Totem-gdn/totem-asset-indexer/internal/domain"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // Maximum amount of time a connection may be idle (e.g., "10m", "30m")
}

// NATSConfig holds NATS JetStream configuration
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	ConsumerName   string        `mapstructure:"consumer_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
	AckWait        time.Duration `mapstructure:"ack_wait"`
	MaxDeliver     int           `mapstructure:"max_deliver"`
	NakDelay       time.Duration `mapstructure:"nak_delay"`     // redelivery delay after a transient failure
	DedupWindow    time.Duration `mapstructure:"dedup_window"`  // stream-side msg-id deduplication window
	MaxAge         time.Duration `mapstructure:"max_age"`       // retention of processed events in the stream
}

// ContractsConfig maps each asset type to a contract address
type ContractsConfig struct {
	Avatar string `mapstructure:"avatar"`
	Item   string `mapstructure:"item"`
	Gem    string `mapstructure:"gem"`
}

// ForAssetType returns the configured contract address for an asset type,
// empty when none is configured
func (c *ContractsConfig) ForAssetType(assetType domain.AssetType) string {
	switch assetType {
	case domain.AssetTypeAvatar:
		return c.Avatar
	case domain.AssetTypeItem:
		return c.Item
	case domain.AssetTypeGem:
		return c.Gem
	default:
		return ""
	}
}

// EthereumConfig holds Ethereum-specific configuration
type EthereumConfig struct {
	WebSocketURL    string          `mapstructure:"websocket_url"`
	RPCURL          string          `mapstructure:"rpc_url"`
	DeployBlock     uint64          `mapstructure:"deploy_block"`
	ChunkSize       uint64          `mapstructure:"chunk_size"`
	Contracts       ContractsConfig `mapstructure:"contracts"`
	LegacyContracts ContractsConfig `mapstructure:"legacy_contracts"`
}

// WorkerConfig holds worker pool configuration
type WorkerConfig struct {
	WorkerPoolSize  int `mapstructure:"pool_size"`
	WorkerQueueSize int `mapstructure:"queue_size"`
}

// WatcherConfig holds configuration for the watcher program
type WatcherConfig struct {
	BaseConfig      `mapstructure:",squash"`
	Database        DatabaseConfig `mapstructure:"database"`
	NATS            NATSConfig     `mapstructure:"nats"`
	Ethereum        EthereumConfig `mapstructure:"ethereum"`
	ReconnectDelay  time.Duration  `mapstructure:"reconnect_delay"`
	RetryMaxElapsed time.Duration  `mapstructure:"retry_max_elapsed"`
}

// ProjectorConfig holds configuration for the projector program
type ProjectorConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Worker     WorkerConfig   `mapstructure:"worker"`
}

// LoadWatcherConfig loads configuration for the watcher program
func LoadWatcherConfig(configFile string, envPath string) (*WatcherConfig, error) {
	v := configureViper("watcher", configFile, envPath)

	// Set defaults
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "ASSET_EVENTS")
	v.SetDefault("nats.dedup_window", "2m")
	v.SetDefault("nats.max_age", "24h")
	v.SetDefault("ethereum.deploy_block", domain.DEFAULT_DEPLOY_BLOCK)
	v.SetDefault("ethereum.chunk_size", domain.DEFAULT_BACKFILL_CHUNK_SIZE)
	v.SetDefault("reconnect_delay", "5s")
	v.SetDefault("retry_max_elapsed", "5m")

	if err := v.ReadInConfig(); err != nil {
		var error viper.ConfigFileNotFoundError
		if errors.As(err, &error) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config WatcherConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// LoadProjectorConfig loads configuration for the projector program
func LoadProjectorConfig(configFile string, envPath string) (*ProjectorConfig, error) {
	v := configureViper("projector", configFile, envPath)

	// Set defaults
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "ASSET_EVENTS")
	v.SetDefault("nats.consumer_name", "projector")
	v.SetDefault("nats.ack_wait", "30s")
	v.SetDefault("nats.max_deliver", 5)
	v.SetDefault("nats.nak_delay", "5m")
	v.SetDefault("nats.dedup_window", "2m")
	v.SetDefault("nats.max_age", "24h")
	v.SetDefault("worker.pool_size", 20)
	v.SetDefault("worker.queue_size", 2048)

	if err := v.ReadInConfig(); err != nil {
		var error viper.ConfigFileNotFoundError
		if errors.As(err, &error) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config ProjectorConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory (e.g., cmd/watcher/, cmd/projector/)
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("TOTEM_INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	commonKeys := []string{
		"debug",
		"sentry_dsn",
		"reconnect_delay",
		"retry_max_elapsed",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.consumer_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		"nats.ack_wait",
		"nats.max_deliver",
		"nats.nak_delay",
		"nats.dedup_window",
		"nats.max_age",
		// Ethereum
		"ethereum.websocket_url",
		"ethereum.rpc_url",
		"ethereum.deploy_block",
		"ethereum.chunk_size",
		"ethereum.contracts.avatar",
		"ethereum.contracts.item",
		"ethereum.contracts.gem",
		"ethereum.legacy_contracts.avatar",
		"ethereum.legacy_contracts.item",
		"ethereum.legacy_contracts.gem",
		// Worker
		"worker.pool_size",
		"worker.queue_size",
	}

	for _, key := range commonKeys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
