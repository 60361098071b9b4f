package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"branch-ledger/internal/model"
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Ledger   LedgerConfig
	Logger   LoggerConfig
	Kafka    KafkaConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	AllowOrigins []string
}

type StoreConfig struct {
	Driver string // file or postgres
	Path   string
}

type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	Database       string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	MigrationsPath string
}

type LedgerConfig struct {
	BranchCode         string
	WithdrawalsPerDay  int
	MaxWithdrawal      decimal.Decimal
	TransactionsPerDay int
}

type LoggerConfig struct {
	Level     string
	Format    string // json or console
	AuditPath string
}

type KafkaConfig struct {
	Enabled    bool
	Brokers    []string
	AuditTopic string
}

// Load reads configuration from defaults, an optional config file and
// LEDGER_-prefixed environment variables, in increasing precedence.
// An empty configFile skips the file.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	maxWithdrawal, err := decimal.NewFromString(v.GetString("ledger.max_withdrawal"))
	if err != nil {
		return nil, fmt.Errorf("invalid ledger.max_withdrawal: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
			IdleTimeout:  v.GetDuration("server.idle_timeout"),
			AllowOrigins: v.GetStringSlice("server.allow_origins"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(v.GetString("store.driver")),
			Path:   v.GetString("store.path"),
		},
		Database: DatabaseConfig{
			Host:           v.GetString("database.host"),
			Port:           v.GetString("database.port"),
			User:           v.GetString("database.user"),
			Password:       v.GetString("database.password"),
			Database:       v.GetString("database.name"),
			SSLMode:        v.GetString("database.ssl_mode"),
			MaxOpenConns:   v.GetInt("database.max_open_conns"),
			MaxIdleConns:   v.GetInt("database.max_idle_conns"),
			MigrationsPath: v.GetString("database.migrations_path"),
		},
		Ledger: LedgerConfig{
			BranchCode:         v.GetString("ledger.branch_code"),
			WithdrawalsPerDay:  v.GetInt("ledger.withdrawals_per_day"),
			MaxWithdrawal:      maxWithdrawal,
			TransactionsPerDay: v.GetInt("ledger.transactions_per_day"),
		},
		Logger: LoggerConfig{
			Level:     v.GetString("log.level"),
			Format:    v.GetString("log.format"),
			AuditPath: v.GetString("log.audit_path"),
		},
		Kafka: KafkaConfig{
			Enabled:    v.GetBool("kafka.enabled"),
			Brokers:    v.GetStringSlice("kafka.brokers"),
			AuditTopic: v.GetString("kafka.audit_topic"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.allow_origins", []string{"*"})

	v.SetDefault("store.driver", "file")
	v.SetDefault("store.path", "data/dados.csv")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "ledger")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.migrations_path", "migrations")

	v.SetDefault("ledger.branch_code", "0001")
	v.SetDefault("ledger.withdrawals_per_day", model.DefaultWithdrawalsPerDay)
	v.SetDefault("ledger.max_withdrawal", model.DefaultMaxWithdrawal.String())
	v.SetDefault("ledger.transactions_per_day", model.DefaultTransactionsPerDay)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.audit_path", "data/log.txt")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.audit_topic", "ledger.audit")
}

// Validate rejects settings the ledger cannot run with
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "file":
		if c.Store.Path == "" {
			return errors.New("store.path is required for the file store")
		}
	case "postgres":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Ledger.BranchCode == "" {
		return errors.New("ledger.branch_code is required")
	}
	if c.Ledger.WithdrawalsPerDay <= 0 || c.Ledger.TransactionsPerDay <= 0 {
		return errors.New("ledger daily limits must be positive")
	}
	if !c.Ledger.MaxWithdrawal.IsPositive() {
		return errors.New("ledger.max_withdrawal must be positive")
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.AuditTopic == "") {
		return errors.New("kafka.brokers and kafka.audit_topic are required when kafka is enabled")
	}
	return nil
}

// Limits returns the account limits configured for the branch
func (c *LedgerConfig) Limits() model.Limits {
	return model.Limits{
		WithdrawalsPerDay:  c.WithdrawalsPerDay,
		MaxWithdrawal:      c.MaxWithdrawal,
		TransactionsPerDay: c.TransactionsPerDay,
	}
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}
