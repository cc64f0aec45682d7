package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DB      DBConfig
	Server  ServerConfig
	Log     LogConfig
	Company CompanyConfig
	Ledger  LedgerConfig
	Redis   RedisConfig
	Cache   CacheConfig
}

type DBConfig struct {
	Path string
}

type ServerConfig struct {
	Addr string
	URL  string
}

type LogConfig struct {
	Level  string
	Format string
}

type CompanyConfig struct {
	Name string
}

type LedgerConfig struct {
	NumberingRetries int
}

// RedisConfig is optional. An empty Addr disables the lock and the cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type CacheConfig struct {
	TTL time.Duration
}

const EnvPrefix = "ERPLEDGER"

// New returns a viper instance carrying the defaults and reading
// ERPLEDGER_* environment variables, e.g. ERPLEDGER_DB_PATH for db.path.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("db.path", "erpledger.db")
	v.SetDefault("server.addr", ":8888")
	v.SetDefault("server.url", "http://localhost:8888")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("company.name", "Default Company")
	v.SetDefault("ledger.numbering_retries", 5)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.ttl", 5*time.Minute)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads file into v, or erpledger.yaml from the working directory when
// file is empty. Only an explicitly named file has to exist.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("erpledger")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		DB:      DBConfig{Path: v.GetString("db.path")},
		Server:  ServerConfig{Addr: v.GetString("server.addr"), URL: v.GetString("server.url")},
		Log:     LogConfig{Level: v.GetString("log.level"), Format: v.GetString("log.format")},
		Company: CompanyConfig{Name: v.GetString("company.name")},
		Ledger:  LedgerConfig{NumberingRetries: v.GetInt("ledger.numbering_retries")},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Cache: CacheConfig{TTL: v.GetDuration("cache.ttl")},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DB.Path == "" {
		return errors.New("db.path is required")
	}
	if c.Ledger.NumberingRetries < 1 {
		return fmt.Errorf("ledger.numbering_retries must be at least 1, got %d", c.Ledger.NumberingRetries)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl cannot be negative, got %s", c.Cache.TTL)
	}
	return nil
}
