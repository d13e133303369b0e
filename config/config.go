package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/korjavin/gkentei/cache"
)

// Config holds all the configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Log      LogConfig      `mapstructure:"log"`
	Bot      BotConfig      `mapstructure:"bot"`
	Deepseek DeepseekConfig `mapstructure:"deepseek"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type AdminConfig struct {
	Token string `mapstructure:"token"`
}

// CacheConfig sizes each cache partition. Zero values fall back to the
// partition defaults.
type CacheConfig struct {
	Static cache.PartitionConfig `mapstructure:"static"`
	Query  cache.PartitionConfig `mapstructure:"query"`
	User   cache.PartitionConfig `mapstructure:"user"`
}

// Partitions returns the cache configuration keyed by partition.
func (c CacheConfig) Partitions() map[cache.Partition]cache.PartitionConfig {
	return map[cache.Partition]cache.PartitionConfig{
		cache.Static: c.Static,
		cache.Query:  c.Query,
		cache.User:   c.User,
	}
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File, when set, receives a JSON copy of every log record.
	File string `mapstructure:"file"`
}

// BotConfig enables the Telegram practice bot when Token is set.
type BotConfig struct {
	Token string `mapstructure:"token"`
	Debug bool   `mapstructure:"debug"`
}

type DeepseekConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	URL        string        `mapstructure:"url"`
	Model      string        `mapstructure:"model"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries uint          `mapstructure:"max_retries"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	defaults := cache.DefaultPartitions()
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Cache: CacheConfig{
			Static: defaults[cache.Static],
			Query:  defaults[cache.Query],
			User:   defaults[cache.User],
		},
		Log: LogConfig{Level: "info", Format: "text"},
		Deepseek: DeepseekConfig{
			URL:        "https://api.deepseek.com/v1/chat/completions",
			Model:      "deepseek-chat",
			Timeout:    60 * time.Second,
			MaxRetries: 5,
		},
	}
}

// Load reads configuration from ./config.yaml, if present, and environment
// variables. Environment variables use the prefix "GKENTEI" and the dot in
// keys is replaced by an underscore, so "cache.query.ttl" becomes
// "GKENTEI_CACHE_QUERY_TTL".
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path looks for
// config.yaml in the working directory and tolerates its absence.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("GKENTEI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// RequireDatabase reports an error when no database URL is configured
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return errors.New("database.url (GKENTEI_DATABASE_URL) is required")
	}
	return nil
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(append([]string{}, parts...), tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
