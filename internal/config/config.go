package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Graph store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
	StoreFile   = "file"
)

// Config is the configuration of an engine process.
type Config struct {
	Listen string      `mapstructure:"listen" yaml:"listen"`
	Log    LogConfig   `mapstructure:"log" yaml:"log"`
	Lock   LockConfig  `mapstructure:"lock" yaml:"lock"`
	Redis  RedisConfig `mapstructure:"redis" yaml:"redis"`
	Store  StoreConfig `mapstructure:"store" yaml:"store"`

	// Definitions is a directory of YAML process definitions deployed at boot.
	Definitions     string `mapstructure:"definitions" yaml:"definitions"`
	SkipExpressions bool   `mapstructure:"skip_expressions" yaml:"skip_expressions"`
	Metrics         bool   `mapstructure:"metrics" yaml:"metrics"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type LockConfig struct {
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`
	// Distributed also serializes commands through the lease store.
	Distributed bool `mapstructure:"distributed" yaml:"distributed"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
}

// StoreConfig selects where per-instance graphs are kept.
// Leases live in redis whenever Redis.Addr is set, in memory otherwise.
type StoreConfig struct {
	Graph string `mapstructure:"graph" yaml:"graph"`
	DSN   string `mapstructure:"dsn" yaml:"dsn"`
	Dir   string `mapstructure:"dir" yaml:"dir"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		Log:    LogConfig{Level: "info", Format: "text"},
		Lock:   LockConfig{TTL: 15 * time.Second},
		Redis:  RedisConfig{Prefix: "flowable:"},
		Store:  StoreConfig{Graph: StoreMemory},
	}
}

// envKeys maps environment variables to configuration paths.
var envKeys = map[string]string{
	"FLOWABLE_LISTEN":           "listen",
	"FLOWABLE_LOG_LEVEL":        "log.level",
	"FLOWABLE_LOG_FORMAT":       "log.format",
	"FLOWABLE_LOCK_TTL":         "lock.ttl",
	"FLOWABLE_LOCK_DISTRIBUTED": "lock.distributed",
	"FLOWABLE_REDIS_ADDR":       "redis.addr",
	"FLOWABLE_REDIS_PASSWORD":   "redis.password",
	"FLOWABLE_REDIS_DB":         "redis.db",
	"FLOWABLE_REDIS_PREFIX":     "redis.prefix",
	"FLOWABLE_STORE_GRAPH":      "store.graph",
	"FLOWABLE_STORE_DSN":        "store.dsn",
	"FLOWABLE_STORE_DIR":        "store.dir",
	"FLOWABLE_DEFINITIONS":      "definitions",
	"FLOWABLE_SKIP_EXPRESSIONS": "skip_expressions",
	"FLOWABLE_METRICS":          "metrics",
}

// Load reads path (YAML, or JSON by extension) on top of the defaults and
// applies FLOWABLE_* environment overrides. An empty or missing path only
// applies the environment.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an injectable environment lookup.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (*Config, error) {
	raw := map[string]any{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := unmarshal(path, data, &raw); err != nil {
				return nil, err
			}
		}
	}

	for env, key := range envKeys {
		if v, ok := lookup(env); ok {
			set(raw, strings.Split(key, "."), v)
		}
	}

	cfg := Default()
	if err := Decode(raw, cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode decodes a loosely typed document into out. Strings are accepted
// for numbers, booleans and durations ("15s").
func Decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			secondsHook,
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Store.Graph {
	case StoreMemory:
	case StoreRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("store.graph %q requires redis.addr", c.Store.Graph)
		}
	case StoreSQLite:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.graph %q requires store.dsn", c.Store.Graph)
		}
	case StoreFile:
		if c.Store.Dir == "" {
			return fmt.Errorf("store.graph %q requires store.dir", c.Store.Graph)
		}
	default:
		return fmt.Errorf("unknown graph store %q", c.Store.Graph)
	}
	if c.Lock.TTL <= 0 {
		return fmt.Errorf("lock.ttl must be positive, got %s", c.Lock.TTL)
	}
	return nil
}

// secondsHook reads bare numbers as seconds when decoding a time.Duration.
func secondsHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch v := data.(type) {
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second, nil
		}
	}
	return data, nil
}

func unmarshal(path string, data []byte, out *map[string]any) error {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if *out == nil {
		*out = map[string]any{}
	}
	return nil
}

func set(m map[string]any, path []string, v string) {
	for _, p := range path[:len(path)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[path[len(path)-1]] = v
}
