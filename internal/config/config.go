package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreJSONL    = "jsonl"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreKafka    = "kafka"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL            string
	Factory           string
	Pools             []string
	FromBlock         uint64
	ToBlock           uint64
	BatchSize         uint64
	AddressChunk      int
	Checkpoint        string
	CheckpointEnabled bool
	CheckpointDB      bool
	MaxRetries        int
	RetryBackoff      time.Duration
	SenderCacheSize   int
	LogLevel          string
	Store             StoreConfig
}

// StoreConfig selects and configures the entity store backend.
type StoreConfig struct {
	Backend        string
	Out            string
	PGDSN          string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisPrefix    string
	RedisStream    bool
	KafkaBrokers   []string
	KafkaTopicBase string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		RPCURL:            v.GetString("rpc"),
		Factory:           v.GetString("factory"),
		Pools:             getStringSlice(v, "pool"),
		FromBlock:         v.GetUint64("from"),
		ToBlock:           v.GetUint64("to"),
		BatchSize:         v.GetUint64("batch-size"),
		AddressChunk:      v.GetInt("address-chunk"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		CheckpointDB:      v.GetBool("checkpoint-db"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		SenderCacheSize:   v.GetInt("sender-cache-size"),
		LogLevel:          v.GetString("log-level"),
		Store:             loadStore(v),
	}

	return cfg, nil
}

// LoadStore reads only the store section, for commands that do not index.
func LoadStore(cfgFile string, flags *pflag.FlagSet) (StoreConfig, string, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return StoreConfig{}, "", err
	}
	return loadStore(v), v.GetString("log-level"), nil
}

// Validate checks the store section is usable for its backend.
func (c StoreConfig) Validate() error {
	switch c.Backend {
	case StoreMemory:
		return nil
	case StoreJSONL:
		if c.Out == "" {
			return fmt.Errorf("out path is required for jsonl store")
		}
	case StorePostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg dsn is required for postgres store")
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis addr is required for redis store")
		}
	case StoreKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("kafka brokers are required for kafka store")
		}
	default:
		return fmt.Errorf("unknown store backend: %s", c.Backend)
	}
	return nil
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("batch-size", uint64(2000))
	v.SetDefault("address-chunk", 500)
	v.SetDefault("checkpoint", "./data/checkpoint.json")
	v.SetDefault("checkpoint-enabled", true)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("sender-cache-size", 10000)
	v.SetDefault("log-level", "info")
	v.SetDefault("store", StoreJSONL)
	v.SetDefault("out", "./data/entities.jsonl")
	v.SetDefault("redis-prefix", "algebra")
	v.SetDefault("kafka-topic-prefix", "algebra")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func loadStore(v *viper.Viper) StoreConfig {
	return StoreConfig{
		Backend:        strings.ToLower(strings.TrimSpace(v.GetString("store"))),
		Out:            v.GetString("out"),
		PGDSN:          v.GetString("pg-dsn"),
		RedisAddr:      v.GetString("redis-addr"),
		RedisPassword:  v.GetString("redis-password"),
		RedisDB:        v.GetInt("redis-db"),
		RedisPrefix:    v.GetString("redis-prefix"),
		RedisStream:    v.GetBool("redis-stream"),
		KafkaBrokers:   getStringSlice(v, "kafka-brokers"),
		KafkaTopicBase: v.GetString("kafka-topic-prefix"),
	}
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
