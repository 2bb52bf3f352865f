package config

import (
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// ConfigPathEnv 設定檔路徑，未設定時讀取工作目錄下的 .env
const ConfigPathEnv = "DEVSTORE_CONFIG"

/*
把 init 跟 read 分開
init : 設置 viper watch 與 onConfigChange
read : 一般讀取，需要使用讀寫鎖
*/
var configSingleton *ConfigSingleton
var muonce sync.Once

type ConfigSingleton struct {
	Config *Config
	mu     sync.RWMutex
}

type Config struct {
	ServiceName string `mapstructure:"SERVICE_NAME"`
	ServerPort  string `mapstructure:"SERVER_PORT"`

	DbName string `mapstructure:"POSTGRES_DB"`
	DbHost string `mapstructure:"POSTGRES_HOST"`
	DbPort string `mapstructure:"POSTGRES_PORT"`
	DbUser string `mapstructure:"POSTGRES_USER"`
	DbPas  string `mapstructure:"POSTGRES_PASSWORD"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	KafkaBrokers        string        `mapstructure:"KAFKA_BROKERS"`
	KafkaCartEventTopic string        `mapstructure:"KAFKA_CART_EVENT_TOPIC"`
	KafkaConsumerGroup  string        `mapstructure:"KAFKA_CONSUMER_GROUP"`
	KafkaPartitions     int           `mapstructure:"KAFKA_PARTITIONS"`
	KafkaWorkerNum      int           `mapstructure:"KAFKA_WORKER_NUM"`
	KafkaHandleRetries  int           `mapstructure:"KAFKA_HANDLE_RETRIES"`
	KafkaHandleBackoff  time.Duration `mapstructure:"KAFKA_HANDLE_BACKOFF"`

	CartLockTTL   time.Duration `mapstructure:"CART_LOCK_TTL"`
	EventDedupTTL time.Duration `mapstructure:"EVENT_DEDUP_TTL"`
	SweepInterval time.Duration `mapstructure:"SWEEP_INTERVAL"`
	SweepMinAge   time.Duration `mapstructure:"SWEEP_MIN_AGE"`

	// RATE_LIMIT_CAPACITY <= 0 時關閉購物車寫入限流
	RateLimitCapacity int     `mapstructure:"RATE_LIMIT_CAPACITY"`
	RateLimitRate     float64 `mapstructure:"RATE_LIMIT_RATE"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
	SeedFile  string `mapstructure:"SEED_FILE"`
}

// Brokers KAFKA_BROKERS 以逗號分隔
func (c *Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

var defaults = map[string]any{
	"SERVICE_NAME":           "devstore",
	"SERVER_PORT":            "8080",
	"POSTGRES_DB":            "devstore",
	"POSTGRES_HOST":          "localhost",
	"POSTGRES_PORT":          "5432",
	"POSTGRES_USER":          "royce",
	"POSTGRES_PASSWORD":      "password",
	"REDIS_ADDR":             "localhost:6379",
	"REDIS_PASSWORD":         "",
	"REDIS_DB":               0,
	"KAFKA_BROKERS":          "localhost:9092",
	"KAFKA_CART_EVENT_TOPIC": "cart-events",
	"KAFKA_CONSUMER_GROUP":   "devstore-reconciliation",
	"KAFKA_PARTITIONS":       6,
	"KAFKA_WORKER_NUM":       4,
	"KAFKA_HANDLE_RETRIES":   3,
	"KAFKA_HANDLE_BACKOFF":   "200ms",
	"CART_LOCK_TTL":          "30s",
	"EVENT_DEDUP_TTL":        "168h",
	"SWEEP_INTERVAL":         "1m",
	"SWEEP_MIN_AGE":          "1m",
	"RATE_LIMIT_CAPACITY":    20,
	"RATE_LIMIT_RATE":        5,
	"LOG_LEVEL":              "info",
	"LOG_FORMAT":             "json",
	"SEED_FILE":              "configs/seed.yaml",
}

func GetConfig() *Config {
	initConfig()
	configSingleton.mu.RLock()
	defer configSingleton.mu.RUnlock()
	return configSingleton.Config
}

func initConfig() {
	muonce.Do(func() {
		configSingleton = &ConfigSingleton{}
		v := viper.GetViper()
		path := configPath()
		cf, err := LoadConfig(v, path)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to read config")
		}
		configSingleton.Config = cf

		// 沒有設定檔時只用環境變數，不需要 watch
		if _, err := os.Stat(path); err != nil {
			return
		}
		v.OnConfigChange(func(e fsnotify.Event) {
			cf, err := LoadConfig(v, "")
			if err != nil {
				log.Error().Err(err).Str("file", e.Name).Msg("failed to reload config, keep previous one")
				return
			}
			configSingleton.mu.Lock()
			configSingleton.Config = cf
			configSingleton.mu.Unlock()
			log.Info().Str("file", e.Name).Msg("config reloaded")
		})
		v.WatchConfig()
	})
}

func configPath() string {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p
	}
	return ".env"
}

// LoadConfig 讀取設定檔並套用環境變數，設定檔不存在時只使用預設值與環境變數
// path 為空時沿用 v 目前的設定檔
// 單純回傳錯誤，由外部決定要不要 Fatal
func LoadConfig(v *viper.Viper, path string) (*Config, error) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cf := &Config{}
	if err := v.Unmarshal(cf); err != nil {
		return nil, err
	}
	return cf, nil
}
