package conf

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/kr/pretty"
	"gopkg.in/validator.v2"
	"gopkg.in/yaml.v2"
)

var (
	conf *Config
	once sync.Once
)

type Config struct {
	Env      string
	Hertz    Hertz    `yaml:"hertz"`
	Postgres Postgres `yaml:"postgres"`
	Redis    Redis    `yaml:"redis"`
	Kafka    Kafka    `yaml:"kafka"`
	Registry Registry `yaml:"registry"`
	Market   Market   `yaml:"market"`
	Ledger   Ledger   `yaml:"ledger"`
}

type Postgres struct {
	DSN          string        `yaml:"dsn" validate:"nonzero"`
	MaxOpenConns int32         `yaml:"max_open_conns"`
	LockTimeout  time.Duration `yaml:"lock_timeout"`
}

// Redis is optional, an empty address disables the quote cache.
type Redis struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	Username string `yaml:"username"`
	DB       int    `yaml:"db"`
}

// Kafka topics are keyed by purpose, e.g. "ledger_events".
type Kafka struct {
	Brokers []string          `yaml:"brokers"`
	Topics  map[string]string `yaml:"topics"`
}

type Registry struct {
	RegistryAddress []string `yaml:"registry_address"`
	Username        string   `yaml:"username"`
	Password        string   `yaml:"password"`
}

type Market struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type Ledger struct {
	CommissionRate       float64       `yaml:"commission_rate"`
	DefaultTxLimit       int           `yaml:"default_tx_limit"`
	MaxTxLimit           int           `yaml:"max_tx_limit"`
	PriceRefreshInterval time.Duration `yaml:"price_refresh_interval"`
	PriceWorkers         int           `yaml:"price_workers"`
	PriceBatchSize       int           `yaml:"price_batch_size"`
	PriceCacheTTL        time.Duration `yaml:"price_cache_ttl"`
	EventQueueSize       int           `yaml:"event_queue_size"`
	RefreshLockKey       string        `yaml:"refresh_lock_key"`
}

type Hertz struct {
	Service         string `yaml:"service" validate:"nonzero"`
	Address         string `yaml:"address" validate:"nonzero"`
	EnablePprof     bool   `yaml:"enable_pprof"`
	EnableGzip      bool   `yaml:"enable_gzip"`
	EnableAccessLog bool   `yaml:"enable_access_log"`
	LogLevel        string `yaml:"log_level"`
	LogFileName     string `yaml:"log_file_name"`
	LogMaxSize      int    `yaml:"log_max_size"`
	LogMaxBackups   int    `yaml:"log_max_backups"`
	LogMaxAge       int    `yaml:"log_max_age"`
}

// GetConf gets configuration instance
func GetConf() *Config {
	once.Do(initConf)
	return conf
}

func initConf() {
	confFileRelPath := filepath.Join("conf", GetEnv(), "conf.yaml")
	c, err := LoadFrom(confFileRelPath)
	if err != nil {
		hlog.Errorf("load config error - %v", err)
		panic(err)
	}
	conf = c
	pretty.Printf("%+v\n", conf)
}

// LoadFrom reads, overrides from the environment, defaults and validates a config file.
func LoadFrom(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := new(Config)
	if err := yaml.Unmarshal(content, c); err != nil {
		return nil, err
	}
	c.applyEnv()
	c.applyDefaults()
	if err := validator.Validate(c); err != nil {
		return nil, err
	}
	c.Env = GetEnv()
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LEDGER_POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("LEDGER_REDIS_ADDR"); v != "" {
		c.Redis.Address = v
	}
	if v := os.Getenv("LEDGER_KAFKA_BROKERS"); v != "" {
		var brokers []string
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		c.Kafka.Brokers = brokers
	}
	if v := os.Getenv("LEDGER_HTTP_ADDR"); v != "" {
		c.Hertz.Address = v
	}
}

func (c *Config) applyDefaults() {
	l := &c.Ledger
	if l.CommissionRate < 0 {
		l.CommissionRate = 0
	}
	if l.DefaultTxLimit <= 0 {
		l.DefaultTxLimit = 50
	}
	if l.MaxTxLimit <= 0 {
		l.MaxTxLimit = 500
	}
	if l.PriceRefreshInterval <= 0 {
		l.PriceRefreshInterval = time.Minute
	}
	if l.PriceWorkers <= 0 {
		l.PriceWorkers = 8
	}
	if l.PriceBatchSize <= 0 {
		l.PriceBatchSize = 50
	}
	if l.PriceCacheTTL <= 0 {
		l.PriceCacheTTL = 30 * time.Second
	}
	if l.EventQueueSize <= 0 {
		l.EventQueueSize = 10000
	}
	if l.RefreshLockKey == "" {
		l.RefreshLockKey = "ledger/price_refresh_lock"
	}
	if c.Postgres.LockTimeout <= 0 {
		c.Postgres.LockTimeout = 5 * time.Second
	}
	if c.Market.Timeout <= 0 {
		c.Market.Timeout = 3 * time.Second
	}
}

// EventsTopic returns the topic ledger events are written to, empty when Kafka is off.
func (c *Config) EventsTopic() string {
	if len(c.Kafka.Brokers) == 0 {
		return ""
	}
	if t := c.Kafka.Topics["ledger_events"]; t != "" {
		return t
	}
	return "ledger_events"
}

func GetEnv() string {
	e := os.Getenv("GO_ENV")
	if len(e) == 0 {
		return "test"
	}
	return e
}

func LogLevel() hlog.Level {
	level := GetConf().Hertz.LogLevel
	switch level {
	case "trace":
		return hlog.LevelTrace
	case "debug":
		return hlog.LevelDebug
	case "info":
		return hlog.LevelInfo
	case "notice":
		return hlog.LevelNotice
	case "warn":
		return hlog.LevelWarn
	case "error":
		return hlog.LevelError
	case "fatal":
		return hlog.LevelFatal
	default:
		return hlog.LevelInfo
	}
}
