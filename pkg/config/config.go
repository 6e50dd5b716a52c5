package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"FinSignal/pkg/util"
)

type Config struct {
	Environment   string              `yaml:"environment" default:"development" validate:"required,oneof=development staging production test"`
	Log           LogConfig           `yaml:"log"`
	Server        ServerConfig        `yaml:"server"`
	Metrics       MetricsConfig       `yaml:"metrics"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	ClickHouse    ClickHouseConfig    `yaml:"clickhouse"`
	Redis         RedisConfig         `yaml:"redis"`
	MarketContext MarketContextConfig `yaml:"market_context"`
	Scoring       ScoringConfig       `yaml:"scoring"`
	Temporal      TemporalConfig      `yaml:"temporal"`
	Decision      DecisionConfig      `yaml:"decision"`
	History       HistoryConfig       `yaml:"history"`
}

type LogConfig struct {
	Level      string `yaml:"level" default:"info" validate:"oneof=debug info warn error fatal panic"`
	Format     string `yaml:"format" default:"json" validate:"oneof=json console"`
	Output     string `yaml:"output" default:"stdout"`
	TimeFormat string `yaml:"time_format"`
	Collector  struct {
		Enabled        bool          `yaml:"enabled"`
		FlushInterval  time.Duration `yaml:"flush_interval" default:"30s"`
		CountThreshold int           `yaml:"count_threshold" default:"100" validate:"gte=1"`
	} `yaml:"collector"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	RateLimit       struct {
		RequestsPerSecond float64 `yaml:"requests_per_second" default:"20" validate:"gt=0"`
		Burst             int     `yaml:"burst" default:"40" validate:"gte=1"`
	} `yaml:"rate_limit"`
	TemporalCacheTTL time.Duration `yaml:"temporal_cache_ttl" default:"5s"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

type KafkaConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Brokers       []string `yaml:"brokers" validate:"required_if=Enabled true"`
	InputsTopic   string   `yaml:"inputs_topic" default:"sentiment.inputs"`
	SignalsTopic  string   `yaml:"signals_topic" default:"trading.signals"`
	WarningsTopic string   `yaml:"warnings_topic" default:"finsignal.warnings"`
	RequiredAcks  int      `yaml:"required_acks" default:"-1" validate:"oneof=-1 0 1"`
	Compression   string   `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
	Producer      struct {
		MaxAttempts  int           `yaml:"max_attempts" default:"5"`
		Linger       time.Duration `yaml:"linger" default:"10ms"`
		BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		Async        bool          `yaml:"async"`
	} `yaml:"producer"`
	Consumer struct {
		GroupID    string        `yaml:"group_id" default:"finsignal"`
		Workers    int           `yaml:"workers" default:"4" validate:"gte=1"`
		BufferSize int           `yaml:"buffer_size" default:"256"`
		RetryMax   int           `yaml:"retry_max" default:"3"`
		BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
		BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
		DLQTopic   string        `yaml:"dlq_topic" default:"sentiment.inputs.dlq"`
		MinBytes   int           `yaml:"min_bytes" default:"1"`
		MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
	} `yaml:"consumer"`
}

type ClickHouseConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Host             string        `yaml:"host" default:"localhost" validate:"required_if=Enabled true"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"finsignal"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	AsyncInsert      bool          `yaml:"async_insert"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	Breaker          struct {
		MaxFailures uint32        `yaml:"max_failures" default:"5"`
		OpenTimeout time.Duration `yaml:"open_timeout" default:"30s"`
	} `yaml:"breaker"`
	Retry struct {
		BufferSize int           `yaml:"buffer_size" default:"1000"`
		MaxRetries int           `yaml:"max_retries" default:"3"`
		Backoff    time.Duration `yaml:"backoff" default:"200ms"`
	} `yaml:"retry"`
}

type RedisConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Addr        string        `yaml:"addr" default:"localhost:6379" validate:"required_if=Enabled true"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	KeyPrefix   string        `yaml:"key_prefix" default:"finsignal:history:"`
	QueuePrefix string        `yaml:"queue_prefix" default:"finsignal:queue"`
	QueueMaxLen int64         `yaml:"queue_max_len" default:"10000" validate:"gte=0"`
	SnapshotTTL time.Duration `yaml:"snapshot_ttl" default:"720h"`
}

type MarketContextConfig struct {
	Enabled  bool          `yaml:"enabled"`
	URL      string        `yaml:"url" validate:"omitempty,url"`
	Timeout  time.Duration `yaml:"timeout" default:"3s"`
	Attempts int           `yaml:"attempts" default:"3" validate:"gte=1"`
	CacheTTL time.Duration `yaml:"cache_ttl" default:"1m"`
}

// ScoringConfig overrides the built-in calibration. Empty maps keep the defaults.
type ScoringConfig struct {
	Weights           map[string]float64 `yaml:"weights"`
	HalfLifeDays      float64            `yaml:"half_life_days" default:"5" validate:"gt=0"`
	DecayGrace        time.Duration      `yaml:"decay_grace" default:"6h"`
	VolatilityLow     float64            `yaml:"volatility_low" default:"0.15" validate:"gte=0"`
	VolatilityHigh    float64            `yaml:"volatility_high" default:"0.35" validate:"gtfield=VolatilityLow"`
	MultiplierMin     float64            `yaml:"multiplier_min" default:"0.7" validate:"gt=0"`
	MultiplierMax     float64            `yaml:"multiplier_max" default:"1.5" validate:"gtefield=MultiplierMin"`
	RegimeMultipliers map[string]float64 `yaml:"regime_multipliers"`
	LookbackDays      int                `yaml:"lookback_days" default:"252" validate:"gte=1"`
	MinSamples        int                `yaml:"min_samples" default:"30" validate:"gte=1,ltefield=LookbackDays"`
}

type TemporalConfig struct {
	Window      time.Duration `yaml:"window" default:"24h"`
	DecayFactor float64       `yaml:"decay_factor" default:"0.95" validate:"gt=0,lte=1"`
	Capacity    int           `yaml:"capacity" default:"200" validate:"gte=2"`
}

type ThresholdSet struct {
	BuyScore      float64 `yaml:"buy_score" json:"buy_score" validate:"gte=0,lte=100"`
	SellScore     float64 `yaml:"sell_score" json:"sell_score" validate:"gte=0,ltfield=BuyScore"`
	ZBuy          float64 `yaml:"z_buy" json:"z_buy"`
	ZSell         float64 `yaml:"z_sell" json:"z_sell" validate:"ltefield=ZBuy"`
	MinConfidence float64 `yaml:"min_confidence" json:"min_confidence" validate:"gte=0,lte=1"`
}

type DecisionConfig struct {
	RiskTolerance string       `yaml:"risk_tolerance" default:"moderate" validate:"oneof=conservative moderate aggressive"`
	Conservative  ThresholdSet `yaml:"conservative" default:"{\"buy_score\":75,\"sell_score\":25,\"z_buy\":1.5,\"z_sell\":-1.5,\"min_confidence\":0.7}"`
	Moderate      ThresholdSet `yaml:"moderate" default:"{\"buy_score\":65,\"sell_score\":35,\"z_buy\":1.0,\"z_sell\":-1.0,\"min_confidence\":0.6}"`
	Aggressive    ThresholdSet `yaml:"aggressive" default:"{\"buy_score\":58,\"sell_score\":42,\"z_buy\":0.5,\"z_sell\":-0.5,\"min_confidence\":0.5}"`
}

type HistoryConfig struct {
	MaxSignals int `yaml:"max_signals" default:"1000" validate:"gte=1"`
}

var validate = validator.New()

// Load reads a YAML configuration file on top of the struct defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse applies defaults, decodes YAML and validates.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// Default returns a validated configuration with every default applied and no file.
func Default() *Config {
	c, err := Parse(nil)
	if err != nil {
		panic(fmt.Sprintf("default config invalid: %v", err))
	}
	return c
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := getenv("RISK_TOLERANCE"); v != "" {
		c.Decision.RiskTolerance = strings.ToLower(v)
	}
	if v := getenv("HTTP_PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
}

// Validate runs the struct tag rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.MarketContext.Enabled && c.MarketContext.URL == "" {
		return fmt.Errorf("market_context.url is required when market_context is enabled")
	}
	if c.Scoring.Weights != nil {
		sum := 0.0
		for _, w := range c.Scoring.Weights {
			sum += w
		}
		if sum < 1-1e-6 || sum > 1+1e-6 {
			return fmt.Errorf("scoring.weights must sum to 1, got %v", sum)
		}
	}
	return nil
}
