package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

var ErrConfigPathIsEmpty = errors.New("config path is empty")

type Config struct {
	App        `yaml:"app"`
	Logger     `yaml:"log"`
	Database   `yaml:"database"`
	Redis      `yaml:"redis"`
	HTTPServer `yaml:"http_server"`
	Kafka      `yaml:"kafka"`
	RabbitMQ   `yaml:"rabbitmq"`
	Outbox     `yaml:"outbox"`
	Withdrawal `yaml:"withdrawal"`
	Gateway    `yaml:"gateway"`
}

type App struct {
	ServiceName string `yaml:"service_name" env:"APP_SERVICE_NAME" env-default:"withdrawal-service"`
	Version     string `yaml:"version"      env:"APP_VERSION"      env-default:"0.1.0"`
}

type Logger struct {
	Level      string   `yaml:"level"       env:"LOG_LEVEL" env-default:"info"`
	FormatJSON bool     `yaml:"format_json" env:"LOG_FORMAT_JSON"`
	Rotation   Rotation `yaml:"rotation"`
}

type Rotation struct {
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"    env-default:"100"`
	MaxBackups int    `yaml:"max_backups" env-default:"3"`
	MaxAge     int    `yaml:"max_age"     env-default:"28"`
}

type Database struct {
	Host      string    `yaml:"host"      env:"DB_HOST"     env-default:"localhost"`
	Port      uint16    `yaml:"port"      env:"DB_PORT"     env-default:"5432"`
	User      string    `yaml:"user"      env:"DB_USER"`
	Password  string    `yaml:"password"  env:"DB_PASSWORD"`
	Name      string    `yaml:"name"      env:"DB_NAME"`
	SSLMode   string    `yaml:"ssl_mode"  env:"DB_SSL_MODE" env-default:"disable"`
	MaxConns  int32     `yaml:"max_conns"`
	MinConns  int32     `yaml:"min_conns"`
	Migration Migration `yaml:"migration"`
}

type Migration struct {
	Path      string `yaml:"path"       env-default:"migrations"`
	AutoApply bool   `yaml:"auto_apply"`
}

type Redis struct {
	Enable           bool          `yaml:"enable"             env:"REDIS_ENABLE"`
	Host             string        `yaml:"host"               env:"REDIS_HOST"     env-default:"localhost"`
	Port             uint16        `yaml:"port"               env:"REDIS_PORT"     env-default:"6379"`
	Password         string        `yaml:"password"           env:"REDIS_PASSWORD"`
	DB               int           `yaml:"db"`
	PaymentMethodTTL time.Duration `yaml:"payment_method_ttl" env-default:"10m"`
}

type HTTPServer struct {
	Host     string  `yaml:"host"      env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port     uint16  `yaml:"port"      env:"HTTP_PORT" env-default:"8080"`
	BasePath string  `yaml:"base_path" env-default:"/api/v1"`
	Timeout  Timeout `yaml:"timeout"`
	CORS     CORS    `yaml:"cors"`
}

type Timeout struct {
	Request time.Duration `yaml:"request" env-default:"10s"`
	Read    time.Duration `yaml:"read"    env-default:"10s"`
	Write   time.Duration `yaml:"write"   env-default:"10s"`
	Idle    time.Duration `yaml:"idle"    env-default:"60s"`
}

type CORS struct {
	Enabled          bool          `yaml:"enabled"`
	AllowAllOrigins  bool          `yaml:"allow_all_origins"`
	AllowOrigins     []string      `yaml:"allow_origins"`
	AllowMethods     []string      `yaml:"allow_methods"`
	AllowHeaders     []string      `yaml:"allow_headers"`
	ExposeHeaders    []string      `yaml:"expose_headers"`
	AllowCredentials bool          `yaml:"allow_credentials"`
	MaxAge           time.Duration `yaml:"max_age"`
}

type Kafka struct {
	Brokers    []string   `yaml:"brokers"    env:"KAFKA_BROKERS" env-separator:","`
	Subscriber Subscriber `yaml:"subscriber"`
	Producer   Producer   `yaml:"producer"`
}

type Subscriber struct {
	Enable      bool   `yaml:"enable"`
	Name        string `yaml:"name"         env-default:"settlement-subscriber"`
	WorkerCount int    `yaml:"worker_count" env-default:"2"`
	Topic       string `yaml:"topic"        env-default:"withdrawal-settlements"`
	GroupID     string `yaml:"group_id"     env-default:"withdrawal-service"`
}

type Producer struct {
	Topic      string `yaml:"topic"       env-default:"withdrawal-events"`
	MaxRetries int    `yaml:"max_retries" env-default:"3"`
}

type RabbitMQ struct {
	URL          string        `yaml:"url"           env:"RABBITMQ_URL"`
	Queue        string        `yaml:"queue"         env-default:"withdrawal-events"`
	DialAttempts int           `yaml:"dial_attempts" env-default:"10"`
	DialBackoff  time.Duration `yaml:"dial_backoff"  env-default:"2s"`
}

const (
	ChannelKafka    = "kafka"
	ChannelRabbitMQ = "rabbitmq"
	ChannelLog      = "log"
)

type Outbox struct {
	Channel           string        `yaml:"channel"            env:"OUTBOX_CHANNEL"`
	MaxRetries        int           `yaml:"max_retries"        env:"OUTBOX_MAX_RETRIES"`
	PollInterval      time.Duration `yaml:"poll_interval"      env:"OUTBOX_POLL_INTERVAL"`
	BatchSize         int           `yaml:"batch_size"`
	WorkerCount       int           `yaml:"worker_count"`
	PublishTimeout    time.Duration `yaml:"publish_timeout"`
	ProcessingTimeout time.Duration `yaml:"processing_timeout"`
}

// Normalize fills unset outbox settings with their defaults.
func (o *Outbox) Normalize() {
	if o.Channel == "" {
		o.Channel = ChannelKafka
	}

	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}

	if o.PollInterval <= 0 {
		o.PollInterval = 5 * time.Second
	}

	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}

	if o.WorkerCount <= 0 {
		o.WorkerCount = 4
	}

	if o.PublishTimeout <= 0 {
		o.PublishTimeout = 10 * time.Second
	}

	if o.ProcessingTimeout <= 0 {
		o.ProcessingTimeout = 5 * time.Minute
	}
}

type Withdrawal struct {
	PollInterval   time.Duration `yaml:"poll_interval"   env:"WITHDRAWAL_POLL_INTERVAL" env-default:"5s"`
	ProcessTimeout time.Duration `yaml:"process_timeout" env-default:"30s"`
	PersistTimeout time.Duration `yaml:"persist_timeout" env-default:"10s"`
	RecoverPending bool          `yaml:"recover_pending" env-default:"true"`
}

type Gateway struct {
	MaxAmount string        `yaml:"max_amount"`
	Latency   time.Duration `yaml:"latency"`
	Breaker   Breaker       `yaml:"breaker"`
}

type Breaker struct {
	MaxRequests      uint32        `yaml:"max_requests"      env-default:"1"`
	Interval         time.Duration `yaml:"interval"          env-default:"60s"`
	Timeout          time.Duration `yaml:"timeout"           env-default:"30s"`
	FailureThreshold uint32        `yaml:"failure_threshold" env-default:"5"`
}

func MustLoadConfig() *Config {
	cfg, err := LoadConfig()
	if err != nil {
		panic(err)
	}

	return cfg
}

func LoadConfig() (*Config, error) {
	path := fetchConfigPath()
	if path == "" {
		return nil, ErrConfigPathIsEmpty
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var config Config

	if err := cleanenv.ReadConfig(path, &config); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	config.Outbox.Normalize()

	return &config, nil
}

func MustPrintConfig(cfg *Config) {
	if err := PrintConfig(cfg); err != nil {
		panic(err)
	}
}

func PrintConfig(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	println(string(data))

	return nil
}

func fetchConfigPath() string {
	var result string

	flag.StringVar(&result, "config", "", "Path to config file")
	flag.Parse()

	if result == "" {
		result = os.Getenv("CONFIG_PATH")
	}

	return result
}
