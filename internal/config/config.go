// Package config предоставялет структуры и функции для парсинга и загрузки конфига
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Окружения, в которых в ответах допускается текст внутренней ошибки.
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                  string `yaml:"env" env:"ENV" env-default:"local"`
	AdminRegistrationKey string `yaml:"admin_registration_key" env:"ADMIN_REGISTRATION_KEY"`
	HTTPServer           `yaml:"http_server"`
	Storage              `yaml:"storage"`
	JWTToken             `yaml:"jwttoken"`
	RedisConnection      `yaml:"redis_connection"`
	RabbitMQ             `yaml:"rabbitmq"`
	RateLimit            `yaml:"rate_limit"`
	Subscription         `yaml:"subscription"`
	Sweeper              `yaml:"sweeper"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP    string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":5000"`
	TimeoutHTTP    time.Duration `yaml:"timeouthttp" env:"HTTP_TIMEOUT" env-default:"10s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-default:"*"`
}

// Storage структура для настройки подключения к PostgreSQL
type Storage struct {
	StorageConnectionString string        `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string        `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	MaxConns                int32         `yaml:"max_conns" env:"STORAGE_MAX_CONNS" env-default:"20"`
	QueryTimeout            time.Duration `yaml:"query_timeout" env:"STORAGE_QUERY_TIMEOUT" env-default:"5s"`
}

// JWTToken структура для работы с jwt-токенами
type JWTToken struct {
	AccessSecretKey  string        `yaml:"access_secret_key" env:"JWT_ACCESS_SECRET"`
	RefreshSecretKey string        `yaml:"refresh_secret_key" env:"JWT_REFRESH_SECRET"`
	AccessTokenTTL   time.Duration `yaml:"access_token_ttl" env:"JWT_ACCESS_TTL" env-default:"15m"`
	RefreshTokenTTL  time.Duration `yaml:"refresh_token_ttl" env:"JWT_REFRESH_TTL" env-default:"168h"`
}

// RedisConnection структура для настройки подключения к redis.
// Пустой адрес отключает кеш каталога планов.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user" env:"REDIS_USER"`
	DB           int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	MaxRetries   int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env:"REDIS_TIMEOUT" env-default:"3s"`
	PlansTTL     time.Duration `yaml:"plans_ttl" env:"REDIS_PLANS_TTL" env-default:"10m"`
}

// RabbitMQ структура для настройки публикации событий подписок.
// Пустой URL отключает публикацию.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env:"RABBITMQ_MAX_RETRIES" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env:"RABBITMQ_RETRY_DELAY" env-default:"2s"`
}

// RateLimit ограничивает частоту запросов к эндпоинтам аутентификации.
type RateLimit struct {
	RequestsPerSecond float64 `yaml:"rps" env:"RATE_LIMIT_RPS" env-default:"5"`
	Burst             int     `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"10"`
}

// Subscription настройки движка подписок и админских выборок.
type Subscription struct {
	Timezone         string `yaml:"timezone" env:"SUBSCRIPTION_TIMEZONE" env-default:"UTC"`
	AdminMaxPageSize int    `yaml:"admin_max_page_size" env:"ADMIN_MAX_PAGE_SIZE" env-default:"100"`
}

// Sweeper настройки фонового перевода просроченных подписок в expired.
type Sweeper struct {
	Interval time.Duration `yaml:"interval" env:"SWEEPER_INTERVAL" env-default:"1h"`
}

// Load читает .env (если есть), затем YAML из CONFIG_PATH или только переменные окружения,
// и проверяет обязательные секреты.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	configPath := os.Getenv("CONFIG_PATH")
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("file: %s - does not exist", configPath)
		}
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("cannot read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("cannot read env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad функция для загрузки конфига, завершает процесс при ошибке
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

func (c *Config) validate() error {
	if c.StorageConnectionString == "" {
		return errors.New("storage_connection_string is required")
	}
	if c.AccessSecretKey == "" || c.RefreshSecretKey == "" {
		return errors.New("both jwt access and refresh secrets are required")
	}
	if c.AccessSecretKey == c.RefreshSecretKey {
		return errors.New("jwt access and refresh secrets must differ")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid subscription timezone %q: %w", c.Timezone, err)
	}
	if c.AdminMaxPageSize <= 0 {
		return errors.New("admin_max_page_size must be positive")
	}
	return nil
}

// ExposeErrors сообщает, можно ли отдавать клиенту текст внутренних ошибок.
func (c *Config) ExposeErrors() bool {
	return c.Env == EnvLocal || c.Env == EnvDev
}

// Location возвращает часовой пояс для календарной арифметики подписок.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Storage:\n"+
			"  ConnectionString: %s\n"+
			"  MaxConns: %d\n"+
			"  QueryTimeout: %s\n"+
			"JWTToken:\n"+
			"  AccessSecretKey: %s\n"+
			"  RefreshSecretKey: %s\n"+
			"  AccessTTL: %s\n"+
			"  RefreshTTL: %s\n"+
			"AdminRegistrationKey: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"RabbitMQ:\n"+
			"  URL: %s\n"+
			"Subscription:\n"+
			"  Timezone: %s\n"+
			"  AdminMaxPageSize: %d\n",
		c.Env,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		mask(c.StorageConnectionString),
		c.MaxConns,
		c.QueryTimeout,
		mask(c.AccessSecretKey),
		mask(c.RefreshSecretKey),
		c.AccessTokenTTL,
		c.RefreshTokenTTL,
		mask(c.AdminRegistrationKey),
		c.AddressRedis,
		mask(c.RabbitMQURL),
		c.Timezone,
		c.AdminMaxPageSize,
	)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
