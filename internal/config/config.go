// config предоставляет структуру конфигурации сервиса и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация сервиса.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig    `yaml:"http"`
	Metrics  MetricsConfig `yaml:"metrics"`
	JWT      JWTConfig     `yaml:"jwt"`
	DB       DBConfig      `yaml:"db"`
	AWS      AWSConfig     `yaml:"aws"`
	S3       S3Config      `yaml:"s3"`
	OAuth2   OAuth2Config  `yaml:"oauth2"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"5s"`
}

// HTTPConfig — сетевые настройки HTTP API.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"50080"`
}

// MetricsConfig — адрес служебного HTTP (livez/healthz/metrics).
type MetricsConfig struct {
	Host string `yaml:"host" env:"METRICS_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"METRICS_PORT" env-default:"50081"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// Addr возвращает адрес в формате host:port.
func (m MetricsConfig) Addr() string {
	return net.JoinHostPort(m.Host, m.Port)
}

// JWTConfig — параметры выпуска и валидации токенов.
//
// Ключи — PEM в base64 (приватный для подписи, публичный для проверки).
// Срок жизни задаётся в секундах; значение ровно -1 означает «бессрочно»
// (в claims попадает exp=0, и проверка срока отключается).
type JWTConfig struct {
	PrivateKeyBase64  string `yaml:"private_key_base64" env:"JWT_PRIVATE_KEY_BASE64" env-required:"true"`
	PublicKeyBase64   string `yaml:"public_key_base64" env:"JWT_PUBLIC_KEY_BASE64" env-required:"true"`
	Algorithm         string `yaml:"algorithm" env:"JWT_ALGORITHM" env-default:"RS256"`
	AccessExpSeconds  int64  `yaml:"access_expiration_seconds" env:"JWT_ACCESS_EXPIRATION_SECONDS" env-default:"900"`
	RefreshExpSeconds int64  `yaml:"refresh_expiration_seconds" env:"JWT_REFRESH_EXPIRATION_SECONDS" env-default:"2592000"`
}

// DBConfig — настройки подключения к базе данных.
// Нулевые лимиты пула оставляют значения pgxpool по умолчанию.
type DBConfig struct {
	DatabaseURL string `yaml:"db_url" env:"DATABASE_URL" env-required:"true"`
	MaxConns    int32  `yaml:"max_conns" env:"DB_MAX_CONNS" env-default:"0"`
	MinConns    int32  `yaml:"min_conns" env:"DB_MIN_CONNS" env-default:"0"`
}

// AWSConfig — общие настройки AWS-клиентов и реестр очередей.
// Endpoint непустой только в local-окружении (localstack и т.п.).
type AWSConfig struct {
	Region          string               `yaml:"region" env:"AWS_REGION" env-default:"eu-central-1"`
	Endpoint        string               `yaml:"endpoint" env:"AWS_ENDPOINT"`
	AccessKeyID     string               `yaml:"access_key_id" env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string               `yaml:"secret_access_key" env:"AWS_SECRET_ACCESS_KEY"`
	Jobs            map[string]JobConfig `yaml:"jobs"`
}

// JobConfig — параметры одного вида фоновых задач (job kind).
//
// Каждому виду соответствует своя очередь и собственный набор реплик
// консьюмера. DelaySeconds применяется продюсером только в диапазоне
// [1, 900] — вне диапазона сообщение отправляется без задержки.
type JobConfig struct {
	QueueURL            string `yaml:"queue_url"`
	Replicas            int    `yaml:"replicas"`
	WaitTimeSeconds     int32  `yaml:"wait_time_seconds"`
	MaxNumberOfMessages int32  `yaml:"max_number_of_messages"`
	VisibilityTimeout   int32  `yaml:"visibility_timeout"`
	DelaySeconds        int32  `yaml:"delay_seconds"`
}

// S3Config — объектное хранилище аватаров (MinIO/S3-совместимое).
type S3Config struct {
	Endpoint      string        `yaml:"endpoint" env:"S3_ENDPOINT"`
	AccessKey     string        `yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey     string        `yaml:"secret_key" env:"S3_SECRET_KEY"`
	Bucket        string        `yaml:"bucket" env:"S3_BUCKET" env-default:"avatars"`
	PublicBaseURL string        `yaml:"public_base_url" env:"S3_PUBLIC_BASE_URL"`
	PresignTTL    time.Duration `yaml:"presign_ttl" env:"S3_PRESIGN_TTL" env-default:"15m"`
	MaxAvatarSize int64         `yaml:"max_avatar_size" env:"S3_MAX_AVATAR_SIZE" env-default:"5242880"`

	AllowedContentTypes []string `yaml:"allowed_content_types" env:"S3_ALLOWED_CONTENT_TYPES" env-default:"image/jpeg,image/png,image/webp"`
}

// OAuth2Config — параметры внешних identity-провайдеров.
type OAuth2Config struct {
	Google OAuth2ProviderConfig `yaml:"google"`
}

// OAuth2ProviderConfig — настройки одного OAuth2-провайдера.
type OAuth2ProviderConfig struct {
	ClientID     string   `yaml:"client_id" env:"OAUTH2_GOOGLE_CLIENT_ID"`
	ClientSecret string   `yaml:"client_secret" env:"OAUTH2_GOOGLE_CLIENT_SECRET"`
	AuthURL      string   `yaml:"auth_url"`
	TokenURL     string   `yaml:"token_url"`
	RedirectURL  string   `yaml:"redirect_url"`
	UserInfoURL  string   `yaml:"user_info_url"`
	Scopes       []string `yaml:"scopes"`
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// ВАЖНО: после чтения файла накладываем ENV-переменные поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	// чтение файла + overlay ENV.
	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 1) Явный путь.
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, nil
}
