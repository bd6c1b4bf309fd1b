package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

const (
	BackendDynamoDB = "dynamodb"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	DynamoDB  DynamoDBConfig  `mapstructure:"dynamodb"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Redis     RedisConfig     `mapstructure:"redis"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port                  int    `mapstructure:"port"`
	Mode                  string `mapstructure:"mode"`
	ReadTimeoutSeconds    int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds   int    `mapstructure:"write_timeout_seconds"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds"`
}

func (s ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

type StoreConfig struct {
	Backend string `mapstructure:"backend"`
}

type DynamoDBConfig struct {
	Region           string `mapstructure:"region"`
	Endpoint         string `mapstructure:"endpoint"`
	DoctorsTable     string `mapstructure:"doctors_table"`
	PatientsTable    string `mapstructure:"patients_table"`
	VisitsTable      string `mapstructure:"visits_table"`
	DoctorItemsTable string `mapstructure:"doctor_items_table"`
	UsernameIndex    string `mapstructure:"username_index"`
	VisitIDIndex     string `mapstructure:"visit_id_index"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

func (j JWTConfig) TTL() time.Duration {
	return time.Duration(j.ExpiryHours) * time.Hour
}

type AuthConfig struct {
	MaxLoginAttempts int `mapstructure:"max_login_attempts"`
	LockoutMinutes   int `mapstructure:"lockout_minutes"`
	BcryptCost       int `mapstructure:"bcrypt_cost"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"rps"`
	Burst             int     `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RedisConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Channel string `mapstructure:"channel"`
}

type SMTPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 15)
	v.SetDefault("server.request_timeout_seconds", 30)

	v.SetDefault("store.backend", BackendDynamoDB)

	v.SetDefault("dynamodb.region", "us-east-1")
	v.SetDefault("dynamodb.endpoint", "")
	v.SetDefault("dynamodb.doctors_table", "doctors")
	v.SetDefault("dynamodb.patients_table", "patients")
	v.SetDefault("dynamodb.visits_table", "visits")
	v.SetDefault("dynamodb.doctor_items_table", "doctor-items")
	v.SetDefault("dynamodb.username_index", "username-index")
	v.SetDefault("dynamodb.visit_id_index", "visit-id-index")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "visit_logger")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "visit-logger")
	v.SetDefault("jwt.expiry_hours", 24)

	v.SetDefault("auth.max_login_attempts", 5)
	v.SetDefault("auth.lockout_minutes", 15)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.rps", 20)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.channel", "visit-logger.events")

	v.SetDefault("smtp.enabled", false)
	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "visit_logger")
}

// Load reads configuration from defaults, an optional YAML file and the
// environment (SERVER_PORT, JWT_SECRET, ...). An empty path searches ./ and ./config.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// lambdaEnv mirrors the environment the serverless deployment provides.
type lambdaEnv struct {
	JWTSecret        string   `envconfig:"JWT_SECRET" required:"true"`
	Region           string   `envconfig:"AWS_REGION" default:"us-east-1"`
	Endpoint         string   `envconfig:"AWS_ENDPOINT"`
	DoctorsTable     string   `envconfig:"DYNAMODB_DOCTORS_TABLE" default:"doctors"`
	PatientsTable    string   `envconfig:"DYNAMODB_PATIENTS_TABLE" default:"patients"`
	VisitsTable      string   `envconfig:"DYNAMODB_VISITS_TABLE" default:"visits"`
	DoctorItemsTable string   `envconfig:"DYNAMODB_DOCTOR_ITEMS_TABLE" default:"doctor-items"`
	LogLevel         string   `envconfig:"LOG_LEVEL" default:"info"`
	RedisURL         string   `envconfig:"REDIS_URL"`
	AllowedOrigins   []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// LoadFromEnv builds a DynamoDB-backed configuration from the Lambda environment.
func LoadFromEnv() (*Config, error) {
	var env lambdaEnv
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Store.Backend = BackendDynamoDB
	cfg.JWT.Secret = env.JWTSecret
	cfg.DynamoDB.Region = env.Region
	cfg.DynamoDB.Endpoint = env.Endpoint
	cfg.DynamoDB.DoctorsTable = env.DoctorsTable
	cfg.DynamoDB.PatientsTable = env.PatientsTable
	cfg.DynamoDB.VisitsTable = env.VisitsTable
	cfg.DynamoDB.DoctorItemsTable = env.DoctorItemsTable
	cfg.Log.Level = env.LogLevel
	cfg.CORS.AllowedOrigins = env.AllowedOrigins
	// API Gateway throttles in front of the function.
	cfg.RateLimit.Enabled = false
	if env.RedisURL != "" {
		cfg.Redis.Enabled = true
		cfg.Redis.URL = env.RedisURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendDynamoDB, BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.JWT.Secret == "" && c.Store.Backend != BackendMemory {
		return errors.New("jwt.secret is required")
	}
	if c.JWT.ExpiryHours <= 0 {
		return errors.New("jwt.expiry_hours must be positive")
	}
	return nil
}
