package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the API server.
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	Env      string `env:"ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	PostgresURL   string `env:"POSTGRES_CONN_STR,required,notEmpty"`
	MongoURI      string `env:"MONGO_URI,required,notEmpty"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"socialmedia"`

	JWTSecret        string        `env:"JWT_SECRET" envDefault:"supersecretjwtkey"`
	AccessTokenTTL   time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"72h"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET" envDefault:"supersecretrefreshkey"`
	RefreshTokenTTL  time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"720h"`

	FirebaseCredentialsPath string `env:"FIREBASE_CREDENTIALS_PATH"`
	ClientURL               string `env:"CLIENT_URL" envDefault:"*"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"notifications"`

	S3Bucket   string `env:"AWS_BUCKET_NAME"`
	S3Region   string `env:"AWS_REGION" envDefault:"us-east-1"`
	S3Endpoint string `env:"AWS_S3_ENDPOINT"`

	WSPingInterval time.Duration `env:"WS_PING_INTERVAL" envDefault:"25s"`
	WSWriteTimeout time.Duration `env:"WS_WRITE_TIMEOUT" envDefault:"10s"`
	WSSendBuffer   int           `env:"WS_SEND_BUFFER" envDefault:"64"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load() (*Config, error) {
	// A missing .env is fine, the variables may come from the process environment.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.WSSendBuffer <= 0 {
		return nil, fmt.Errorf("WS_SEND_BUFFER must be positive, got %d", cfg.WSSendBuffer)
	}
	if cfg.JWTRefreshSecret == cfg.JWTSecret {
		return nil, fmt.Errorf("JWT_REFRESH_SECRET must differ from JWT_SECRET")
	}
	return cfg, nil
}

// IsDevelopment reports whether the server runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
