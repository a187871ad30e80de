package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// EnvConfig lists the DATAHUB_* variables. Unset variables keep the value
// already in Config.
type EnvConfig struct {
	EndpointAddrHTTP string        `env:"DATAHUB_HTTP_ADDR"`
	EndpointAddrGRPC string        `env:"DATAHUB_GRPC_ADDR"`
	DatabaseDSN      string        `env:"DATAHUB_DATABASE_DSN"`
	RunMigrations    bool          `env:"DATAHUB_RUN_MIGRATIONS"`
	SessionSecret    string        `env:"DATAHUB_SESSION_SECRET"`
	AdminSecret      string        `env:"DATAHUB_ADMIN_SECRET"`
	SessionValidity  time.Duration `env:"DATAHUB_SESSION_VALIDITY"`
	LogBackend       string        `env:"DATAHUB_LOG_BACKEND"`
	Development      bool          `env:"DATAHUB_DEVELOPMENT"`
	KafkaBrokers     []string      `env:"DATAHUB_KAFKA_BROKERS" env-separator:","`
	KafkaTopic       string        `env:"DATAHUB_KAFKA_TOPIC"`
	S3AccessKey      string        `env:"DATAHUB_S3_ACCESS_KEY"`
	S3SecretKey      string        `env:"DATAHUB_S3_SECRET_KEY"`
	S3Bucket         string        `env:"DATAHUB_S3_BUCKET"`
	S3Region         string        `env:"DATAHUB_S3_REGION"`
	S3BaseEndpoint   string        `env:"DATAHUB_S3_BASE_ENDPOINT"`
}

// dotenvFile is loaded before reading the environment when it exists.
var dotenvFile = ".env"

// parseEnv overlays DATAHUB_* variables, loading dotenvFile first. Variables
// already set in the process environment win over the file. A malformed
// .env file or an unparsable value panics, like a bad JSON file.
func parseEnv(config *Config) {
	if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	e := EnvConfig{
		EndpointAddrHTTP: config.EndpointAddrHTTP,
		EndpointAddrGRPC: config.EndpointAddrGRPC,
		DatabaseDSN:      config.DatabaseDSN,
		RunMigrations:    config.RunMigrations,
		SessionSecret:    config.SessionSecret,
		AdminSecret:      config.AdminSecret,
		SessionValidity:  config.SessionValidity,
		LogBackend:       config.LogBackend,
		Development:      config.Development,
		KafkaBrokers:     config.KafkaBrokers,
		KafkaTopic:       config.KafkaTopic,
		S3AccessKey:      config.S3AccessKey,
		S3SecretKey:      config.S3SecretKey,
		S3Bucket:         config.S3Bucket,
		S3Region:         config.S3Region,
		S3BaseEndpoint:   config.S3BaseEndpoint,
	}
	if err := cleanenv.ReadEnv(&e); err != nil {
		panic(err)
	}

	config.EndpointAddrHTTP = e.EndpointAddrHTTP
	config.EndpointAddrGRPC = e.EndpointAddrGRPC
	config.DatabaseDSN = e.DatabaseDSN
	config.RunMigrations = e.RunMigrations
	config.SessionSecret = e.SessionSecret
	config.AdminSecret = e.AdminSecret
	config.SessionValidity = e.SessionValidity
	config.LogBackend = e.LogBackend
	config.Development = e.Development
	config.KafkaBrokers = e.KafkaBrokers
	config.KafkaTopic = e.KafkaTopic
	config.S3AccessKey = e.S3AccessKey
	config.S3SecretKey = e.S3SecretKey
	config.S3Bucket = e.S3Bucket
	config.S3Region = e.S3Region
	config.S3BaseEndpoint = e.S3BaseEndpoint
}
