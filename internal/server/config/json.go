package config

import (
	"encoding/json"
	"os"

	"github.com/nownpp/data-hub-entry/internal/flagx"
	"github.com/nownpp/data-hub-entry/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// either "24h" style strings or integer nanoseconds. Pointer fields
// distinguish "absent" from an explicit false.
type JsonConfig struct {
	EndpointAddrHTTP string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC string         `json:"endpoint_addr_grpc"`
	DatabaseDSN      string         `json:"database_dsn"`
	RunMigrations    *bool          `json:"run_migrations"`
	SessionSecret    string         `json:"session_secret"`
	AdminSecret      string         `json:"admin_secret"`
	SessionValidity  timex.Duration `json:"session_validity"`
	LogBackend       string         `json:"log_backend"`
	Development      *bool          `json:"development"`
	KafkaBrokers     []string       `json:"kafka_brokers"`
	KafkaTopic       string         `json:"kafka_topic"`
	S3AccessKey      string         `json:"s3_access_key"`
	S3SecretKey      string         `json:"s3_secret_key"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
}

// parseJson overlays values from the file named by -c / -config. Keys
// missing from the file keep their current value. A file that cannot be
// read or parsed is fatal: the function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFilePath()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SessionSecret, c.SessionSecret)
	setString(&config.AdminSecret, c.AdminSecret)
	setString(&config.LogBackend, c.LogBackend)
	setString(&config.KafkaTopic, c.KafkaTopic)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.RunMigrations != nil {
		config.RunMigrations = *c.RunMigrations
	}
	if c.Development != nil {
		config.Development = *c.Development
	}
	if c.SessionValidity.Duration > 0 {
		config.SessionValidity = c.SessionValidity.Duration
	}
	if len(c.KafkaBrokers) > 0 {
		config.KafkaBrokers = c.KafkaBrokers
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
