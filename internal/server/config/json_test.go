package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_FullFile(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"endpoint_addr_http": ":1",
		"endpoint_addr_grpc": ":2",
		"database_dsn":       "dsn",
		"run_migrations":     false,
		"session_secret":     "s",
		"admin_secret":       "a",
		"session_validity":   "90m",
		"log_backend":        "zap",
		"development":        true,
		"kafka_brokers":      []string{"k1:9092", "k2:9092"},
		"kafka_topic":        "topic",
		"s3_access_key":      "ak",
		"s3_secret_key":      "sk",
		"s3_bucket":          "bucket",
		"s3_region":          "eu-west-1",
		"s3_base_endpoint":   "http://minio:9000",
	})
	withArgs(t, "-c", path)

	c := defaults()
	parseJson(&c)

	want := Config{
		EndpointAddrHTTP: ":1",
		EndpointAddrGRPC: ":2",
		DatabaseDSN:      "dsn",
		RunMigrations:    false,
		SessionSecret:    "s",
		AdminSecret:      "a",
		SessionValidity:  90 * time.Minute,
		LogBackend:       "zap",
		Development:      true,
		KafkaBrokers:     []string{"k1:9092", "k2:9092"},
		KafkaTopic:       "topic",
		S3AccessKey:      "ak",
		S3SecretKey:      "sk",
		S3Bucket:         "bucket",
		S3Region:         "eu-west-1",
		S3BaseEndpoint:   "http://minio:9000",
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func Test_parseJson_PartialKeepsExisting(t *testing.T) {
	path := writeTempJSON(t, map[string]any{"log_backend": "zap"})
	withArgs(t, "-config", path)

	c := defaults()
	parseJson(&c)

	want := defaults()
	want.LogBackend = "zap"
	if diff := cmp.Diff(want, c); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func Test_parseJson_NoFlag(t *testing.T) {
	withArgs(t)

	c := defaults()
	parseJson(&c)
	assert.Empty(t, cmp.Diff(defaults(), c))
}

func Test_parseJson_Panics(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		withArgs(t, "-c", filepath.Join(t.TempDir(), "nope.json"))
		c := defaults()
		assert.Panics(t, func() { parseJson(&c) })
	})

	t.Run("bad json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
		withArgs(t, "-c", path)
		c := defaults()
		assert.Panics(t, func() { parseJson(&c) })
	})
}
