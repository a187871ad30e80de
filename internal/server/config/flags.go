package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/nownpp/data-hub-entry/internal/flagx"
)

// parseFlags overlays command-line flags.
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-g string   gRPC health bind address (e.g. ":50051")
//	-d string   PostgreSQL DSN, empty for the in-memory store
//	-s string   session token secret
//	-m string   admin token secret
//	-t int      session validity, minutes
//	-l string   log backend: slog or zap
//	-k string   comma-separated Kafka brokers
//	-b string   S3 bucket for batch statements
//
// Only the listed flags are parsed; anything else on the command line is
// ignored via flagx.FilterArgs.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-s", "-m", "-t", "-l", "-k", "-b", "-dev"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SessionSecret, "s", config.SessionSecret, "session token secret")
	fs.StringVar(&config.AdminSecret, "m", config.AdminSecret, "admin token secret")
	sessionValidity := fs.Int("t", int(config.SessionValidity.Minutes()), "session validity (in minutes)")
	fs.StringVar(&config.LogBackend, "l", config.LogBackend, "log backend (slog|zap)")
	brokers := fs.String("k", strings.Join(config.KafkaBrokers, ","), "Kafka brokers, comma separated")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket for batch statements")
	fs.BoolVar(&config.Development, "dev", config.Development, "development mode")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.SessionValidity = time.Duration(*sessionValidity) * time.Minute
		case "k":
			config.KafkaBrokers = splitList(*brokers)
		}
	})
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
