package cli

import (
	"bufio"
	"io"
	"net/http"
	"time"

	"github.com/nownpp/data-hub-entry/internal/client/api"
	"github.com/urfave/cli/v2"
)

const (
	defaultServer = "http://127.0.0.1:8080"

	flagServer     = "server"
	flagToken      = "token"
	flagAdminToken = "admin-token"
	flagName       = "name"
	flagPassword   = "password"
	flagPhone      = "phone"
	flagSecret     = "secret"
	flagAdminID    = "id"
	flagEmail      = "email"
	flagTTL        = "ttl"
)

// App holds what the commands share: where to read prompts from and how to
// reach the server.
type App struct {
	reader     *bufio.Reader
	httpClient *http.Client
}

// NewApp builds the collectorctl application. Output goes to out, prompts
// read from in. A nil hc uses the api package default.
func NewApp(out io.Writer, in io.Reader, hc *http.Client) *cli.App {
	a := &App{reader: bufio.NewReader(in), httpClient: hc}

	return &cli.App{
		Name:      "collectorctl",
		Usage:     "talk to the data hub collector API",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagServer,
				Aliases: []string{"s"},
				Usage:   "base URL of the data hub server",
				Value:   defaultServer,
				EnvVars: []string{"DATAHUB_SERVER"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "log in as a collector and print the session token",
				Flags:  []cli.Flag{nameFlag(false), passwordFlag()},
				Action: a.login,
			},
			{
				Name:   "fetch",
				Usage:  "show your submissions and batches",
				Flags:  []cli.Flag{tokenFlag(true)},
				Action: a.fetch,
			},
			{
				Name:   "create-batch",
				Usage:  "settle all pending submissions into a new batch",
				Flags:  []cli.Flag{tokenFlag(true)},
				Action: a.createBatch,
			},
			{
				Name:  "submit",
				Usage: "send a submission",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "full-name", Aliases: []string{"f"}, Usage: "full name", Required: true},
					&cli.StringFlag{Name: flagPhone, Aliases: []string{"p"}, Usage: "phone number", Required: true},
					tokenFlag(false),
				},
				Action: a.submit,
			},
			{
				Name:  "create-collector",
				Usage: "register a collector",
				Flags: []cli.Flag{
					nameFlag(true),
					passwordFlag(),
					&cli.StringFlag{
						Name:     flagAdminToken,
						Usage:    "platform admin token",
						EnvVars:  []string{"DATAHUB_ADMIN_TOKEN"},
						Required: true,
					},
				},
				Action: a.createCollector,
			},
			{
				Name:  "admin-token",
				Usage: "mint a development admin token",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagSecret,
						Usage:    "admin token secret configured on the server",
						EnvVars:  []string{"DATAHUB_ADMIN_SECRET"},
						Required: true,
					},
					&cli.StringFlag{Name: flagAdminID, Usage: "admin user id", Value: "dev-admin"},
					&cli.StringFlag{Name: flagEmail, Usage: "admin email", Value: "admin@localhost"},
					&cli.DurationFlag{Name: flagTTL, Usage: "token validity", Value: time.Hour},
				},
				Action: a.adminToken,
			},
		},
	}
}

func (a *App) client(c *cli.Context) *api.Client {
	return api.New(c.String(flagServer), a.httpClient)
}

func tokenFlag(required bool) cli.Flag {
	return &cli.StringFlag{
		Name:     flagToken,
		Aliases:  []string{"t"},
		Usage:    "collector session token",
		EnvVars:  []string{"DATAHUB_TOKEN"},
		Required: required,
	}
}

func nameFlag(required bool) cli.Flag {
	return &cli.StringFlag{Name: flagName, Aliases: []string{"n"}, Usage: "collector name", Required: required}
}

func passwordFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    flagPassword,
		Usage:   "password (prompted when omitted)",
		EnvVars: []string{"DATAHUB_PASSWORD"},
	}
}
