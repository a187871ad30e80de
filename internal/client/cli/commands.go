package cli

import (
	"fmt"

	"github.com/nownpp/data-hub-entry/internal/client/api"
	"github.com/nownpp/data-hub-entry/internal/server/auth"
	"github.com/urfave/cli/v2"
)

func (a *App) login(c *cli.Context) error {
	w := c.App.Writer

	name := c.String(flagName)
	if name == "" {
		var err error
		if name, err = GetSimpleText(a.reader, "Collector name", w); err != nil {
			return err
		}
	}
	password, err := a.password(c)
	if err != nil {
		return err
	}

	res, err := a.client(c).Login(c.Context, name, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	fmt.Fprintf(w, "Logged in as %s, session valid until %s\n", res.Collector.Name, res.ExpiresAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "token: %s\n", res.Token)
	return nil
}

func (a *App) fetch(c *cli.Context) error {
	data, err := a.client(c).Fetch(c.Context, c.String(flagToken))
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	return printCollectorData(c.App.Writer, data)
}

func (a *App) createBatch(c *cli.Context) error {
	res, err := a.client(c).CreateBatch(c.Context, c.String(flagToken))
	if err != nil {
		return fmt.Errorf("create batch: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Batch %s created with %d submissions\n", res.BatchID, res.Count)
	return nil
}

func (a *App) submit(c *cli.Context) error {
	id, err := a.client(c).Submit(c.Context, api.SubmissionRequest{
		FullName:    c.String("full-name"),
		PhoneNumber: c.String(flagPhone),
		Token:       c.String(flagToken),
	})
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Submitted %s\n", id)
	return nil
}

func (a *App) createCollector(c *cli.Context) error {
	password, err := a.password(c)
	if err != nil {
		return err
	}

	name := c.String(flagName)
	if err := a.client(c).CreateCollector(c.Context, c.String(flagAdminToken), name, password); err != nil {
		return fmt.Errorf("create collector: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Collector %q created\n", name)
	return nil
}

func (a *App) adminToken(c *cli.Context) error {
	token, err := auth.IssueAdminToken(
		auth.Admin{ID: c.String(flagAdminID), Email: c.String(flagEmail)},
		[]byte(c.String(flagSecret)),
		c.Duration(flagTTL),
	)
	if err != nil {
		return fmt.Errorf("admin token: %w", err)
	}
	fmt.Fprintln(c.App.Writer, token)
	return nil
}

func (a *App) password(c *cli.Context) (string, error) {
	if p := c.String(flagPassword); p != "" {
		return p, nil
	}
	return GetPassword(c.App.Writer)
}
