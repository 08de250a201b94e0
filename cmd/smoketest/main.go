// Command smoketest walks through a user's first session against a running GymPal and removes the user
// afterwards.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/myrjola/gympal/internal/e2etest"
	"github.com/myrjola/gympal/internal/errors"
	"github.com/myrjola/gympal/internal/logging"
	"github.com/myrjola/gympal/internal/testhelpers"
)

const smokeTimeout = 20 * time.Second

type step struct {
	name string
	run  func(ctx context.Context, client *e2etest.Client) error
}

var steps = []step{
	{name: "register", run: func(ctx context.Context, client *e2etest.Client) error {
		doc, err := client.Register(ctx)
		if err != nil {
			return err
		}
		if doc.Find(".week li").Length() != 7 { //nolint:mnd // days of the week
			return errors.New("week overview missing")
		}
		return nil
	}},
	{name: "logout and login", run: func(ctx context.Context, client *e2etest.Client) error {
		if _, err := client.Logout(ctx); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
		if _, err := client.Login(ctx); err != nil {
			return fmt.Errorf("login: %w", err)
		}
		return nil
	}},
	{name: "complete an exercise", run: func(ctx context.Context, client *e2etest.Client) error {
		doc, err := client.GetDoc(ctx, "/days/monday")
		if err != nil {
			return err
		}
		id, ok := doc.Find("article.entry").First().Attr("id")
		if !ok {
			return errors.New("monday has no exercises")
		}
		if doc, err = client.PostForm(ctx, "/entries/"+id+"/complete", url.Values{}); err != nil {
			return err
		}
		if doc.Find("article#"+id+".completed").Length() != 1 {
			return fmt.Errorf("exercise %s not marked completed", id)
		}
		_, err = client.PostForm(ctx, "/entries/"+id+"/complete", url.Values{})
		return err
	}},
	{name: "open every page", run: func(ctx context.Context, client *e2etest.Client) error {
		for _, path := range []string{"/check-in", "/skills", "/history", "/coach", "/exercises", "/preferences"} {
			if _, err := client.GetDoc(ctx, path); err != nil {
				return fmt.Errorf("get %s: %w", path, err)
			}
		}
		return nil
	}},
	{name: "delete user", run: func(ctx context.Context, client *e2etest.Client) error {
		doc, err := client.PostForm(ctx, "/preferences/delete-user", url.Values{})
		if err != nil {
			return err
		}
		if doc.Find(`form[action="/api/registration/start"]`).Length() != 1 {
			return errors.New("expected the landing page after deleting the user")
		}
		return nil
	}},
}

func smokeTest(ctx context.Context, logger *slog.Logger, client *e2etest.Client) error {
	ctx, cancel := context.WithTimeout(ctx, smokeTimeout)
	defer cancel()
	for _, s := range steps {
		start := time.Now()
		if err := s.run(ctx, client); err != nil {
			return errors.Wrap(err, "smoke step", slog.String("step", s.name))
		}
		logger.LogAttrs(ctx, slog.LevelInfo, "step passed",
			slog.String("step", s.name), slog.Duration("duration", time.Since(start)))
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		client   *e2etest.Client
		err      error
		start    = time.Now()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	baseURL := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		baseURL = "http://" + hostname
		hostname = "localhost"
	}

	if client, err = e2etest.NewClient(baseURL, hostname, baseURL); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", errors.SlogError(err))
		os.Exit(1)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", errors.SlogError(err))
		os.Exit(1)
	}
	if err = smokeTest(ctx, logger, client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "smoke test failed", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌", slog.Duration("duration", time.Since(start)))
}
