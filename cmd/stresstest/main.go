// Command stresstest registers a crowd of users against a running GymPal, trains them through several weeks
// and then measures how the server copes with all of them using the app at once.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/myrjola/gympal/internal/e2etest"
	"github.com/myrjola/gympal/internal/errors"
	"github.com/myrjola/gympal/internal/logging"
	"github.com/myrjola/gympal/internal/testhelpers"
	"golang.org/x/sync/errgroup"
)

const (
	registrationTimeout        = 30 * time.Second
	scenarioTimeout            = 30 * time.Second
	historyTimeout             = 5 * time.Minute
	maxConcurrentRegistrations = 10
	maxConcurrentOperations    = 20
	defaultUsers               = 10
	trainingWeeks              = 8
	successRateThreshold       = 95.0
	percentageMultiplier       = 100
)

var days = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

type user struct {
	index  int
	client *e2etest.Client
	rand   *rand.Rand
}

func (u *user) attr() slog.Attr {
	return slog.Int("user", u.index)
}

// setupUsers registers n users, each with their own session.
func setupUsers(ctx context.Context, baseURL, hostname string, n int, logger *slog.Logger) ([]*user, error) {
	users := make([]*user, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRegistrations)
	for i := range n {
		g.Go(func() error {
			client, err := e2etest.NewClient(baseURL, hostname, baseURL)
			if err != nil {
				return errors.Wrap(err, "new client", slog.Int("user", i))
			}
			regCtx, cancel := context.WithTimeout(ctx, registrationTimeout)
			defer cancel()
			if _, err = client.Register(regCtx); err != nil {
				return errors.Wrap(err, "register", slog.Int("user", i))
			}
			users[i] = &user{
				index:  i,
				client: client,
				rand:   rand.New(rand.NewPCG(uint64(i), uint64(i)*31)), //nolint:gosec // load patterns only
			}
			logger.LogAttrs(ctx, slog.LevelDebug, "user registered", slog.Int("user", i))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "setup users")
	}
	return users, nil
}

func entryIDs(doc *goquery.Document) []string {
	var ids []string
	doc.Find("article.entry").Each(func(_ int, s *goquery.Selection) {
		if id, ok := s.Attr("id"); ok {
			ids = append(ids, id)
		}
	})
	return ids
}

// trainDay completes most exercises of a day with an intensity and what was actually done.
func (u *user) trainDay(ctx context.Context, day string) error {
	doc, err := u.client.GetDoc(ctx, "/days/"+day)
	if err != nil {
		return errors.Wrap(err, "get day", slog.String("day", day))
	}
	if doc.Find(`form[action="/days/`+day+`/rest"]`).Length() == 1 {
		_, err = u.client.PostForm(ctx, "/days/"+day+"/rest", url.Values{})
		return err
	}
	for _, id := range entryIDs(doc) {
		if u.rand.IntN(10) == 0 { //nolint:mnd // skip one in ten
			continue
		}
		intensity := strconv.Itoa(6 + u.rand.IntN(4)) //nolint:mnd // RPE 6-9
		if _, err = u.client.PostForm(ctx, "/entries/"+id+"/intensity", url.Values{"intensity": {intensity}}); err != nil {
			return errors.Wrap(err, "set intensity", slog.String("entry", id))
		}
		actual := fmt.Sprintf("3x%d", 8+u.rand.IntN(5)) //nolint:mnd // 8-12 reps
		if _, err = u.client.PostForm(ctx, "/entries/"+id+"/actual", url.Values{"actual": {actual}}); err != nil {
			return errors.Wrap(err, "set actual", slog.String("entry", id))
		}
	}
	return nil
}

func (u *user) advanceWeek(ctx context.Context) error {
	doc, err := u.client.GetDoc(ctx, "/week/advance")
	if err != nil {
		return errors.Wrap(err, "preview advance")
	}
	if _, err = u.client.SubmitForm(ctx, doc, "/week/advance", nil); err != nil {
		return errors.Wrap(err, "confirm advance")
	}
	return nil
}

// buildHistory trains every user through several weeks so that the load test runs on realistic documents.
func buildHistory(ctx context.Context, users []*user, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, historyTimeout)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentOperations)
	for _, u := range users {
		g.Go(func() error {
			for week := range trainingWeeks {
				for _, day := range days {
					if err := u.trainDay(ctx, day); err != nil {
						return errors.Wrap(err, "train", u.attr(), slog.Int("week", week))
					}
				}
				if err := u.advanceWeek(ctx); err != nil {
					return errors.Wrap(err, "advance", u.attr(), slog.Int("week", week))
				}
			}
			logger.LogAttrs(ctx, slog.LevelDebug, "history built", u.attr())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "build history")
	}
	return nil
}

// scenario is one visit: glance at the week, train today, log a check-in and read the history.
func (u *user) scenario(ctx context.Context) error {
	if _, err := u.client.GetDoc(ctx, "/"); err != nil {
		return errors.Wrap(err, "get week")
	}
	if err := u.trainDay(ctx, days[u.rand.IntN(len(days))]); err != nil {
		return err
	}
	weight := fmt.Sprintf("%d.%d", 150+u.rand.IntN(50), u.rand.IntN(10)) //nolint:mnd // plausible weights
	form := url.Values{"date": {time.Now().Format(time.DateOnly)}, "weight": {weight}, "waist": {"34"}}
	if _, err := u.client.PostForm(ctx, "/check-in", form); err != nil {
		return errors.Wrap(err, "check in")
	}
	for _, path := range []string{"/history", "/skills", "/coach"} {
		if _, err := u.client.GetDoc(ctx, path); err != nil {
			return errors.Wrap(err, "get page", slog.String("path", path))
		}
	}
	return nil
}

func runLoadTest(ctx context.Context, users []*user, logger *slog.Logger) error {
	var succeeded, failed atomic.Int64
	g := errgroup.Group{}
	g.SetLimit(maxConcurrentOperations)
	for _, u := range users {
		g.Go(func() error {
			scenarioCtx, cancel := context.WithTimeout(ctx, scenarioTimeout)
			defer cancel()
			if err := u.scenario(scenarioCtx); err != nil {
				failed.Add(1)
				logger.LogAttrs(scenarioCtx, slog.LevelWarn, "scenario failed", u.attr(), errors.SlogError(err))
				return nil
			}
			succeeded.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	successRate := float64(succeeded.Load()) / float64(len(users)) * percentageMultiplier
	logger.LogAttrs(ctx, slog.LevelInfo, "load test completed",
		slog.Int64("successful", succeeded.Load()),
		slog.Int64("failed", failed.Load()),
		slog.Float64("success_rate", successRate))
	if successRate < successRateThreshold {
		return fmt.Errorf("success rate %.1f%% below threshold", successRate)
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) < 2 || len(os.Args) > 3 { //nolint:mnd // hostname and optional user count
		logger.LogAttrs(ctx, slog.LevelError, "usage: stresstest <hostname> [users]")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		numUsers = defaultUsers
		start    = time.Now()
		err      error
	)
	if len(os.Args) == 3 { //nolint:mnd // user count given
		if numUsers, err = strconv.Atoi(os.Args[2]); err != nil || numUsers < 1 {
			logger.LogAttrs(ctx, slog.LevelError, "invalid user count", slog.String("users", os.Args[2]))
			os.Exit(1)
		}
	}
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	baseURL := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		baseURL = "http://" + hostname
		hostname = "localhost"
	}

	ready, err := e2etest.NewClient(baseURL, hostname, baseURL)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", errors.SlogError(err))
		os.Exit(1)
	}
	if err = ready.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", errors.SlogError(err))
		os.Exit(1)
	}

	users, err := setupUsers(ctx, baseURL, hostname, numUsers, logger)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failed to set up users", errors.SlogError(err))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "users registered",
		slog.Int("users", len(users)), slog.Duration("duration", time.Since(start)))

	historyStart := time.Now()
	if err = buildHistory(ctx, users, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelWarn, "history incomplete, continuing with load test", errors.SlogError(err))
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "history built",
		slog.Int("weeks", trainingWeeks), slog.Duration("duration", time.Since(historyStart)))

	loadStart := time.Now()
	if err = runLoadTest(ctx, users, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "load test failed", errors.SlogError(err))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "Stress test completed 🙌",
		slog.Duration("total_duration", time.Since(start)),
		slog.Duration("load_duration", time.Since(loadStart)))
}
