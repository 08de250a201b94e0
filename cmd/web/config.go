package main

import (
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/myrjola/gympal/internal/errors"
)

// config is read from the environment by envstruct.Populate.
type config struct {
	// Addr to listen on. localhost:0 picks a free port, which the tests rely on.
	Addr string `env:"GYMPAL_ADDR" envDefault:"localhost:8081"`
	// FQDN is the WebAuthn relying party id.
	FQDN string `env:"GYMPAL_FQDN" envDefault:"localhost"`
	// FlyAppName is set by Fly.io and makes <app>.fly.dev the relying party.
	FlyAppName string `env:"FLY_APP_NAME" envDefault:""`
	// SqliteURL is the database file, or ":memory:" for a throwaway database.
	SqliteURL string `env:"GYMPAL_SQLITE_URL" envDefault:"./gympal.sqlite3"`
	// TemplatePath overrides the ui/templates lookup.
	TemplatePath string `env:"GYMPAL_TEMPLATE_PATH" envDefault:""`
	// MetricsAddr serves Prometheus metrics when set.
	MetricsAddr string `env:"GYMPAL_METRICS_ADDR" envDefault:""`
	// TracesDir enables the flight recorder. Traces of timed out requests are written here.
	TracesDir   string        `env:"GYMPAL_TRACES_DIR" envDefault:""`
	TraceWindow time.Duration `env:"GYMPAL_TRACE_WINDOW" envDefault:"2m"`
	// SessionLifetime is how long a sign-in lasts.
	SessionLifetime time.Duration `env:"GYMPAL_SESSION_LIFETIME" envDefault:"12h"`
	// Progression is classic or variant.
	Progression string `env:"GYMPAL_PROGRESSION" envDefault:"classic"`
	// RandomSeed makes exercise rotation reproducible. Empty seeds from the clock.
	RandomSeed string `env:"GYMPAL_RANDOM_SEED" envDefault:""`
	// OpenAIAPIKey enables the coach. Without it the coach page shows an offline notice.
	OpenAIAPIKey string `env:"GYMPAL_OPENAI_API_KEY" envDefault:""`
	OpenAIModel  string `env:"GYMPAL_OPENAI_MODEL" envDefault:"gpt-4o-mini"`
}

func (c config) relyingParty() string {
	if c.FlyAppName != "" {
		return c.FlyAppName + ".fly.dev"
	}
	return c.FQDN
}

// rotationRand returns nil when no seed is configured, which lets the gym service seed from the clock.
func (c config) rotationRand() (*rand.Rand, error) {
	if c.RandomSeed == "" {
		return nil, nil //nolint:nilnil // nil selects the default source.
	}
	seed, err := strconv.ParseUint(c.RandomSeed, 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "parse random seed", slog.String("seed", c.RandomSeed))
	}
	return rand.New(rand.NewPCG(seed, seed>>1)), nil //nolint:gosec // rotation draws need no cryptographic randomness.
}
