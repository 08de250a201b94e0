package envstruct_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/gympal/internal/envstruct"
	"github.com/myrjola/gympal/internal/errors"
)

type serverConfig struct {
	Addr        string        `env:"GYMPAL_ADDR" envDefault:"localhost:8081"`
	Seed        uint64        `env:"GYMPAL_SEED" envDefault:"1"`
	ReadConns   int           `env:"GYMPAL_READ_CONNS" envDefault:"10"`
	Secure      bool          `env:"GYMPAL_SECURE" envDefault:"true"`
	TraceWindow time.Duration `env:"GYMPAL_TRACE_WINDOW" envDefault:"10s"`
	Untagged    string
}

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestPopulate(t *testing.T) {
	t.Parallel()

	defaults := serverConfig{
		Addr:        "localhost:8081",
		Seed:        1,
		ReadConns:   10,
		Secure:      true,
		TraceWindow: 10 * time.Second,
		Untagged:    "",
	}
	tests := []struct {
		name    string
		env     map[string]string
		want    serverConfig
		wantErr error
	}{
		{
			name: "defaults",
			env:  nil,
			want: defaults,
		},
		{
			name: "environment wins",
			env: map[string]string{
				"GYMPAL_ADDR":         "0.0.0.0:80",
				"GYMPAL_SEED":         "18446744073709551615",
				"GYMPAL_READ_CONNS":   "4",
				"GYMPAL_SECURE":       "false",
				"GYMPAL_TRACE_WINDOW": "1m30s",
			},
			want: serverConfig{
				Addr:        "0.0.0.0:80",
				Seed:        18446744073709551615,
				ReadConns:   4,
				Secure:      false,
				TraceWindow: 90 * time.Second,
				Untagged:    "",
			},
		},
		{
			name:    "bad duration",
			env:     map[string]string{"GYMPAL_TRACE_WINDOW": "ten seconds"},
			wantErr: envstruct.ErrInvalidValue,
		},
		{
			name:    "bad number",
			env:     map[string]string{"GYMPAL_SEED": "-1"},
			wantErr: envstruct.ErrInvalidValue,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got serverConfig
			err := envstruct.Populate(&got, env(tt.env))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Populate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Populate() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Populate() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPopulate_Errors(t *testing.T) {
	t.Parallel()

	t.Run("not a struct pointer", func(t *testing.T) {
		t.Parallel()
		for _, v := range []any{nil, serverConfig{}, new(string)} { //nolint:exhaustruct // never populated.
			if err := envstruct.Populate(v, env(nil)); !errors.Is(err, envstruct.ErrInvalidValue) {
				t.Errorf("Populate(%T) error = %v, want ErrInvalidValue", v, err)
			}
		}
	})

	t.Run("required variable missing", func(t *testing.T) {
		t.Parallel()
		var cfg struct {
			APIKey string `env:"GYMPAL_OPENAI_API_KEY"`
		}
		if err := envstruct.Populate(&cfg, env(nil)); !errors.Is(err, envstruct.ErrEnvNotSet) {
			t.Errorf("Populate() error = %v, want ErrEnvNotSet", err)
		}
	})

	t.Run("unsupported type", func(t *testing.T) {
		t.Parallel()
		var cfg struct {
			Ratio float64 `env:"GYMPAL_RATIO" envDefault:"0.5"`
		}
		if err := envstruct.Populate(&cfg, env(nil)); !errors.Is(err, envstruct.ErrInvalidValue) {
			t.Errorf("Populate() error = %v, want ErrInvalidValue", err)
		}
	})
}
