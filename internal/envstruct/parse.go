// Package envstruct fills configuration structs from environment variables described in struct tags.
package envstruct

import (
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"time"

	"github.com/myrjola/gympal/internal/errors"
)

var (
	ErrEnvNotSet    = errors.NewSentinel("environment variable not set")
	ErrInvalidValue = errors.NewSentinel("invalid value")
)

//nolint:gochecknoglobals // lookup table.
var durationType = reflect.TypeFor[time.Duration]()

// Populate sets every field of the struct pointed to by v that carries an `env:"NAME"` tag. The value comes from
// lookupEnv, which has the signature of os.LookupEnv, or from the `envDefault:"value"` tag when NAME is unset.
// Without either, ErrEnvNotSet is reported for the field.
//
// Supported field types are string, bool, int, uint64 and time.Duration. All field errors are joined.
func Populate(v any, lookupEnv func(string) (string, bool)) error {
	ptr := reflect.ValueOf(v)
	if ptr.Kind() != reflect.Pointer || ptr.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: want pointer to struct, got %T", ErrInvalidValue, v)
	}
	s := ptr.Elem()

	var errs []error
	for i := range s.NumField() {
		field := s.Type().Field(i)
		name, tagged := field.Tag.Lookup("env")
		if !tagged {
			continue
		}
		raw, ok := lookupEnv(name)
		if !ok {
			if raw, ok = field.Tag.Lookup("envDefault"); !ok {
				errs = append(errs, errors.Wrap(ErrEnvNotSet, name))
				continue
			}
		}
		if err := set(s.Field(i), raw); err != nil {
			errs = append(errs, errors.Wrap(err, "parse "+name,
				slog.String("field", field.Name), slog.String("value", raw)))
		}
	}
	return errors.Join(errs...)
}

func set(f reflect.Value, raw string) error {
	if !f.CanSet() {
		return fmt.Errorf("%w: unexported field", ErrInvalidValue)
	}
	switch {
	case f.Type() == durationType:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("%w: parse duration: %w", ErrInvalidValue, err)
		}
		f.SetInt(int64(d))
	case f.Kind() == reflect.String:
		f.SetString(raw)
	case f.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%w: parse bool: %w", ErrInvalidValue, err)
		}
		f.SetBool(b)
	case f.Kind() == reflect.Int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: parse int: %w", ErrInvalidValue, err)
		}
		f.SetInt(int64(n))
	case f.Kind() == reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: parse uint64: %w", ErrInvalidValue, err)
		}
		f.SetUint(n)
	default:
		return fmt.Errorf("%w: unsupported type %s", ErrInvalidValue, f.Type())
	}
	return nil
}
