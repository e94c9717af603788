package appconf

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"zpgsa.live/internal/calendar"
)

// Config holds all runtime settings. Sources are applied in order: defaults, YAML file,
// environment variables, command-line flags.
type Config struct {
	Port      int         `yaml:"port" validate:"gt=0,lte=65535"`
	EnvName   string      `yaml:"env" validate:"oneof=development test production"`
	Env       Environment `yaml:"-"`
	RateLimit int         `yaml:"rateLimit" validate:"gte=-1"`
	LogLevel  string      `yaml:"logLevel" validate:"oneof=debug info warn error"`
	Timezone  string      `yaml:"timezone" validate:"required"`

	Vehicles VehiclesConfig `yaml:"vehicles"`
	Static   StaticConfig   `yaml:"static"`
	NATS     NATSConfig     `yaml:"nats"`
	Calendar CalendarConfig `yaml:"calendar"`
}

type VehiclesConfig struct {
	URL          string            `yaml:"url" validate:"required,url"`
	Format       string            `yaml:"format" validate:"oneof=json gtfsrt"`
	PollInterval time.Duration     `yaml:"pollInterval" validate:"gt=0"`
	FetchTimeout time.Duration     `yaml:"fetchTimeout" validate:"gt=0"`
	Headers      map[string]string `yaml:"headers"`
}

type StaticConfig struct {
	// Source is a JSON data directory, a base URL serving the JSON files, or a GTFS zip.
	Source      string `yaml:"source" validate:"required"`
	DatabaseDSN string `yaml:"databaseDSN"`
	MaxRetries  uint64 `yaml:"maxRetries" validate:"lte=20"`
}

type NATSConfig struct {
	URL           string `yaml:"url" validate:"omitempty,url"`
	SubjectPrefix string `yaml:"subjectPrefix" validate:"required"`
}

// CalendarConfig overrides the built-in holiday and school-free lists with "DD.MM" dates.
type CalendarConfig struct {
	Holidays       []string `yaml:"holidays"`
	SchoolFreeDays []string `yaml:"schoolFreeDays"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		Port:      4000,
		EnvName:   "development",
		RateLimit: 100,
		LogLevel:  "info",
		Timezone:  "Local",
		Vehicles: VehiclesConfig{
			URL:          "http://localhost:8080/api/buses",
			Format:       "json",
			PollInterval: time.Second,
			FetchTimeout: 10 * time.Second,
		},
		Static: StaticConfig{
			Source:     "./data",
			MaxRetries: 5,
		},
		NATS: NATSConfig{
			SubjectPrefix: "fleet",
		},
	}
}

// LoadOptions controls where Load reads from. Zero values fall back to the process environment.
type LoadOptions struct {
	Args    []string
	Getenv  func(string) string
	EnvFile string
	Output  io.Writer
}

// Load builds and validates the configuration.
func Load(opts LoadOptions) (Config, error) {
	if opts.Getenv == nil {
		if err := godotenv.Load(envFileOrDefault(opts.EnvFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("error loading env file: %w", err)
		}
		opts.Getenv = os.Getenv
	}

	cfg := Defaults()

	fset := flag.NewFlagSet("fleet-api", flag.ContinueOnError)
	if opts.Output != nil {
		fset.SetOutput(opts.Output)
	}
	var flags Config
	var configFile string
	fset.StringVar(&configFile, "config", "", "Path to a YAML config file")
	fset.IntVar(&flags.Port, "port", cfg.Port, "API server port")
	fset.StringVar(&flags.EnvName, "env", cfg.EnvName, "Environment (development|test|production)")
	fset.IntVar(&flags.RateLimit, "rate-limit", cfg.RateLimit, "Requests per second per client (-1 disables limiting, 0 blocks)")
	fset.StringVar(&flags.LogLevel, "log-level", cfg.LogLevel, "Log level (debug|info|warn|error)")
	fset.StringVar(&flags.Timezone, "timezone", cfg.Timezone, "IANA timezone for departure times")
	fset.StringVar(&flags.Vehicles.URL, "vehicles-url", cfg.Vehicles.URL, "Vehicle feed URL")
	fset.StringVar(&flags.Vehicles.Format, "vehicles-format", cfg.Vehicles.Format, "Vehicle feed format (json|gtfsrt)")
	fset.DurationVar(&flags.Vehicles.PollInterval, "poll-interval", cfg.Vehicles.PollInterval, "Delay between fleet polls")
	fset.DurationVar(&flags.Vehicles.FetchTimeout, "fetch-timeout", cfg.Vehicles.FetchTimeout, "Timeout of a single fleet fetch")
	fset.StringVar(&flags.Static.Source, "static-source", cfg.Static.Source, "Static data directory, base URL or GTFS zip")
	fset.StringVar(&flags.Static.DatabaseDSN, "static-db", cfg.Static.DatabaseDSN, "Static database DSN (sqlite path or postgres:// URL)")
	fset.StringVar(&flags.NATS.URL, "nats-url", cfg.NATS.URL, "NATS server URL; empty disables publishing")
	fset.StringVar(&flags.NATS.SubjectPrefix, "nats-prefix", cfg.NATS.SubjectPrefix, "NATS subject prefix")
	if err := fset.Parse(opts.Args); err != nil {
		return Config{}, err
	}

	if configFile == "" {
		configFile = opts.Getenv("CONFIG_FILE")
	}
	if configFile != "" {
		if err := loadYAML(configFile, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg, opts.Getenv); err != nil {
		return Config{}, err
	}

	fset.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = flags.Port
		case "env":
			cfg.EnvName = flags.EnvName
		case "rate-limit":
			cfg.RateLimit = flags.RateLimit
		case "log-level":
			cfg.LogLevel = flags.LogLevel
		case "timezone":
			cfg.Timezone = flags.Timezone
		case "vehicles-url":
			cfg.Vehicles.URL = flags.Vehicles.URL
		case "vehicles-format":
			cfg.Vehicles.Format = flags.Vehicles.Format
		case "poll-interval":
			cfg.Vehicles.PollInterval = flags.Vehicles.PollInterval
		case "fetch-timeout":
			cfg.Vehicles.FetchTimeout = flags.Vehicles.FetchTimeout
		case "static-source":
			cfg.Static.Source = flags.Static.Source
		case "static-db":
			cfg.Static.DatabaseDSN = flags.Static.DatabaseDSN
		case "nats-url":
			cfg.NATS.URL = flags.NATS.URL
		case "nats-prefix":
			cfg.NATS.SubjectPrefix = flags.NATS.SubjectPrefix
		}
	})

	cfg.EnvName = strings.ToLower(cfg.EnvName)
	cfg.Env = EnvFlagToEnvironment(cfg.EnvName)

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := cfg.Classifier(); err != nil {
		return Config{}, fmt.Errorf("invalid calendar configuration: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return Config{}, fmt.Errorf("invalid timezone: %w", err)
	}

	return cfg, nil
}

func envFileOrDefault(path string) string {
	if path == "" {
		return ".env"
	}
	return path
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		v := getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
		return nil
	}
	duration := func(key string, dst *time.Duration) error {
		v := getenv(key)
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("ENV", &cfg.EnvName)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("TIMEZONE", &cfg.Timezone)
	str("VEHICLES_URL", &cfg.Vehicles.URL)
	str("VEHICLES_FORMAT", &cfg.Vehicles.Format)
	str("STATIC_SOURCE", &cfg.Static.Source)
	str("STATIC_DB_DSN", &cfg.Static.DatabaseDSN)
	str("NATS_URL", &cfg.NATS.URL)
	str("NATS_SUBJECT_PREFIX", &cfg.NATS.SubjectPrefix)

	for _, err := range []error{
		integer("PORT", &cfg.Port),
		integer("RATE_LIMIT", &cfg.RateLimit),
		duration("POLL_INTERVAL", &cfg.Vehicles.PollInterval),
		duration("FETCH_TIMEOUT", &cfg.Vehicles.FetchTimeout),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

// Classifier builds the calendar classifier, using the built-in lists for anything not overridden.
func (c Config) Classifier() (*calendar.Classifier, error) {
	holidays := calendar.DefaultHolidays()
	if len(c.Calendar.Holidays) > 0 {
		s, err := calendar.ParseSet(c.Calendar.Holidays)
		if err != nil {
			return nil, err
		}
		holidays = s
	}

	schoolFree := calendar.DefaultSchoolFreeDays()
	if len(c.Calendar.SchoolFreeDays) > 0 {
		s, err := calendar.ParseSet(c.Calendar.SchoolFreeDays)
		if err != nil {
			return nil, err
		}
		schoolFree = s
	}

	return calendar.New(holidays, schoolFree), nil
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// SlogLevel maps LogLevel to a slog level.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
