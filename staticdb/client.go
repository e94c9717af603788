package staticdb

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/bluele/gcache"
	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver, registered as "pgx"
	_ "modernc.org/sqlite"             // Pure Go SQLite driver
	"zpgsa.live/internal/appconf"
	"zpgsa.live/internal/logging"
)

//go:embed schema.sql
var ddl string

var ErrFileDatabaseInTest = errors.New("test database must use in-memory storage")

// Config holds configuration options for the Client
type Config struct {
	// DSN is a sqlite path, ":memory:", or a postgres:// URL.
	DSN       string
	Env       appconf.Environment
	CacheSize int
	CacheTTL  time.Duration
	Logger    *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.CacheSize <= 0 {
		c.CacheSize = 512
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 10 * time.Minute
	}
	c.Logger = logging.Component(c.Logger, "static_db")
	return c
}

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// Client is a SQL mirror of the static data set.
type Client struct {
	config  Config
	DB      *sql.DB
	dialect dialect
	cache   gcache.Cache
	logger  *slog.Logger
}

// NewClient opens the database named by config.DSN and applies the schema.
func NewClient(config Config) (*Client, error) {
	config = config.withDefaults()

	driver, d := driverFor(config.DSN)
	if config.Env == appconf.Test && d == dialectSQLite && config.DSN != ":memory:" {
		return nil, ErrFileDatabaseInTest
	}

	db, err := sql.Open(driver, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if d == dialectSQLite {
		// Every sqlite connection to ":memory:" is its own database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	c := &Client{
		config:  config,
		DB:      db,
		dialect: d,
		cache:   gcache.New(config.CacheSize).LRU().Expiration(config.CacheTTL).Build(),
		logger:  config.Logger,
	}

	if err := c.migrate(context.Background()); err != nil {
		logging.SafeCloseWithLogging(db, c.logger, "close_after_failed_migration")
		return nil, err
	}

	return c, nil
}

func driverFor(dsn string) (string, dialect) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "pgx", dialectPostgres
	}
	return "sqlite", dialectSQLite
}

func (c *Client) migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(ddl, "-- migrate") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error applying schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites "?" placeholders to "$n" for Postgres.
func (c *Client) rebind(query string) string {
	if c.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (c *Client) Close() error {
	c.cache.Purge()
	return c.DB.Close()
}
