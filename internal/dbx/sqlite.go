package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/cryfox/vaultcore/internal/logging"
	"github.com/cryfox/vaultcore/internal/migrations"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// FileDSN builds a DSN for the database file at path with the pragmas the
// vault relies on. Characters that would end the path part of a SQLite URI
// are percent-escaped.
func FileDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	return "file:" + uriPathEscaper.Replace(path) + "?" + q.Encode()
}

var uriPathEscaper = strings.NewReplacer("%", "%25", "?", "%3F", "#", "%23")

// OpenSQLite opens dsn, pins the pool to a single connection and brings the
// schema up to date. On error the handle is closed.
func OpenSQLite(ctx context.Context, dsn string, log logging.Logger) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps ":memory:" databases coherent and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := RunMigrations(ctx, db, log); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// RunMigrations applies the embedded goose migrations. It is idempotent and
// touches no goose package state, so databases can be migrated concurrently.
func RunMigrations(ctx context.Context, db *sql.DB, log logging.Logger) error {
	p, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations,
		goose.WithDisableGlobalRegistry(true),
		goose.WithLogger(&gooseLogger{ctx: ctx, log: log}),
		goose.WithVerbose(true),
	)
	if err != nil {
		return fmt.Errorf("failed to prepare migrations: %w", err)
	}
	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, r := range results {
		log.Debug(ctx, "migration applied", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

// gooseLogger routes goose output into the structured logger.
type gooseLogger struct {
	ctx context.Context
	log logging.Logger
}

func (g *gooseLogger) Printf(format string, v ...any) {
	g.log.Debug(g.ctx, fmt.Sprintf(format, v...), "component", "goose")
}

func (g *gooseLogger) Fatalf(format string, v ...any) {
	msg := fmt.Sprintf(format, v...)
	g.log.Error(g.ctx, msg, "component", "goose")
	panic(msg)
}
