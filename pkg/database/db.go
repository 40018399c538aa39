package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Config struct {
	DSN      string
	MaxConns int
	Timeout  time.Duration
	// TimeZone is sent as a run-time parameter on every pooled connection.
	TimeZone string
}

// BuildDSN assembles a postgres URL from its parts. Credentials are escaped.
func BuildDSN(host, port, user, password, name string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Connect opens the pool and verifies connectivity with a ping
func Connect(cfg Config) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", withSessionParams(cfg.DSN, cfg.TimeZone))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

// Now returns the database server's current time. It doubles as a liveness probe.
func Now(ctx context.Context, db *sqlx.DB) (time.Time, error) {
	var now time.Time
	if err := db.GetContext(ctx, &now, `SELECT NOW()`); err != nil {
		return time.Time{}, err
	}
	return now, nil
}

// withSessionParams adds the time zone to the DSN. URL DSNs get a query
// parameter, key=value DSNs get a quoted pair.
func withSessionParams(dsn, tz string) string {
	if tz == "" {
		return dsn
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return dsn
		}
		q := u.Query()
		q.Set("timezone", tz)
		u.RawQuery = q.Encode()
		return u.String()
	}
	return dsn + " timezone=" + quoteLiteral(tz)
}

// quoteLiteral escapes single quotes and backslashes and wraps the value in
// single quotes, as required for values in key=value connection strings.
func quoteLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
