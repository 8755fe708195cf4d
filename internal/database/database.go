// Package database centralises sqlx connection helpers.  The driver is
// go-sql-driver/mysql, which also serves MariaDB.
//
// Public entry points:
//
//	Open(ctx, dsn)                 – conservative pool sizes, one attempt.
//	OpenWithOptions(ctx, dsn, o)   – pool sizes plus connect retries.
//
// Both helpers Ping the database before returning so callers fail fast
// during bootstrap.  The CMS database often starts alongside this service
// in compose setups, so OpenWithOptions retries the ping with a fixed
// delay before giving up.  Callers should Close() the returned *sqlx.DB.
package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Options tunes the pool and the connect loop.  Zero fields take the
// defaults used by Open.
type Options struct {
	MaxOpen      int
	MaxIdle      int
	ConnectTries int
	ConnectDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxOpen <= 0 {
		o.MaxOpen = 15
	}
	if o.MaxIdle <= 0 {
		o.MaxIdle = 5
	}
	if o.ConnectTries <= 0 {
		o.ConnectTries = 1
	}
	if o.ConnectDelay <= 0 {
		o.ConnectDelay = 2 * time.Second
	}
	return o
}

// Open returns a *sqlx.DB with 15 max open, 5 idle, and a 30-minute
// connection lifetime.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, dsn, Options{})
}

// OpenWithOptions opens a pool tuned by o and pings it up to
// o.ConnectTries times.
func OpenWithOptions(ctx context.Context, dsn string, o Options) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	return configure(ctx, db, o.withDefaults())
}

func configure(ctx context.Context, db *sqlx.DB, o Options) (*sqlx.DB, error) {
	db.SetMaxOpenConns(o.MaxOpen)
	db.SetMaxIdleConns(o.MaxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)

	var err error
	for attempt := 1; attempt <= o.ConnectTries; attempt++ {
		if err = db.PingContext(ctx); err == nil {
			return db, nil
		}
		zap.S().Warnw("database ping failed", "attempt", attempt, "of", o.ConnectTries, "err", err)
		if attempt == o.ConnectTries {
			break
		}
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(o.ConnectDelay):
		}
	}
	db.Close()
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", o.ConnectTries, err)
}
