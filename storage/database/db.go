// Package database connects to postgres, provisions the app role and database, and runs migrations.
package database

import (
	"context"
	"database/sql"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/trezcool/goose"

	"github.com/trezcool/campusconnect/core"
	appfs "github.com/trezcool/campusconnect/fs"
)

const (
	driverName      = "postgres"
	maintenanceDB   = "postgres"
	maxPingAttempts = 30
)

// dsn builds the connection URL for dbName, as the admin role when asked and one is configured.
func dsn(dbName string, admin bool, conf core.DatabaseConfig) string {
	user := url.UserPassword(conf.User, conf.Password)
	if admin && conf.AdminUser != "" {
		user = url.UserPassword(conf.AdminUser, conf.AdminPassword)
	}

	sslMode := "require"
	if conf.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   driverName,
		User:     user,
		Host:     conf.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func connect(ctx context.Context, dbName string, admin bool, conf *core.Config) (*sqlx.DB, error) {
	db, err := sqlx.Open(driverName, dsn(dbName, admin, conf.Database))
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Open connects to the application database and waits for it to answer.
func Open(ctx context.Context, conf *core.Config) (*sqlx.DB, error) {
	return connect(ctx, conf.Database.Name, false, conf)
}

// ping waits for the database to be ready, 100ms longer between each attempt.
func ping(ctx context.Context, db *sqlx.DB) error {
	var err error
	for attempt := 1; attempt <= maxPingAttempts; attempt++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "pinging database")
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
	return errors.Wrap(err, "DB ping timeout")
}

func exists(ctx context.Context, db *sqlx.DB, query, name string) (bool, error) {
	var found bool
	err := db.GetContext(ctx, &found, query, name)
	return found, err
}

// ensureAppRole creates the application role when it is configured and missing.
func ensureAppRole(ctx context.Context, db *sqlx.DB, conf core.DatabaseConfig) error {
	if conf.User == "" {
		return nil
	}
	found, err := exists(ctx, db, `SELECT EXISTS (SELECT 1 FROM pg_roles WHERE rolname = $1)`, conf.User)
	if err != nil {
		return errors.Wrap(err, "checking app role")
	}
	if found {
		return nil
	}
	q := "CREATE ROLE " + pq.QuoteIdentifier(conf.User) + " LOGIN CREATEDB ENCRYPTED PASSWORD " + pq.QuoteLiteral(conf.Password)
	_, err = db.ExecContext(ctx, q)
	return errors.Wrap(err, "creating app role")
}

func ensureDatabase(ctx context.Context, db *sqlx.DB, name string) error {
	found, err := exists(ctx, db, `SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`, name)
	if err != nil {
		return errors.Wrap(err, "checking database")
	}
	if found {
		return nil
	}
	_, err = db.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name))
	return errors.Wrap(err, "creating database")
}

// CreateIfNotExist provisions the app role as admin, then the app database as the app role,
// so that the role owns it.
func CreateIfNotExist(ctx context.Context, conf *core.Config) error {
	admin, err := connect(ctx, maintenanceDB, true, conf)
	if err != nil {
		return err
	}
	defer func() { _ = admin.Close() }()
	if err = ensureAppRole(ctx, admin, conf.Database); err != nil {
		return err
	}

	app, err := connect(ctx, maintenanceDB, false, conf)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	return ensureDatabase(ctx, app, conf.Database.Name)
}

// Migrate applies every pending migration.
func Migrate(db *sql.DB) error {
	return errors.Wrap(goose.RunFS("up", db, appfs.FS, "migrations"), "migrating database")
}
