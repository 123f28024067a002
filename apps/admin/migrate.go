package main

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/trezcool/goose"

	"github.com/trezcool/campusconnect/core"
	appfs "github.com/trezcool/campusconnect/fs"
	"github.com/trezcool/campusconnect/storage/database"
)

var (
	errMigrateEngine = errors.New("migrations only apply to the postgres engine")

	// mockable
	openDBFunc = func(conf *core.Config) (*sql.DB, error) {
		db, err := database.Open(context.Background(), conf)
		if err != nil {
			return nil, err
		}
		return db.DB, nil
	}
	runMigrationsFunc = func(command string, db *sql.DB, args ...string) error {
		return goose.RunFS(command, db, appfs.FS, "migrations", args...)
	}
)

func (cli *commandLine) migrate(args []string) error {
	if cli.conf.Database.Engine != core.EnginePostgres {
		return errMigrateEngine
	}
	db, err := openDBFunc(cli.conf)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return runMigrationsFunc(args[0], db, args[1:]...)
}
