// Package db selects a store driver by name.
package db

import (
	"github.com/pkg/errors"

	"github.com/fady17/task/internal/store"
	"github.com/fady17/task/internal/store/db/mysql"
	"github.com/fady17/task/internal/store/db/postgres"
	"github.com/fady17/task/internal/store/db/sqlite"
)

// NewDBDriver opens a connection pool for the named dialect.
func NewDBDriver(driver, dsn string) (store.Driver, error) {
	var d store.Driver
	var err error

	switch driver {
	case "sqlite":
		d, err = sqlite.NewDB(dsn)
	case "postgres":
		d, err = postgres.NewDB(dsn)
	case "mysql":
		d, err = mysql.NewDB(dsn)
	default:
		return nil, errors.Errorf("unknown db driver: %s", driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return d, nil
}
