package config

import "github.com/pkg/errors"

const (
	databaseDriverEnvVar = "DATABASE_DRIVER"
	databaseURLEnvVar    = "DATABASE_URL"

	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

type DatabaseConfig interface {
	GetDatabaseDriver() string
	GetDatabaseURL() string
}

type Database struct {
	src source
}

var _ DatabaseConfig = Database{}

func (d Database) GetDatabaseDriver() string {
	return d.src.get(databaseDriverEnvVar, DriverSQLite)
}

func (d Database) GetDatabaseURL() string {
	return d.src.get(databaseURLEnvVar, "file:botlist.db")
}

func (d Database) validate() error {
	switch d.GetDatabaseDriver() {
	case DriverSQLite, DriverPostgres:
		return nil
	default:
		return errors.Errorf("[config.Validate] unsupported %s %q", databaseDriverEnvVar, d.GetDatabaseDriver())
	}
}
