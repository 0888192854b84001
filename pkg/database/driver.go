package database

import (
	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/Alijeyrad/simorq_scheduler/config"
)

// NewDriver opens a pooled PostgreSQL connection wrapped in an ent SQL driver.
func NewDriver(cfg config.DatabaseConfig) (*entsql.Driver, error) {
	return NewDriverFromConfig(FromCentralConfig(cfg))
}

func NewDriverFromConfig(cfg Config) (*entsql.Driver, error) {
	db, err := openSQLDB(cfg)
	if err != nil {
		return nil, err
	}
	return entsql.OpenDB(dialect.Postgres, db), nil
}
