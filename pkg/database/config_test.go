package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Alijeyrad/simorq_scheduler/config"
)

func TestFromCentralConfig_Defaults(t *testing.T) {
	cfg := FromCentralConfig(config.DatabaseConfig{User: "sched", DBName: "scheduler"})

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "disable", cfg.SSLMode)
	assert.Equal(t, 25, cfg.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.ConnMaxLifetime())
}

func TestDSN(t *testing.T) {
	dsn := NewDSN(config.DatabaseConfig{
		Host: "db", Port: 6543, User: "u", Password: "p", DBName: "scheduler", SSLMode: "require",
	})
	assert.Equal(t, "host=db port=6543 user=u password=p dbname=scheduler sslmode=require", dsn)
}
