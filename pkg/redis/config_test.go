package redis

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/Alijeyrad/simorq_scheduler/config"
)

func TestFromCentralConfig(t *testing.T) {
	cfg := FromCentralConfig(config.RedisConfig{Addr: "cache:6379", PoolSize: 40})

	assert.Equal(t, "cache:6379", cfg.Addr)
	assert.Equal(t, 40, cfg.PoolSize)
	assert.Equal(t, 2, cfg.MinIdleConns)
	assert.Equal(t, 5*time.Second, cfg.DialTimeout())
	assert.Equal(t, 3*time.Second, cfg.ReadTimeout())
}

func TestConnect_EmptyAddr(t *testing.T) {
	_, err := Connect(context.Background(), config.RedisConfig{})
	assert.ErrorIs(t, err, errNoAddr)
}

func TestSessionKey(t *testing.T) {
	id := uuid.MustParse("0190c1a2-0000-7000-8000-000000000001")
	assert.Equal(t, "session:0190c1a2-0000-7000-8000-000000000001", SessionKey(id))
}
