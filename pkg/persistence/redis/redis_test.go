package redis

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync/atomic"
	"testing"

	"github.com/Layr-Labs/inscription-signer-go/pkg/logger"
	"github.com/Layr-Labs/inscription-signer-go/pkg/persistence"
	"github.com/Layr-Labs/inscription-signer-go/pkg/types"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// getTestRedisAddress returns the Redis address for testing.
// Uses REDIS_TEST_ADDRESS env var if set, otherwise defaults to localhost:6379.
func getTestRedisAddress() string {
	if addr := os.Getenv("REDIS_TEST_ADDRESS"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

// requireRedis skips the test if Redis is not available. Every test gets its own
// key prefix so runs never see each other's salts.
func requireRedis(t *testing.T) *RedisJournal {
	t.Helper()

	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	cfg := &RedisConfig{
		Address:   getTestRedisAddress(),
		DB:        15,
		KeyPrefix: fmt.Sprintf("test-%s:", uuid.NewString()),
	}

	rj, err := NewRedisJournal(cfg, testLogger)
	if err != nil {
		t.Skipf("Redis not available at %s: %v", cfg.Address, err)
		return nil
	}
	return rj
}

func sampleEntry(hash, salt string, createdAt int64) *persistence.JournalEntry {
	return &persistence.JournalEntry{
		Hash:      hash,
		Op:        "token-auth",
		Salt:      salt,
		PublicKey: "02aa",
		Result:    `{"p":"tap","op":"token-auth"}`,
		CreatedAt: createdAt,
	}
}

func TestNewRedisJournal_InvalidConfig(t *testing.T) {
	_, err := NewRedisJournal(nil, nil)
	assert.Error(t, err)

	_, err = NewRedisJournal(&RedisConfig{}, nil)
	assert.Error(t, err)
}

func TestRedisJournal_RecordAndLoad(t *testing.T) {
	rj := requireRedis(t)
	defer func() { _ = rj.Close() }()

	entry := sampleEntry("hash-1", "salt-1", 100)
	require.NoError(t, rj.Record(entry))

	loaded, err := rj.Load("hash-1")
	require.NoError(t, err)
	assert.Equal(t, entry, loaded)

	missing, err := rj.Load("missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRedisJournal_SaltReuse(t *testing.T) {
	rj := requireRedis(t)
	defer func() { _ = rj.Close() }()

	require.NoError(t, rj.Record(sampleEntry("hash-1", "salt-1", 100)))
	require.NoError(t, rj.Record(sampleEntry("hash-1", "salt-1", 100)))

	err := rj.Record(sampleEntry("hash-2", "salt-1", 101))
	assert.ErrorIs(t, err, types.ErrSaltReused)

	used, err := rj.HasSalt("salt-1")
	require.NoError(t, err)
	assert.True(t, used)

	used, err = rj.HasSalt("salt-2")
	require.NoError(t, err)
	assert.False(t, used)
}

func TestRedisJournal_List(t *testing.T) {
	rj := requireRedis(t)
	defer func() { _ = rj.Close() }()

	require.NoError(t, rj.Record(sampleEntry("b", "s2", 200)))
	require.NoError(t, rj.Record(sampleEntry("a", "s1", 100)))

	entries, err := rj.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Hash)
	assert.Equal(t, "b", entries[1].Hash)
}

func TestRedisJournal_Closed(t *testing.T) {
	rj := requireRedis(t)
	require.NoError(t, rj.HealthCheck())
	require.NoError(t, rj.Close())
	require.NoError(t, rj.Close())

	assert.Error(t, rj.HealthCheck())
	assert.Error(t, rj.Record(sampleEntry("h", "s", 1)))
}

// failingPipelineHook fails every pipeline (including MULTI/EXEC) while fail is set.
type failingPipelineHook struct {
	fail atomic.Bool
}

func (h *failingPipelineHook) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *failingPipelineHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		return next(ctx, cmd)
	}
}

func (h *failingPipelineHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		if h.fail.Load() {
			return fmt.Errorf("connection reset")
		}
		return next(ctx, cmds)
	}
}

func TestRedisJournal_FailedWriteReleasesSalt(t *testing.T) {
	rj := requireRedis(t)
	defer func() { _ = rj.Close() }()

	hook := &failingPipelineHook{}
	rj.client.AddHook(hook)

	hook.fail.Store(true)
	err := rj.Record(sampleEntry("hash-1", "salt-1", 100))
	require.Error(t, err)
	assert.NotErrorIs(t, err, types.ErrSaltReused)

	used, err := rj.HasSalt("salt-1")
	require.NoError(t, err)
	assert.False(t, used, "a failed write must not leave the salt claimed")

	loaded, err := rj.Load("hash-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	hook.fail.Store(false)
	require.NoError(t, rj.Record(sampleEntry("hash-1", "salt-1", 100)))

	used, err = rj.HasSalt("salt-1")
	require.NoError(t, err)
	assert.True(t, used)
}

func TestRedisJournal_SameHashIsIdempotent(t *testing.T) {
	rj := requireRedis(t)
	defer func() { _ = rj.Close() }()

	require.NoError(t, rj.Record(sampleEntry("hash-1", "salt-1", 100)))
	require.NoError(t, rj.Record(sampleEntry("hash-1", "salt-1", 100)))

	entries, err := rj.List()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
