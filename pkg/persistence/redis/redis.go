package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Layr-Labs/inscription-signer-go/pkg/logger"
	"github.com/Layr-Labs/inscription-signer-go/pkg/persistence"
	"github.com/Layr-Labs/inscription-signer-go/pkg/types"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Key prefixes for namespacing in Redis
const (
	keyPrefixInscription = "inscriber:inscription:"
	keyPrefixSalt        = "inscriber:salt:"
	keySchemaVersion     = "inscriber:metadata:schema_version"
	currentSchemaVersion = "v1"

	// Redis has no prefix iteration, List walks this set instead
	keySetInscriptions = "inscriber:inscriptions:index"

	// WATCH retries before a contended salt is reported as reused
	maxRecordAttempts = 3
)

var _ persistence.IInscriptionJournal = (*RedisJournal)(nil)

// RedisJournal is a shared journal backed by Redis, suitable when several signer
// processes must never reuse each other's salts.
type RedisJournal struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	mu        sync.RWMutex
	closed    bool
}

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is prepended to every key, e.g. "myapp:" gives "myapp:inscriber:salt:...".
	KeyPrefix string
}

// NewRedisJournal connects to Redis and validates the schema version.
func NewRedisJournal(cfg *RedisConfig, l *zap.Logger) (*RedisJournal, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}
	l = logger.OrNop(l)

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rj := &RedisJournal{
		client:    client,
		logger:    l,
		keyPrefix: cfg.KeyPrefix,
	}

	if err := rj.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	l.Sugar().Debugw("Redis journal initialized", "address", cfg.Address, "db", cfg.DB, "key_prefix", cfg.KeyPrefix)
	return rj, nil
}

func (r *RedisJournal) prefixKey(key string) string {
	if r.keyPrefix == "" {
		return key
	}
	return r.keyPrefix + key
}

func (r *RedisJournal) initSchema(ctx context.Context) error {
	schemaKey := r.prefixKey(keySchemaVersion)

	existingVersion, err := r.client.Get(ctx, schemaKey).Result()
	if err == redis.Nil {
		return r.client.Set(ctx, schemaKey, currentSchemaVersion, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if existingVersion != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
	}
	return nil
}

// Record writes the salt claim, entry and index atomically under WATCH on the salt key.
func (r *RedisJournal) Record(entry *persistence.JournalEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("journal is closed")
	}

	ctx := context.Background()

	data, err := persistence.MarshalJournalEntry(entry)
	if err != nil {
		return err
	}

	saltKey := r.prefixKey(keyPrefixSalt + entry.Salt)
	entryKey := r.prefixKey(keyPrefixInscription + entry.Hash)
	indexKey := r.prefixKey(keySetInscriptions)

	// The salt claim, entry and index commit in one MULTI; WATCH aborts it when
	// another writer touches the salt first.
	record := func(tx *redis.Tx) error {
		existing, err := tx.Get(ctx, saltKey).Result()
		switch {
		case err == redis.Nil:
		case err != nil:
			return fmt.Errorf("failed to read salt owner: %w", err)
		case existing != entry.Hash:
			return errors.Wrapf(types.ErrSaltReused, "salt %q already signed hash %s", entry.Salt, existing)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, saltKey, entry.Hash, 0)
			pipe.Set(ctx, entryKey, data, 0)
			pipe.SAdd(ctx, indexKey, entry.Hash)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxRecordAttempts; attempt++ {
		err = r.client.Watch(ctx, record, saltKey)
		if err != redis.TxFailedErr {
			break
		}
	}
	if err == redis.TxFailedErr {
		return errors.Wrapf(types.ErrSaltReused, "salt %q recorded concurrently", entry.Salt)
	}
	if err != nil && !errors.Is(err, types.ErrSaltReused) {
		return fmt.Errorf("failed to save JournalEntry: %w", err)
	}
	return err
}

// Load retrieves an entry by hash
func (r *RedisJournal) Load(hash string) (*persistence.JournalEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("journal is closed")
	}

	data, err := r.client.Get(context.Background(), r.prefixKey(keyPrefixInscription+hash)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load JournalEntry: %w", err)
	}
	return persistence.UnmarshalJournalEntry(data)
}

// List returns all entries sorted by creation time
func (r *RedisJournal) List() ([]*persistence.JournalEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("journal is closed")
	}

	ctx := context.Background()
	indexKey := r.prefixKey(keySetInscriptions)

	hashes, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list journal hashes: %w", err)
	}
	if len(hashes) == 0 {
		return []*persistence.JournalEntry{}, nil
	}

	keys := make([]string, len(hashes))
	for i, hash := range hashes {
		keys[i] = r.prefixKey(keyPrefixInscription + hash)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch journal entries: %w", err)
	}

	entries := make([]*persistence.JournalEntry, 0, len(values))
	for i, val := range values {
		if val == nil {
			// indexed but missing, drop from the index
			r.client.SRem(ctx, indexKey, hashes[i])
			continue
		}

		data, ok := val.(string)
		if !ok {
			r.logger.Sugar().Warnw("Unexpected value type for JournalEntry", "key", keys[i])
			continue
		}

		entry, err := persistence.UnmarshalJournalEntry([]byte(data))
		if err != nil {
			r.logger.Sugar().Warnw("Failed to unmarshal JournalEntry, skipping", "key", keys[i], "error", err)
			continue
		}
		entries = append(entries, entry)
	}

	persistence.SortEntries(entries)
	return entries, nil
}

// HasSalt reports whether salt was recorded
func (r *RedisJournal) HasSalt(salt string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return false, fmt.Errorf("journal is closed")
	}

	n, err := r.client.Exists(context.Background(), r.prefixKey(keyPrefixSalt+salt)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to look up salt: %w", err)
	}
	return n > 0, nil
}

// Close shuts down the Redis client
func (r *RedisJournal) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	r.logger.Sugar().Debug("Redis journal closed")
	return nil
}

// HealthCheck pings Redis and checks the schema marker
func (r *RedisJournal) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("journal is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	_, err := r.client.Get(ctx, r.prefixKey(keySchemaVersion)).Result()
	if err == redis.Nil {
		return fmt.Errorf("schema version not found - database may not be properly initialized")
	}
	if err != nil {
		return fmt.Errorf("failed to verify schema version: %w", err)
	}
	return nil
}
