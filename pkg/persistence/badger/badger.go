package badger

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/Layr-Labs/inscription-signer-go/pkg/logger"
	"github.com/Layr-Labs/inscription-signer-go/pkg/persistence"
	"github.com/Layr-Labs/inscription-signer-go/pkg/types"
	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Key prefixes for namespacing
const (
	keyPrefixInscription = "inscription:"
	keyPrefixSalt        = "salt:"
	keySchemaVersion     = "metadata:schema_version"
	currentSchemaVersion = "v1"
)

var _ persistence.IInscriptionJournal = (*BadgerJournal)(nil)

// BadgerJournal is a durable, disk-based journal using Badger.
// Entry and salt index are written in one transaction.
type BadgerJournal struct {
	db       *badgerdb.DB
	logger   *zap.Logger
	gcCancel context.CancelFunc
	gcWg     sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
}

// NewBadgerJournal opens (or creates) a journal at dataPath with SyncWrites enabled.
// A background goroutine runs value log garbage collection.
func NewBadgerJournal(dataPath string, l *zap.Logger) (*BadgerJournal, error) {
	l = logger.OrNop(l)

	absPath, err := filepath.Abs(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	opts := badgerdb.DefaultOptions(absPath)
	opts.Logger = newJournalLogger(l)
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	opts.NumVersionsToKeep = 1

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", absPath, err)
	}

	bj := &BadgerJournal{
		db:     db,
		logger: l,
	}

	if err := bj.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	bj.gcCancel = cancel
	bj.gcWg.Add(1)
	go bj.runGC(ctx)

	l.Sugar().Debugw("Badger journal initialized", "path", absPath)

	return bj, nil
}

func (b *BadgerJournal) initSchema() error {
	return b.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			return txn.Set([]byte(keySchemaVersion), []byte(currentSchemaVersion))
		}
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		var existingVersion string
		err = item.Value(func(val []byte) error {
			existingVersion = string(val)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to read schema version value: %w", err)
		}

		if existingVersion != currentSchemaVersion {
			return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
		}
		return nil
	})
}

func (b *BadgerJournal) runGC(ctx context.Context) {
	defer b.gcWg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := b.db.RunValueLogGC(0.5)
			if err != nil && err != badgerdb.ErrNoRewrite {
				b.logger.Sugar().Warnw("Badger GC error", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Record stores an entry and its salt index atomically
func (b *BadgerJournal) Record(entry *persistence.JournalEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("journal is closed")
	}

	data, err := persistence.MarshalJournalEntry(entry)
	if err != nil {
		return err
	}

	saltKey := []byte(keyPrefixSalt + entry.Salt)
	err = b.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(saltKey)
		switch {
		case err == nil:
			var existing string
			if err := item.Value(func(val []byte) error {
				existing = string(val)
				return nil
			}); err != nil {
				return err
			}
			if existing == entry.Hash {
				return nil
			}
			return errors.Wrapf(types.ErrSaltReused, "salt %q already signed hash %s", entry.Salt, existing)
		case err != badgerdb.ErrKeyNotFound:
			return err
		}

		if err := txn.Set(saltKey, []byte(entry.Hash)); err != nil {
			return err
		}
		return txn.Set([]byte(keyPrefixInscription+entry.Hash), data)
	})
	if err == badgerdb.ErrConflict {
		// a concurrent transaction wrote the same salt first
		return errors.Wrapf(types.ErrSaltReused, "salt %q recorded concurrently", entry.Salt)
	}
	return err
}

// Load retrieves an entry by hash
func (b *BadgerJournal) Load(hash string) (*persistence.JournalEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("journal is closed")
	}

	var data []byte
	err := b.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keyPrefixInscription + hash))
		if err == badgerdb.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load JournalEntry: %w", err)
	}

	if data == nil {
		return nil, nil
	}
	return persistence.UnmarshalJournalEntry(data)
}

// List returns all entries sorted by creation time
func (b *BadgerJournal) List() ([]*persistence.JournalEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("journal is closed")
	}

	entries := make([]*persistence.JournalEntry, 0)
	err := b.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefixInscription)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				entry, err := persistence.UnmarshalJournalEntry(val)
				if err != nil {
					b.logger.Sugar().Warnw("Failed to unmarshal JournalEntry, skipping",
						"key", string(item.Key()), "error", err)
					return nil
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}

	persistence.SortEntries(entries)
	return entries, nil
}

// HasSalt reports whether salt was recorded
func (b *BadgerJournal) HasSalt(salt string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return false, fmt.Errorf("journal is closed")
	}

	found := false
	err := b.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(keyPrefixSalt + salt))
		if err == badgerdb.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to look up salt: %w", err)
	}
	return found, nil
}

// Close stops GC and closes the database
func (b *BadgerJournal) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	if b.gcCancel != nil {
		b.gcCancel()
	}
	b.gcWg.Wait()

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}

	b.logger.Sugar().Debug("Badger journal closed")
	return nil
}

// HealthCheck verifies the database is readable
func (b *BadgerJournal) HealthCheck() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("journal is closed")
	}

	return b.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(keySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			return fmt.Errorf("schema version not found - database may be corrupted")
		}
		return err
	})
}
