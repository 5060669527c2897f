package memory

import (
	"fmt"
	"sync"

	"github.com/Layr-Labs/inscription-signer-go/pkg/logger"
	"github.com/Layr-Labs/inscription-signer-go/pkg/persistence"
	"github.com/Layr-Labs/inscription-signer-go/pkg/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var _ persistence.IInscriptionJournal = (*MemoryJournal)(nil)

// MemoryJournal is an in-memory implementation of IInscriptionJournal.
//
// All data is stored in memory and will be lost when the process exits.
// Thread-safe using sync.RWMutex for concurrent access.
// Copies entries to prevent external mutation.
type MemoryJournal struct {
	mu sync.RWMutex

	// hash -> entry
	entries map[string]*persistence.JournalEntry

	// salt -> hash
	salts map[string]string

	closed bool
}

// NewMemoryJournal creates a new in-memory journal.
// Logs a warning since salts are forgotten on restart.
func NewMemoryJournal(l *zap.Logger) *MemoryJournal {
	logger.OrNop(l).Sugar().Warnw("Using in-memory inscription journal - salt history is lost on restart")

	return &MemoryJournal{
		entries: make(map[string]*persistence.JournalEntry),
		salts:   make(map[string]string),
	}
}

// Record stores an entry, rejecting salts already used by another hash.
func (m *MemoryJournal) Record(entry *persistence.JournalEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("journal is closed")
	}

	if existing, ok := m.salts[entry.Salt]; ok {
		if existing == entry.Hash {
			return nil
		}
		return errors.Wrapf(types.ErrSaltReused, "salt %q already signed hash %s", entry.Salt, existing)
	}

	m.entries[entry.Hash] = entry.Copy()
	m.salts[entry.Salt] = entry.Hash
	return nil
}

// Load retrieves an entry by hash.
func (m *MemoryJournal) Load(hash string) (*persistence.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("journal is closed")
	}

	entry, ok := m.entries[hash]
	if !ok {
		return nil, nil
	}
	return entry.Copy(), nil
}

// List returns all entries sorted by creation time.
func (m *MemoryJournal) List() ([]*persistence.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("journal is closed")
	}

	entries := make([]*persistence.JournalEntry, 0, len(m.entries))
	for _, entry := range m.entries {
		entries = append(entries, entry.Copy())
	}
	persistence.SortEntries(entries)
	return entries, nil
}

// HasSalt reports whether salt was recorded.
func (m *MemoryJournal) HasSalt(salt string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return false, fmt.Errorf("journal is closed")
	}

	_, ok := m.salts[salt]
	return ok, nil
}

// Close marks the journal as closed.
func (m *MemoryJournal) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// HealthCheck always succeeds unless closed.
func (m *MemoryJournal) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("journal is closed")
	}
	return nil
}
