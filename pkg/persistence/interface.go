package persistence

// IInscriptionJournal records signed inscriptions so a salt is never used twice.
// All implementations must be thread-safe.
//
// The interface supports:
// - Recording issued inscriptions (record, load, list)
// - Salt reuse detection
// - Lifecycle management (close, health check)
type IInscriptionJournal interface {
	// Record persists an issued inscription indexed by its hash.
	// Recording the same hash twice is a no-op. Returns types.ErrSaltReused when the
	// salt was already recorded for a different hash.
	Record(entry *JournalEntry) error

	// Load retrieves an entry by hash.
	// Returns nil if it doesn't exist, error only on storage failure.
	Load(hash string) (*JournalEntry, error)

	// List returns every entry sorted by CreatedAt, then Hash.
	// Returns empty slice if nothing was recorded, error only on storage failure.
	List() ([]*JournalEntry, error)

	// HasSalt reports whether any recorded entry used salt.
	HasSalt(salt string) (bool, error)

	// Close cleanly shuts down the journal.
	// Idempotent - safe to call multiple times.
	// After Close(), all other operations should return errors.
	Close() error

	// HealthCheck verifies the journal is operational.
	HealthCheck() error
}
