package testutil

import (
	"sync"

	"github.com/Layr-Labs/inscription-signer-go/pkg/persistence"
)

// MockJournal implements IInscriptionJournal for testing.
// It delegates to an inner journal and fails calls on demand.
type MockJournal struct {
	inner persistence.IInscriptionJournal
	mu    sync.Mutex

	RecordErr  error
	HasSaltErr error

	recordCalls  int
	hasSaltCalls int
}

// NewMockJournal wraps inner, typically a memory journal
func NewMockJournal(inner persistence.IInscriptionJournal) *MockJournal {
	return &MockJournal{inner: inner}
}

func (m *MockJournal) Record(entry *persistence.JournalEntry) error {
	m.mu.Lock()
	m.recordCalls++
	err := m.RecordErr
	m.mu.Unlock()

	if err != nil {
		return err
	}
	return m.inner.Record(entry)
}

func (m *MockJournal) Load(hash string) (*persistence.JournalEntry, error) {
	return m.inner.Load(hash)
}

func (m *MockJournal) List() ([]*persistence.JournalEntry, error) {
	return m.inner.List()
}

func (m *MockJournal) HasSalt(salt string) (bool, error) {
	m.mu.Lock()
	m.hasSaltCalls++
	err := m.HasSaltErr
	m.mu.Unlock()

	if err != nil {
		return false, err
	}
	return m.inner.HasSalt(salt)
}

func (m *MockJournal) Close() error {
	return m.inner.Close()
}

func (m *MockJournal) HealthCheck() error {
	return m.inner.HealthCheck()
}

// Calls returns how often Record and HasSalt were called
func (m *MockJournal) Calls() (record int, hasSalt int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recordCalls, m.hasSaltCalls
}
