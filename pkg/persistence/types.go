package persistence

import (
	"fmt"
	"sort"
)

// JournalEntry is one signed inscription as it was handed to the caller
type JournalEntry struct {
	// Hash is the hex message hash embedded in the inscription; primary key.
	Hash string `json:"hash"`

	// Op is the protocol op of the inscription, e.g. "token-mint".
	Op string `json:"op"`

	// Salt is the salt the hash was computed with. Salts are unique per journal.
	Salt string `json:"salt"`

	// PublicKey is the hex compressed key the inscription verified against.
	PublicKey string `json:"publicKey"`

	// Result is the serialized inscription.
	Result string `json:"result"`

	// CreatedAt is the Unix timestamp the entry was recorded at.
	CreatedAt int64 `json:"createdAt"`
}

// Validate checks the fields every backend indexes on
func (e *JournalEntry) Validate() error {
	if e == nil {
		return fmt.Errorf("journal entry is nil")
	}
	if e.Hash == "" {
		return fmt.Errorf("journal entry hash is required")
	}
	if e.Salt == "" {
		return fmt.Errorf("journal entry salt is required")
	}
	return nil
}

// Copy returns a detached copy of the entry
func (e *JournalEntry) Copy() *JournalEntry {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

// SortEntries orders entries by CreatedAt, then Hash
func SortEntries(entries []*JournalEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt != entries[j].CreatedAt {
			return entries[i].CreatedAt < entries[j].CreatedAt
		}
		return entries[i].Hash < entries[j].Hash
	})
}
