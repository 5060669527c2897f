package persistence

import (
	"encoding/json"
	"fmt"
)

// MarshalJournalEntry serializes a JournalEntry to JSON bytes.
func MarshalJournalEntry(entry *JournalEntry) ([]byte, error) {
	if entry == nil {
		return nil, fmt.Errorf("cannot marshal nil JournalEntry")
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JournalEntry to JSON: %w", err)
	}

	return data, nil
}

// UnmarshalJournalEntry deserializes a JournalEntry from JSON bytes.
func UnmarshalJournalEntry(data []byte) (*JournalEntry, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var entry JournalEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to JournalEntry: %w", err)
	}

	return &entry, nil
}
