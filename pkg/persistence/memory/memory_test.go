package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/Layr-Labs/inscription-signer-go/pkg/persistence"
	"github.com/Layr-Labs/inscription-signer-go/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry(hash, salt string, createdAt int64) *persistence.JournalEntry {
	return &persistence.JournalEntry{
		Hash:      hash,
		Op:        "token-mint",
		Salt:      salt,
		PublicKey: "02aa",
		Result:    `{"p":"tap","op":"token-mint"}`,
		CreatedAt: createdAt,
	}
}

func TestMemoryJournal_RecordAndLoad(t *testing.T) {
	mj := NewMemoryJournal(nil)
	defer func() { _ = mj.Close() }()

	entry := sampleEntry("hash-1", "salt-1", 100)
	require.NoError(t, mj.Record(entry))

	loaded, err := mj.Load("hash-1")
	require.NoError(t, err)
	assert.Equal(t, entry, loaded)

	// mutation of the loaded copy is not visible
	loaded.Result = "changed"
	again, err := mj.Load("hash-1")
	require.NoError(t, err)
	assert.Equal(t, entry.Result, again.Result)

	missing, err := mj.Load("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryJournal_SaltReuse(t *testing.T) {
	mj := NewMemoryJournal(nil)

	require.NoError(t, mj.Record(sampleEntry("hash-1", "salt-1", 100)))

	// same hash is idempotent
	require.NoError(t, mj.Record(sampleEntry("hash-1", "salt-1", 100)))

	err := mj.Record(sampleEntry("hash-2", "salt-1", 101))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrSaltReused)

	used, err := mj.HasSalt("salt-1")
	require.NoError(t, err)
	assert.True(t, used)

	used, err = mj.HasSalt("salt-2")
	require.NoError(t, err)
	assert.False(t, used)
}

func TestMemoryJournal_List(t *testing.T) {
	mj := NewMemoryJournal(nil)

	entries, err := mj.List()
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, mj.Record(sampleEntry("b", "s2", 200)))
	require.NoError(t, mj.Record(sampleEntry("a", "s1", 100)))

	entries, err = mj.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Hash)
	assert.Equal(t, "b", entries[1].Hash)
}

func TestMemoryJournal_InvalidEntry(t *testing.T) {
	mj := NewMemoryJournal(nil)
	assert.Error(t, mj.Record(nil))
	assert.Error(t, mj.Record(&persistence.JournalEntry{Hash: "h"}))
}

func TestMemoryJournal_Closed(t *testing.T) {
	mj := NewMemoryJournal(nil)
	require.NoError(t, mj.HealthCheck())
	require.NoError(t, mj.Close())
	require.NoError(t, mj.Close())

	assert.Error(t, mj.HealthCheck())
	assert.Error(t, mj.Record(sampleEntry("h", "s", 1)))
	_, err := mj.Load("h")
	assert.Error(t, err)
	_, err = mj.List()
	assert.Error(t, err)
	_, err = mj.HasSalt("s")
	assert.Error(t, err)
}

func TestMemoryJournal_ConcurrentRecord(t *testing.T) {
	mj := NewMemoryJournal(nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	reused := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// every goroutine fights for the same salt
			err := mj.Record(sampleEntry(fmt.Sprintf("hash-%d", i), "shared", int64(i)))
			if err != nil {
				mu.Lock()
				reused++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	entries, err := mj.List()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, 19, reused)
}
