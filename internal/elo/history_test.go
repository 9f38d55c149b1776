package elo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryEvictsOldestAtCapacity(t *testing.T) {
	h := NewHistory(3)
	for i := 1; i <= 5; i++ {
		h.Push(HistoryEntry{Score: 1200 + i, Reason: "like"})
	}

	require.Equal(t, 3, h.Len())
	assert.Equal(t, 1203, h.Entries()[0].Score) // 1201, 1202 evicted
	assert.Equal(t, 1205, h.Entries()[2].Score)
}

func TestHistoryRoundTrip(t *testing.T) {
	h := NewHistory(10)
	h.Push(HistoryEntry{Score: 1250, Delta: 50, Reason: "super_like", Timestamp: time.Now().UTC()})

	raw, err := h.JSON()
	require.NoError(t, err)

	restored := HistoryFromJSON(raw, 10)
	require.Equal(t, 1, restored.Len())
	assert.Equal(t, "super_like", restored.Entries()[0].Reason)
	assert.Equal(t, 50, restored.Entries()[0].Delta)
}

// Restoring with a smaller capacity keeps only the newest entries.
func TestHistoryFromJSONTruncatesToCapacity(t *testing.T) {
	h := NewHistory(10)
	for i := 1; i <= 10; i++ {
		h.Push(HistoryEntry{Score: 1200 + i})
	}
	raw, err := h.JSON()
	require.NoError(t, err)

	restored := HistoryFromJSON(raw, 4)
	require.Equal(t, 4, restored.Len())
	assert.Equal(t, 1207, restored.Entries()[0].Score)
}

func TestHistoryFromJSONHandlesGarbage(t *testing.T) {
	assert.Equal(t, 0, HistoryFromJSON([]byte("not json"), 10).Len())
	assert.Equal(t, 0, HistoryFromJSON(nil, 10).Len())
}

func TestHistoryLastSince(t *testing.T) {
	now := time.Now().UTC()
	h := NewHistory(10)
	h.Push(HistoryEntry{Score: 1390, Reason: DecayReason, Timestamp: now.Add(-48 * time.Hour)})
	h.Push(HistoryEntry{Score: 1383, Reason: DecayReason, Timestamp: now.Add(-24 * time.Hour)})
	h.Push(HistoryEntry{Score: 1400, Reason: "like", Timestamp: now.Add(-1 * time.Hour)})

	e, ok := h.LastSince(DecayReason, now.Add(-72*time.Hour))
	require.True(t, ok)
	assert.Equal(t, 1383, e.Score)

	// Entries at or before the cutoff do not count.
	_, ok = h.LastSince(DecayReason, now.Add(-24*time.Hour))
	assert.False(t, ok)

	_, ok = h.LastSince("streak", now.Add(-72*time.Hour))
	assert.False(t, ok)
}

func TestHistoryTailIsNewestFirst(t *testing.T) {
	h := NewHistory(10)
	for i := 1; i <= 5; i++ {
		h.Push(HistoryEntry{Score: 1200 + i})
	}

	tail := h.Tail(3)
	require.Len(t, tail, 3)
	assert.Equal(t, 1205, tail[0].Score)
	assert.Equal(t, 1203, tail[2].Score)

	assert.Len(t, h.Tail(100), 5)
}
