package elo

import (
	"encoding/json"
	"time"
)

// HistoryEntry is one recorded rating movement.
type HistoryEntry struct {
	Score     int       `json:"score"`
	Delta     int       `json:"delta"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// History is a fixed-capacity entry list: pushing onto a full history
// evicts the oldest entry first.
type History struct {
	capacity int
	entries  []HistoryEntry
}

// NewHistory creates an empty history with the given capacity.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{capacity: capacity}
}

// HistoryFromJSON restores a history from its stored encoding. Raw
// data beyond capacity is truncated to the newest entries. A nil or
// empty payload yields an empty history.
func HistoryFromJSON(raw []byte, capacity int) *History {
	h := NewHistory(capacity)
	if len(raw) == 0 {
		return h
	}
	var entries []HistoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return h
	}
	if len(entries) > h.capacity {
		entries = entries[len(entries)-h.capacity:]
	}
	h.entries = entries
	return h
}

// Push appends an entry, evicting the oldest when full.
func (h *History) Push(e HistoryEntry) {
	if len(h.entries) >= h.capacity {
		h.entries = h.entries[len(h.entries)-h.capacity+1:]
	}
	h.entries = append(h.entries, e)
}

// Entries returns the entries oldest-first.
func (h *History) Entries() []HistoryEntry { return h.entries }

// Len returns the number of stored entries.
func (h *History) Len() int { return len(h.entries) }

// Tail returns up to n newest entries, newest-first.
func (h *History) Tail(n int) []HistoryEntry {
	if n > len(h.entries) {
		n = len(h.entries)
	}
	out := make([]HistoryEntry, 0, n)
	for i := len(h.entries) - 1; i >= len(h.entries)-n; i-- {
		out = append(out, h.entries[i])
	}
	return out
}

// LastSince returns the newest entry with the given reason recorded
// strictly after the cutoff.
func (h *History) LastSince(reason string, cutoff time.Time) (HistoryEntry, bool) {
	for i := len(h.entries) - 1; i >= 0; i-- {
		e := h.entries[i]
		if e.Reason == reason && e.Timestamp.After(cutoff) {
			return e, true
		}
	}
	return HistoryEntry{}, false
}

// JSON encodes the entries for storage.
func (h *History) JSON() ([]byte, error) {
	if h.entries == nil {
		return json.Marshal([]HistoryEntry{})
	}
	return json.Marshal(h.entries)
}
