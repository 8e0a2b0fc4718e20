// Package search maintains the in-memory semantic index over published
// reports. The index is authoritative only for ranking; callers re-verify
// hits against the entity store before exposing them.
package search

import (
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Entry is a single indexed document.
type Entry struct {
	ReportID uuid.UUID
	// Text is the flattened narrative the vector was computed from. Kept so
	// answer grounding can quote it without refetching.
	Text   string
	Vector []float32
}

// Hit is a scored index match.
type Hit struct {
	ReportID uuid.UUID
	Text     string
	Score    float64
}

// Index is a thread-safe in-memory vector index keyed by report ID.
// It is updated incrementally as reports are published and unpublished,
// and rebuilt wholesale at startup.
type Index struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]Entry
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{entries: make(map[uuid.UUID]Entry)}
}

// Upsert adds or replaces a report's entry.
func (ix *Index) Upsert(entry Entry) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries[entry.ReportID] = entry
}

// Delete removes a report's entry. Removing a missing entry is a no-op.
func (ix *Index) Delete(reportID uuid.UUID) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.entries, reportID)
}

// Replace swaps the full contents of the index in one step.
func (ix *Index) Replace(entries []Entry) {
	fresh := make(map[uuid.UUID]Entry, len(entries))
	for _, e := range entries {
		fresh[e.ReportID] = e
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries = fresh
}

// Len returns the number of indexed reports.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Query returns up to topK entries ranked by cosine similarity to the
// query vector, best first.
func (ix *Index) Query(vector []float32, topK int) []Hit {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	hits := make([]Hit, 0, len(ix.entries))
	for _, e := range ix.entries {
		score := cosineSimilarity(vector, e.Vector)
		hits = append(hits, Hit{ReportID: e.ReportID, Text: e.Text, Score: score})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// cosineSimilarity returns the cosine of the angle between two vectors.
// Mismatched or zero-length vectors score zero.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
