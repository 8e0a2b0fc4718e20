package search

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryRanksByCosineSimilarity(t *testing.T) {
	ix := NewIndex()

	close1 := uuid.New()
	far := uuid.New()
	close2 := uuid.New()

	ix.Upsert(Entry{ReportID: close1, Text: "a", Vector: []float32{1, 0, 0}})
	ix.Upsert(Entry{ReportID: far, Text: "b", Vector: []float32{0, 1, 0}})
	ix.Upsert(Entry{ReportID: close2, Text: "c", Vector: []float32{0.9, 0.1, 0}})

	hits := ix.Query([]float32{1, 0, 0}, 2)
	require.Len(t, hits, 2)

	assert.Equal(t, close1, hits[0].ReportID)
	assert.Equal(t, close2, hits[1].ReportID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestUpsertReplacesEntry(t *testing.T) {
	ix := NewIndex()
	id := uuid.New()

	ix.Upsert(Entry{ReportID: id, Text: "old", Vector: []float32{1, 0}})
	ix.Upsert(Entry{ReportID: id, Text: "new", Vector: []float32{0, 1}})

	assert.Equal(t, 1, ix.Len())

	hits := ix.Query([]float32{0, 1}, 1)
	require.Len(t, hits, 1)
	assert.Equal(t, "new", hits[0].Text)
}

func TestDelete(t *testing.T) {
	ix := NewIndex()
	id := uuid.New()

	ix.Upsert(Entry{ReportID: id, Vector: []float32{1}})
	ix.Delete(id)
	assert.Equal(t, 0, ix.Len())

	// Deleting a missing entry is a no-op.
	ix.Delete(uuid.New())
}

func TestReplace(t *testing.T) {
	ix := NewIndex()
	ix.Upsert(Entry{ReportID: uuid.New(), Vector: []float32{1}})

	fresh := []Entry{
		{ReportID: uuid.New(), Vector: []float32{1}},
		{ReportID: uuid.New(), Vector: []float32{0, 1}},
	}
	ix.Replace(fresh)
	assert.Equal(t, 2, ix.Len())

	ix.Replace(nil)
	assert.Equal(t, 0, ix.Len())
}

func TestCosineSimilarityEdgeCases(t *testing.T) {
	assert.Zero(t, cosineSimilarity(nil, nil))
	assert.Zero(t, cosineSimilarity([]float32{1, 2}, []float32{1}))
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))

	assert.InDelta(t, 1.0, cosineSimilarity([]float32{3, 4}, []float32{3, 4}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
}

func TestQueryTopKBounds(t *testing.T) {
	ix := NewIndex()
	for i := 0; i < 5; i++ {
		ix.Upsert(Entry{ReportID: uuid.New(), Vector: []float32{float32(i + 1)}})
	}

	assert.Len(t, ix.Query([]float32{1}, 3), 3)
	assert.Len(t, ix.Query([]float32{1}, 0), 5)
	assert.Len(t, ix.Query([]float32{1}, 100), 5)
}
