package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord(id string, createdAt time.Time) *Record {
	return &Record{
		ID:             id,
		PredictedClass: "Fungi",
		Confidence:     0.92,
		AllPredictions: map[string]float64{
			"Bacteria": 0.05, "Fungi": 0.92, "Nematode": 0.01, "Pest": 0.01,
			"Pythopthora": 0.005, "Virus": 0.003, "Healthy": 0.002,
		},
		Recommendations: []string{"a", "b", "c", "d", "e"},
		IsPreprocessed:  false,
		ProcessingTime:  1.23,
		ImageSize:       "512x384",
		ImageURL:        "/uploads/" + id + ".png",
		CreatedAt:       createdAt,
	}
}

func TestSaveAndGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	rec := sampleRecord("rec-1", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, s.Save(ctx, rec))

	got, err := s.Get(ctx, "rec-1")
	require.NoError(t, err)

	assert.Equal(t, rec.PredictedClass, got.PredictedClass)
	assert.InDelta(t, rec.Confidence, got.Confidence, 1e-9)
	assert.Equal(t, rec.AllPredictions, got.AllPredictions)
	assert.Equal(t, rec.Recommendations, got.Recommendations)
	assert.Equal(t, rec.ImageSize, got.ImageSize)
	assert.Equal(t, rec.ImageURL, got.ImageURL)
	assert.True(t, got.CreatedAt.Equal(rec.CreatedAt))
}

func TestGetUnknownID(t *testing.T) {
	s := testStore(t)

	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveStampsCreatedAt(t *testing.T) {
	s := testStore(t)

	rec := sampleRecord("rec-1", time.Time{})
	require.NoError(t, s.Save(context.Background(), rec))
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestListRecentNewestFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, s.Save(ctx, sampleRecord(id, base.Add(time.Duration(i)*time.Minute))))
	}

	records, err := s.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "new", records[0].ID)
	assert.Equal(t, "mid", records[1].ID)

	all, err := s.ListRecent(ctx, 50)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPing(t *testing.T) {
	s := testStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}
