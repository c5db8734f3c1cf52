package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legal-assistant/docclient/internal/storage/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(":memory:")
	require.NoError(t, err)
	require.NoError(t, c.InitSchema())
	t.Cleanup(func() { c.Close() })
	return c
}

func record(id, sessionID string, at time.Time) *models.AnalysisRecord {
	return &models.AnalysisRecord{
		ID:              id,
		SessionID:       sessionID,
		Mode:            "qa",
		QAMode:          "extractive",
		Capability:      "answerExtractive",
		TextFingerprint: "f1",
		TextPreview:     "Signed in 1776.",
		Question:        "When?",
		Status:          models.StatusSucceeded,
		ResultJSON:      `{"answer":"1776","score":0}`,
		LatencyMS:       42,
		CreatedAt:       at,
	}
}

func TestInsertAndListRecords(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000)

	for i := 0; i < 3; i++ {
		require.NoError(t, c.InsertRecord(ctx, record(fmt.Sprintf("r%d", i), "s1", base.Add(time.Duration(i)*time.Second))))
	}
	require.NoError(t, c.InsertRecord(ctx, record("other", "s2", base)))

	records, err := c.ListRecords(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "r2", records[0].ID)
	assert.Equal(t, "r0", records[2].ID)

	first := records[2]
	assert.Equal(t, "s1", first.SessionID)
	assert.Equal(t, "answerExtractive", first.Capability)
	assert.Equal(t, `{"answer":"1776","score":0}`, first.ResultJSON)
	assert.Equal(t, int64(42), first.LatencyMS)
	assert.True(t, base.Equal(first.CreatedAt))

	limited, err := c.ListRecords(ctx, "s1", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestListRecordsEmpty(t *testing.T) {
	c := newTestClient(t)

	records, err := c.ListRecords(context.Background(), "missing", 10)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestFailedRecord(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	r := record("f", "s1", time.Now())
	r.Status = models.StatusFailed
	r.ResultJSON = ""
	r.ErrorMessage = "Error from API"
	require.NoError(t, c.InsertRecord(ctx, r))

	records, err := c.ListRecords(ctx, "s1", 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.StatusFailed, records[0].Status)
	assert.Equal(t, "Error from API", records[0].ErrorMessage)
}

func TestDuplicateRecordID(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.InsertRecord(ctx, record("dup", "s1", time.Now())))
	assert.Error(t, c.InsertRecord(ctx, record("dup", "s1", time.Now())))
}

func TestFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	c, err := NewClient(path)
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.InitSchema())
	require.NoError(t, c.InsertRecord(context.Background(), record("a", "s", time.Now())))
}
