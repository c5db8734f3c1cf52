package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legal-assistant/docclient/internal/result"
	"github.com/legal-assistant/docclient/internal/session"
)

func TestSnapshotEncoding(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	snap := session.Snapshot{
		ID: "abc",
		Input: session.Input{
			Text:     "The Act of 1890.",
			Question: "When?",
			Mode:     session.ModeQA,
			QAMode:   session.QARag,
		},
		Outcome: session.Succeeded{Result: result.Summary{Text: "not stored"}},
	}

	data, err := encodeSnapshot(snap, now)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"sessionId":"abc",
		"input":{"text":"The Act of 1890.","question":"When?","mode":"qa","qaMode":"rag"},
		"savedAt":"2024-05-01T12:00:00Z"
	}`, string(data))

	decoded, err := decodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, snap.Input, decoded.Input)
	assert.Equal(t, "abc", decoded.SessionID)
	assert.True(t, now.Equal(decoded.SavedAt))
}

func TestDecodeSnapshotRejectsUnknownMode(t *testing.T) {
	_, err := decodeSnapshot([]byte(`{"input":{"mode":"translate"}}`))
	assert.Error(t, err)
}

func TestSnapshotKey(t *testing.T) {
	assert.Equal(t, "docclient:session:abc", snapshotKey("abc"))
}

func TestNewClientUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewClient(ctx, "127.0.0.1", 1, "", 0, time.Minute)
	assert.Error(t, err)
}
