package gateway

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetailMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"detail":"Question is empty"}`, "Question is empty"},
		{`{"detail":[{"msg":"a"},{"loc":["body"]},{"msg":"b"}]}`, "a; b"},
		{`{"detail":[]}`, ""},
		{`{"detail":42}`, ""},
		{`{"detail":null}`, ""},
		{`{}`, ""},
		{``, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, detailMessage([]byte(tt.body)), tt.body)
	}
}

func TestNewFailureDefaults(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	f := newFailure(AnswerRag, 0, "  ", cause)

	assert.Equal(t, "Error from RAG QA API.", f.Error())
	assert.ErrorIs(t, f, cause)
	assert.True(t, f.Transient())

	assert.False(t, newFailure(Summarize, 422, "bad", nil).Transient())
	assert.True(t, newFailure(Summarize, 503, "", nil).Transient())
}

func TestNormalizeEntitiesNeverNil(t *testing.T) {
	assert.NotNil(t, normalizeEntities(nil).Entities)
	assert.False(t, normalizeExtractive(nil).Present())
}
