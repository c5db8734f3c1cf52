package result

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	tests := []struct {
		r    Result
		want Kind
	}{
		{Summary{Text: "s"}, KindSummary},
		{Entities{}, KindEntities},
		{QA{}, KindQA},
		{Combined{}, KindCombined},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.Kind())
		})
	}
}

func TestQAPresence(t *testing.T) {
	assert.False(t, QA{}.Present())
	assert.True(t, QA{Score: Float(0)}.Present())

	q := QA{Answer: String("1776"), StartOffset: Int(10), EndOffset: Int(14)}
	assert.True(t, q.HasSpan())
	assert.Equal(t, "1776", q.AnswerText())
	assert.Equal(t, "", QA{}.AnswerText())
}

func TestAccessors(t *testing.T) {
	combined := Combined{
		Summary:  Summary{Text: "short"},
		Entities: Entities{Entities: []Entity{{Text: "1890", Label: "DATE"}}},
	}

	s, ok := SummaryOf(combined)
	assert.True(t, ok)
	assert.Equal(t, "short", s.Text)

	e, ok := EntitiesOf(combined)
	assert.True(t, ok)
	assert.Len(t, e.Entities, 1)

	_, ok = QAOf(combined)
	assert.False(t, ok, "combined without question has no QA")

	_, ok = SummaryOf(QA{})
	assert.False(t, ok)
	_, ok = EntitiesOf(Summary{})
	assert.False(t, ok)
	_, ok = QAOf(nil)
	assert.False(t, ok)
}
