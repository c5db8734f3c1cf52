// Package result holds the normalized, mode-agnostic outcome of an analysis.
//
// A Result is one of Summary, Entities, QA or Combined. Optional QA fields
// are pointers: nil means absent, and a pointer to zero is a real zero.
package result

type Kind int

const (
	KindSummary Kind = iota
	KindEntities
	KindQA
	KindCombined
)

func (k Kind) String() string {
	switch k {
	case KindSummary:
		return "summary"
	case KindEntities:
		return "entities"
	case KindQA:
		return "qa"
	case KindCombined:
		return "combined"
	default:
		return "unknown"
	}
}

type Result interface {
	Kind() Kind
}

type Summary struct {
	Text string `json:"text"`
}

type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Entities is never nil after normalization.
type Entities struct {
	Entities []Entity `json:"entities"`
}

type QA struct {
	Answer      *string  `json:"answer"`
	Score       *float64 `json:"score"`
	StartOffset *int     `json:"start"`
	EndOffset   *int     `json:"end"`
}

type Combined struct {
	Summary  Summary  `json:"summary"`
	Entities Entities `json:"entities"`
	QA       QA       `json:"qa"`
}

func (Summary) Kind() Kind  { return KindSummary }
func (Entities) Kind() Kind { return KindEntities }
func (QA) Kind() Kind       { return KindQA }
func (Combined) Kind() Kind { return KindCombined }

// Present reports whether any QA field was populated.
func (q QA) Present() bool {
	return q.Answer != nil || q.Score != nil || q.StartOffset != nil || q.EndOffset != nil
}

func (q QA) HasSpan() bool {
	return q.StartOffset != nil && q.EndOffset != nil
}

// AnswerText returns the answer, or "" when absent.
func (q QA) AnswerText() string {
	if q.Answer == nil {
		return ""
	}
	return *q.Answer
}

// SummaryOf returns the summary carried by r, if any.
func SummaryOf(r Result) (Summary, bool) {
	switch v := r.(type) {
	case Summary:
		return v, true
	case Combined:
		return v.Summary, true
	}
	return Summary{}, false
}

// EntitiesOf returns the entity list carried by r, if any.
func EntitiesOf(r Result) (Entities, bool) {
	switch v := r.(type) {
	case Entities:
		return v, true
	case Combined:
		return v.Entities, true
	}
	return Entities{}, false
}

// QAOf returns the QA answer carried by r, if any.
func QAOf(r Result) (QA, bool) {
	switch v := r.(type) {
	case QA:
		return v, true
	case Combined:
		return v.QA, v.QA.Present()
	}
	return QA{}, false
}

func String(s string) *string { return &s }
func Float(f float64) *float64 { return &f }
func Int(i int) *int          { return &i }
