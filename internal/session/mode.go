package session

import (
	"fmt"
	"strings"

	"github.com/legal-assistant/docclient/internal/gateway"
)

// Mode is the active analysis. Exactly one is active at a time.
type Mode int

const (
	ModeSummary Mode = iota
	ModeEntities
	ModeQA
	ModeCombined
)

var modeNames = map[Mode]string{
	ModeSummary:  "summary",
	ModeEntities: "entities",
	ModeQA:       "qa",
	ModeCombined: "combined",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "unknown"
}

func ParseMode(s string) (Mode, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for m, name := range modeNames {
		if name == key {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown analysis mode %q", s)
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// QAMode selects the question answering capability. It only matters while
// the session is in ModeQA.
type QAMode int

const (
	QAExtractive QAMode = iota
	QAGenerative
	QARag
)

var qaModeNames = map[QAMode]string{
	QAExtractive: "extractive",
	QAGenerative: "generative",
	QARag:        "rag",
}

func (q QAMode) String() string {
	if name, ok := qaModeNames[q]; ok {
		return name
	}
	return "unknown"
}

func ParseQAMode(s string) (QAMode, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for q, name := range qaModeNames {
		if name == key {
			return q, nil
		}
	}
	return 0, fmt.Errorf("unknown QA mode %q", s)
}

func (q QAMode) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

func (q *QAMode) UnmarshalText(text []byte) error {
	parsed, err := ParseQAMode(string(text))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// Capability returns the capability a submission in mode m would call.
func Capability(m Mode, q QAMode) gateway.Capability {
	switch m {
	case ModeEntities:
		return gateway.ExtractEntities
	case ModeQA:
		switch q {
		case QAGenerative:
			return gateway.AnswerGenerative
		case QARag:
			return gateway.AnswerRag
		default:
			return gateway.AnswerExtractive
		}
	case ModeCombined:
		return gateway.AnalyzeCombined
	default:
		return gateway.Summarize
	}
}
