// Package view derives what a front end shows from a session snapshot: the
// submit button, the spinner, the error banner and the result cards.
package view

import (
	"fmt"

	"github.com/legal-assistant/docclient/internal/result"
	"github.com/legal-assistant/docclient/internal/session"
)

const (
	NoAnswer    = "(no answer found)"
	NoScore     = "N/A"
	SpinnerText = "Thinking..."
)

type CardKind string

const (
	CardSummary  CardKind = "summary"
	CardEntities CardKind = "entities"
	CardQA       CardKind = "qa"
)

type Card struct {
	Kind     CardKind        `json:"kind"`
	Title    string          `json:"title"`
	Text     string          `json:"text,omitempty"`
	Entities []result.Entity `json:"entities,omitempty"`
	Answer   string          `json:"answer,omitempty"`
	// Score is set only when the card shows a score line.
	Score    string `json:"score,omitempty"`
	Download string `json:"download,omitempty"`
}

type View struct {
	SessionID      string `json:"sessionId"`
	Version        uint64 `json:"version"`
	Mode           string `json:"mode"`
	QAMode         string `json:"qaMode"`
	Text           string `json:"text"`
	Question       string `json:"question"`
	QuestionLabel  string `json:"questionLabel,omitempty"`
	SubmitLabel    string `json:"submitLabel"`
	SubmitDisabled bool   `json:"submitDisabled"`
	Loading        bool   `json:"loading"`
	Spinner        bool   `json:"spinner"`
	Error          string `json:"error,omitempty"`
	Cards          []Card `json:"cards"`
}

// ScoreText formats a confidence score. Zero is a real score.
func ScoreText(score *float64) string {
	if score == nil {
		return NoScore
	}
	return fmt.Sprintf("%.3f", *score)
}

// AnswerText returns the answer or the no-answer placeholder.
func AnswerText(qa result.QA) string {
	if qa.AnswerText() == "" {
		return NoAnswer
	}
	return qa.AnswerText()
}

func SubmitLabel(m session.Mode, q session.QAMode, loading bool) string {
	switch m {
	case session.ModeEntities:
		return pick(loading, "Extracting...", "Extract Entities")
	case session.ModeQA:
		switch q {
		case session.QAGenerative:
			return pick(loading, "Answering (generative)...", "Ask (Generative QA via Groq)")
		case session.QARag:
			return pick(loading, "Answering (RAG+Groq)...", "Ask (RAG: Retrieve + Groq)")
		default:
			return pick(loading, "Answering (extractive)...", "Ask (Extractive QA)")
		}
	case session.ModeCombined:
		return pick(loading, "Analyzing...", "Analyze (Summary + NER + QA)")
	default:
		return pick(loading, "Summarizing...", "Summarize Text")
	}
}

func Build(snap session.Snapshot) View {
	in := snap.Input
	loading := snap.Loading()
	res := snap.Result()
	errMsg := snap.ErrorMessage()

	v := View{
		SessionID:      snap.ID,
		Version:        snap.Version,
		Mode:           in.Mode.String(),
		QAMode:         in.QAMode.String(),
		Text:           in.Text,
		Question:       in.Question,
		QuestionLabel:  questionLabel(in.Mode),
		SubmitLabel:    SubmitLabel(in.Mode, in.QAMode, loading),
		SubmitDisabled: loading,
		Loading:        loading,
		Spinner:        loading && res == nil && errMsg == "",
		Error:          errMsg,
		Cards:          []Card{},
	}

	if res != nil {
		v.Cards = cards(res, showScore(in, res))
	}
	return v
}

func cards(res result.Result, withScore bool) []Card {
	var out []Card

	if summary, ok := result.SummaryOf(res); ok && summary.Text != "" {
		out = append(out, Card{
			Kind:     CardSummary,
			Title:    "Summary",
			Text:     summary.Text,
			Download: "summary",
		})
	}

	if entities, ok := result.EntitiesOf(res); ok && len(entities.Entities) > 0 {
		out = append(out, Card{
			Kind:     CardEntities,
			Title:    "Entities",
			Entities: entities.Entities,
			Download: "entities",
		})
	}

	if qa, ok := result.QAOf(res); ok {
		card := Card{Kind: CardQA, Title: "QA Result", Answer: AnswerText(qa)}
		if withScore {
			card.Score = ScoreText(qa.Score)
		}
		out = append(out, card)
	}

	if out == nil {
		return []Card{}
	}
	return out
}

// showScore is true for extractive answers and combined results, the only
// results whose QA part can carry a score.
func showScore(in session.Input, res result.Result) bool {
	if res.Kind() == result.KindCombined {
		return true
	}
	return res.Kind() == result.KindQA && in.Mode == session.ModeQA && in.QAMode == session.QAExtractive
}

func questionLabel(m session.Mode) string {
	switch m {
	case session.ModeQA:
		return "Question"
	case session.ModeCombined:
		return "Question (optional)"
	default:
		return ""
	}
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
