package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legal-assistant/docclient/internal/gateway"
	"github.com/legal-assistant/docclient/internal/result"
	"github.com/legal-assistant/docclient/internal/session"
)

func snapshot(in session.Input, outcome session.Outcome) session.Snapshot {
	return session.Snapshot{ID: "s1", Input: in, Outcome: outcome, Version: 7}
}

func TestScoreText(t *testing.T) {
	assert.Equal(t, "0.000", ScoreText(result.Float(0)))
	assert.Equal(t, "0.912", ScoreText(result.Float(0.91234)))
	assert.Equal(t, "N/A", ScoreText(nil))
}

func TestAnswerText(t *testing.T) {
	assert.Equal(t, "(no answer found)", AnswerText(result.QA{}))
	assert.Equal(t, "(no answer found)", AnswerText(result.QA{Answer: result.String("")}))
	assert.Equal(t, "1776", AnswerText(result.QA{Answer: result.String("1776")}))
}

func TestSubmitLabels(t *testing.T) {
	tests := []struct {
		mode    session.Mode
		qaMode  session.QAMode
		idle    string
		loading string
	}{
		{session.ModeSummary, session.QAExtractive, "Summarize Text", "Summarizing..."},
		{session.ModeEntities, session.QAExtractive, "Extract Entities", "Extracting..."},
		{session.ModeQA, session.QAExtractive, "Ask (Extractive QA)", "Answering (extractive)..."},
		{session.ModeQA, session.QAGenerative, "Ask (Generative QA via Groq)", "Answering (generative)..."},
		{session.ModeQA, session.QARag, "Ask (RAG: Retrieve + Groq)", "Answering (RAG+Groq)..."},
		{session.ModeCombined, session.QARag, "Analyze (Summary + NER + QA)", "Analyzing..."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.idle, SubmitLabel(tt.mode, tt.qaMode, false))
		assert.Equal(t, tt.loading, SubmitLabel(tt.mode, tt.qaMode, true))
	}
}

func TestBuildIdle(t *testing.T) {
	v := Build(snapshot(session.Input{Text: "doc"}, session.Idle{}))

	assert.Equal(t, "s1", v.SessionID)
	assert.Equal(t, uint64(7), v.Version)
	assert.Equal(t, "summary", v.Mode)
	assert.Equal(t, "Summarize Text", v.SubmitLabel)
	assert.False(t, v.SubmitDisabled)
	assert.False(t, v.Spinner)
	assert.Empty(t, v.Error)
	assert.NotNil(t, v.Cards)
	assert.Empty(t, v.Cards)
}

func TestBuildLoading(t *testing.T) {
	in := session.Input{Mode: session.ModeEntities}
	v := Build(snapshot(in, session.Loading{Capability: gateway.ExtractEntities}))

	assert.True(t, v.Loading)
	assert.True(t, v.Spinner)
	assert.True(t, v.SubmitDisabled)
	assert.Equal(t, "Extracting...", v.SubmitLabel)
}

func TestBuildError(t *testing.T) {
	v := Build(snapshot(session.Input{}, session.Failed{Message: session.MsgSummaryText}))

	assert.Equal(t, "Please enter some text to summarize.", v.Error)
	assert.False(t, v.Spinner)
	assert.Empty(t, v.Cards)
}

func TestBuildExtractiveZeroScore(t *testing.T) {
	in := session.Input{Mode: session.ModeQA, QAMode: session.QAExtractive}
	qa := result.QA{Answer: result.String("1776"), Score: result.Float(0), StartOffset: result.Int(10), EndOffset: result.Int(14)}

	v := Build(snapshot(in, session.Succeeded{Result: qa}))
	require.Len(t, v.Cards, 1)
	assert.Equal(t, CardQA, v.Cards[0].Kind)
	assert.Equal(t, "1776", v.Cards[0].Answer)
	assert.Equal(t, "0.000", v.Cards[0].Score)
	assert.Equal(t, "Question", v.QuestionLabel)
}

func TestBuildGenerativeHasNoScoreLine(t *testing.T) {
	in := session.Input{Mode: session.ModeQA, QAMode: session.QAGenerative}
	v := Build(snapshot(in, session.Succeeded{Result: result.QA{}}))

	require.Len(t, v.Cards, 1)
	assert.Equal(t, "(no answer found)", v.Cards[0].Answer)
	assert.Empty(t, v.Cards[0].Score)
}

func TestBuildCombined(t *testing.T) {
	in := session.Input{Mode: session.ModeCombined}
	combined := result.Combined{
		Summary:  result.Summary{Text: "Summary."},
		Entities: result.Entities{Entities: []result.Entity{{Text: "Acme", Label: "ORG"}}},
		QA:       result.QA{Answer: result.String("Acme")},
	}

	v := Build(snapshot(in, session.Succeeded{Result: combined}))
	require.Len(t, v.Cards, 3)
	assert.Equal(t, CardSummary, v.Cards[0].Kind)
	assert.Equal(t, "summary", v.Cards[0].Download)
	assert.Equal(t, CardEntities, v.Cards[1].Kind)
	assert.Equal(t, "entities", v.Cards[1].Download)
	assert.Equal(t, "N/A", v.Cards[2].Score)
	assert.Equal(t, "Question (optional)", v.QuestionLabel)
}

func TestBuildCombinedWithoutQuestion(t *testing.T) {
	in := session.Input{Mode: session.ModeCombined}
	combined := result.Combined{Summary: result.Summary{Text: "S"}, Entities: result.Entities{Entities: []result.Entity{}}}

	v := Build(snapshot(in, session.Succeeded{Result: combined}))
	require.Len(t, v.Cards, 1)
	assert.Equal(t, CardSummary, v.Cards[0].Kind)
}

func TestBuildEmptyEntities(t *testing.T) {
	in := session.Input{Mode: session.ModeEntities}
	v := Build(snapshot(in, session.Succeeded{Result: result.Entities{Entities: []result.Entity{}}}))

	assert.Empty(t, v.Cards)
	assert.False(t, v.Spinner)
}
