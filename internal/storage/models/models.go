package models

import "time"

// AnalysisRecord is one completed submission. ResultJSON holds the
// normalized result and is empty when the submission failed.
type AnalysisRecord struct {
	ID              string
	SessionID       string
	Mode            string
	QAMode          string
	Capability      string
	TextFingerprint string
	TextPreview     string
	Question        string
	Status          string
	ResultJSON      string
	ErrorMessage    string
	LatencyMS       int64
	CreatedAt       time.Time
}

const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)
