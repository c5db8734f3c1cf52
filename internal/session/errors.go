package session

import "errors"

var (
	ErrBusy   = errors.New("a request is already in progress")
	ErrNoFile = errors.New("no file content to upload")
)

// Messages shown when a submission fails its local precondition checks.
const (
	MsgSummaryText  = "Please enter some text to summarize."
	MsgEntitiesText = "Please enter some text to analyze entities."
	MsgQAContext    = "Please enter context text."
	MsgQAQuestion   = "Please enter a question."
	MsgCombinedText = "Please enter text to analyze."
)

// ValidationError is a precondition failure. It never reaches the network.
type ValidationError struct {
	Mode    Mode
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
