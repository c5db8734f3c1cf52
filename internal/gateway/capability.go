package gateway

// Capability names one external inference or extraction operation.
type Capability string

const (
	ExtractText      Capability = "extractText"
	Summarize        Capability = "summarize"
	ExtractEntities  Capability = "extractEntities"
	AnswerExtractive Capability = "answerExtractive"
	AnswerGenerative Capability = "answerGenerative"
	AnswerRag        Capability = "answerRag"
	AnalyzeCombined  Capability = "analyzeCombined"
)

const defaultErrorMessage = "Error from API"

var routes = map[Capability]string{
	ExtractText:      "/extract_text",
	Summarize:        "/summarize",
	ExtractEntities:  "/ner",
	AnswerExtractive: "/qa",
	AnswerGenerative: "/qa_gen",
	AnswerRag:        "/qa_rag",
	AnalyzeCombined:  "/analyze",
}

var defaultMessages = map[Capability]string{
	ExtractText: "Error extracting text from PDF.",
	AnswerRag:   "Error from RAG QA API.",
}

func (c Capability) Path() string {
	return routes[c]
}

// DefaultMessage is surfaced when a failed call carries no usable detail.
func (c Capability) DefaultMessage() string {
	if msg, ok := defaultMessages[c]; ok {
		return msg
	}
	return defaultErrorMessage
}

func (c Capability) String() string {
	return string(c)
}
