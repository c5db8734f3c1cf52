package gateway

import "encoding/json"

type errorPayload struct {
	Detail json.RawMessage `json:"detail"`
}

type validationItem struct {
	Msg string `json:"msg"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type extractTextResponse struct {
	Text *string `json:"text"`
}

type summarizeRequest struct {
	Text         string `json:"text"`
	MaxNewTokens int    `json:"max_new_tokens"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

type nerRequest struct {
	Text string `json:"text"`
}

type entityPayload struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

type nerResponse struct {
	Entities []entityPayload `json:"entities"`
}

type qaRequest struct {
	Context  string `json:"context"`
	Question string `json:"question"`
}

type qaPayload struct {
	Answer *string  `json:"answer"`
	Score  *float64 `json:"score"`
	Start  *int     `json:"start"`
	End    *int     `json:"end"`
}

type qaGenRequest struct {
	Context      string `json:"context"`
	Question     string `json:"question"`
	MaxNewTokens int    `json:"max_new_tokens"`
}

type qaGenResponse struct {
	Answer *string `json:"answer"`
}

type qaRagRequest struct {
	Context  string `json:"context"`
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

// RetrievedChunks is decoded loosely and dropped; it is not displayed.
type qaRagResponse struct {
	Answer          *string         `json:"answer"`
	RetrievedChunks json.RawMessage `json:"retrieved_chunks"`
}

type analyzeRequest struct {
	Text         string  `json:"text"`
	Question     *string `json:"question"`
	MaxNewTokens int     `json:"max_new_tokens"`
}

type analyzeResponse struct {
	Summary  string          `json:"summary"`
	Entities []entityPayload `json:"entities"`
	QA       *qaPayload      `json:"qa"`
}
