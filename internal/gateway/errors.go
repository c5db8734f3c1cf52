package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Failure is the outcome of a capability call that did not succeed. Message
// is shown to the user verbatim.
type Failure struct {
	Capability Capability
	StatusCode int
	Message    string
	Err        error

	// local marks failures raised on this side of the wire, such as a
	// misconfigured generative backend.
	local bool
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Transient reports whether the failure points at the service rather than the
// request: no response at all, or a 5xx. Local failures never are.
func (f *Failure) Transient() bool {
	if f.local {
		return false
	}
	return f.StatusCode == 0 || f.StatusCode >= http.StatusInternalServerError
}

func newFailure(capability Capability, status int, message string, err error) *Failure {
	if strings.TrimSpace(message) == "" {
		message = capability.DefaultMessage()
	}
	return &Failure{
		Capability: capability,
		StatusCode: status,
		Message:    message,
		Err:        err,
	}
}

func localFailure(capability Capability, err error) *Failure {
	f := newFailure(capability, 0, "", err)
	f.local = true
	return f
}

func statusFailure(capability Capability, status int, body []byte) *Failure {
	return newFailure(capability, status, detailMessage(body), fmt.Errorf("%s returned status %d", capability, status))
}

// detailMessage pulls the error detail out of an error body. A string detail
// is used as-is; a list of validation items is joined by their msg fields.
func detailMessage(body []byte) string {
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err == nil {
		return detail
	}

	var items []validationItem
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return ""
}
