package session

import (
	"github.com/legal-assistant/docclient/internal/gateway"
	"github.com/legal-assistant/docclient/internal/result"
)

// Outcome is the single output slot of a session. It is one of Idle,
// Loading, Succeeded or Failed, so a result and an error never coexist.
type Outcome interface {
	outcome()
}

type Idle struct{}

type Loading struct {
	Capability gateway.Capability
}

type Succeeded struct {
	Result result.Result
}

type FailureKind int

const (
	FailureValidation FailureKind = iota
	FailureTransport
)

func (k FailureKind) String() string {
	if k == FailureValidation {
		return "validation"
	}
	return "transport"
}

// Failed carries the message shown to the user. Err is a *ValidationError or
// a *gateway.Failure.
type Failed struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (Idle) outcome()      {}
func (Loading) outcome()   {}
func (Succeeded) outcome() {}
func (Failed) outcome()    {}
