// Package evaluation adapts the external pronunciation and text evaluators
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/englishassessment/backend/internal/models"
)

// Kind classifies an evaluator failure
type Kind string

// Kind constants
const (
	KindTimeout   Kind = "timeout"
	KindTransport Kind = "transport"
	KindStatus    Kind = "status"
	KindMalformed Kind = "malformed"
	KindNotObject Kind = "not_object"
	KindRejected  Kind = "rejected"
)

// Error is an evaluator failure.
// It matches models.ErrUpstreamEvaluation with errors.Is.
type Error struct {
	Evaluator  string
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s evaluator %s error (status %d): %v", e.Evaluator, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s evaluator %s error: %v", e.Evaluator, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes every evaluator error an upstream evaluation error
func (e *Error) Is(target error) bool {
	return target == models.ErrUpstreamEvaluation
}

// KindOf returns the failure kind of an evaluator error
func KindOf(err error) (Kind, bool) {
	var evalErr *Error
	if errors.As(err, &evalErr) {
		return evalErr.Kind, true
	}
	return "", false
}

// transportError classifies a failed round trip as a timeout or a transport failure
func transportError(evaluator string, err error) *Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{Evaluator: evaluator, Kind: KindTimeout, Err: err}
	}
	return &Error{Evaluator: evaluator, Kind: KindTransport, Err: err}
}
