// Package validate holds the consistency rules for survey definitions and
// submitted answers. Every rejection is an *Error carrying the Kind of rule
// that failed.
package validate

import (
	"errors"
	"fmt"
)

type Kind string

const (
	// Malformed: a required reference or field is missing or unusable.
	Malformed Kind = "malformed"
	// Schema: a question type disagrees with its options or with an answer.
	Schema Kind = "schema"
	// Completeness: the answer set does not match the survey's questions.
	Completeness Kind = "completeness"
	// Policy: a rule about who may do what, or which fields may change.
	Policy Kind = "policy"
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// At returns a copy of e whose message is prefixed with the payload path
// where the rule failed.
func (e *Error) At(path string) *Error {
	return &Error{Kind: e.Kind, Message: path + ": " + e.Message}
}

func errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Kind, true
	}
	return "", false
}

// Is reports whether err is a rejection of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
