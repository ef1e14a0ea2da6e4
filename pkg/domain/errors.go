package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies every failure the document model can report.
type ErrorCode string

// Error codes surfaced by validators, the history engine, and serialization.
const (
	// CodeIDNotFound reports a lookup by string ID that matched nothing.
	CodeIDNotFound ErrorCode = "id_not_found"
	// CodeIDRepeat reports a uniqueness violation within a registry.
	CodeIDRepeat ErrorCode = "id_repeat"
	// CodeNodeNotFree reports a node deletion blocked by a reaction reference
	// or an alias dependent.
	CodeNodeNotFree ErrorCode = "node_not_free"
	// CodeNetIndexNotFound reports a network index naming no live network.
	CodeNetIndexNotFound ErrorCode = "net_index_not_found"
	// CodeReactionIndexNotFound reports a stale or bad reaction index.
	CodeReactionIndexNotFound ErrorCode = "reaction_index_not_found"
	// CodeNodeIndexNotFound reports a stale or bad node index.
	CodeNodeIndexNotFound ErrorCode = "node_index_not_found"
	// CodeCompartmentIndexNotFound reports a stale or bad compartment index.
	CodeCompartmentIndexNotFound ErrorCode = "compartment_index_not_found"
	// CodeBadStoichiometry reports a non-positive stoichiometric coefficient.
	CodeBadStoichiometry ErrorCode = "bad_stoichiometry"
	// CodeStackEmpty reports undo/redo with nothing to undo or redo.
	CodeStackEmpty ErrorCode = "stack_empty"
	// CodeBadDocumentFormat reports a document that failed to decode.
	CodeBadDocumentFormat ErrorCode = "bad_document_format"
	// CodeIOFailure reports a failed read or write of durable state.
	CodeIOFailure ErrorCode = "io_failure"
	// CodeValueOutOfRange reports a numeric argument outside its legal range.
	CodeValueOutOfRange ErrorCode = "value_out_of_range"
)

var errorMessages = map[ErrorCode]string{
	CodeIDNotFound:               "id not found",
	CodeIDRepeat:                 "id repeat",
	CodeNodeNotFree:              "node is not free",
	CodeNetIndexNotFound:         "net index not found",
	CodeReactionIndexNotFound:    "reaction index not found",
	CodeNodeIndexNotFound:        "node index not found",
	CodeCompartmentIndexNotFound: "compartment index not found",
	CodeBadStoichiometry:         "stoichiometry must be positive",
	CodeStackEmpty:               "undo/redo stack is empty",
	CodeBadDocumentFormat:        "bad document format",
	CodeIOFailure:                "io failure",
	CodeValueOutOfRange:          "variable out of range",
}

// Error is the typed failure returned by every document model operation. It
// carries the offending operation name and its arguments for diagnostics.
type Error struct {
	Code ErrorCode
	Op   string
	Args []any
	Err  error
}

// NewError constructs a typed error for the named operation and arguments.
func NewError(code ErrorCode, op string, args ...any) *Error {
	return &Error{Code: code, Op: op, Args: args}
}

// WrapError constructs a typed error wrapping an underlying cause.
func WrapError(code ErrorCode, op string, cause error, args ...any) *Error {
	return &Error{Code: code, Op: op, Args: args, Err: cause}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(errorMessages[e.Code])
	if e.Op != "" {
		fmt.Fprintf(&b, ": %s", e.Op)
		if len(e.Args) > 0 {
			args := make([]string, len(e.Args))
			for i, a := range e.Args {
				args[i] = fmt.Sprintf("%v", a)
			}
			fmt.Fprintf(&b, "(%s)", strings.Join(args, ", "))
		}
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf extracts the error code from err, or the empty code when err is not
// a document model error.
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsCode reports whether err carries the given document model error code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
