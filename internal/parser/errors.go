package parser

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyLine   = errors.New("empty line")
	ErrInvalidJSON = errors.New("invalid JSON")
	ErrNotAnObject = errors.New("expected JSON object")

	errInvalidUTF8 = errors.New("line is not valid UTF-8")
)

// RejectReason says why a line produced no record.
type RejectReason int

const (
	ReasonEmptyLine RejectReason = iota + 1
	ReasonInvalidJSON
	ReasonNotAnObject
)

func (r RejectReason) String() string {
	switch r {
	case ReasonEmptyLine:
		return "empty_line"
	case ReasonInvalidJSON:
		return "invalid_json"
	case ReasonNotAnObject:
		return "not_an_object"
	default:
		return "unknown"
	}
}

func (r RejectReason) sentinel() error {
	switch r {
	case ReasonEmptyLine:
		return ErrEmptyLine
	case ReasonInvalidJSON:
		return ErrInvalidJSON
	default:
		return ErrNotAnObject
	}
}

// RejectError is returned for lines that cannot become a record. It matches
// the reason's sentinel error under errors.Is.
type RejectError struct {
	Reason RejectReason
	Line   uint64
	Err    error
}

func (e *RejectError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d: %v: %v", e.Line, e.Reason.sentinel(), e.Err)
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Reason.sentinel())
}

func (e *RejectError) Is(target error) bool {
	return target == e.Reason.sentinel()
}

func (e *RejectError) Unwrap() error {
	return e.Err
}

// ReasonOf extracts the reject reason from err, if it carries one.
func ReasonOf(err error) (RejectReason, bool) {
	var rejectErr *RejectError
	if errors.As(err, &rejectErr) {
		return rejectErr.Reason, true
	}
	return 0, false
}
