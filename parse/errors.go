package parse

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Reasons a pasted line is rejected. A rejected line never aborts the
// batch; it is reported as a LineError.
var (
	ErrEmptyLine    = errors.New("empty line")
	ErrTooFewFields = errors.New("too few fields")
	ErrNoStatus     = errors.New("no status column")
	ErrMissingKey   = errors.New("missing createdAt, email or bookingNo")
	ErrBadEmail     = errors.New("email must contain @")
	ErrBadDate      = errors.New("date must be YYYY-MM-DD")
	ErrBadAmount    = errors.New("amount is not numeric")
)

// LineError records one rejected line. Line is 1-based over the
// non-blank lines of the paste.
type LineError struct {
	Line int
	Raw  string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

func (e LineError) MarshalJSON() ([]byte, error) {
	reason := ""
	if e.Err != nil {
		reason = e.Err.Error()
	}
	return json.Marshal(struct {
		Line   int    `json:"line"`
		Raw    string `json:"raw"`
		Reason string `json:"reason"`
	}{e.Line, e.Raw, reason})
}
