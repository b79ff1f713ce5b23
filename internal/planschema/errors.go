package planschema

import (
	"errors"
	"fmt"
)

// ErrParse is matched by every ParseError.
var ErrParse = errors.New("plan parse error")

// maxRawExcerpt bounds the raw text kept on a ParseError.
const maxRawExcerpt = 240

// Parse stages reported on ParseError.
const (
	StageExtract  = "extract"
	StageDecode   = "decode"
	StageValidate = "validate"
)

// ParseError reports generated text that could not be coerced into a plan
// structure. Raw holds a truncated excerpt of the offending input.
type ParseError struct {
	Stage  string
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrParse, e.Stage, e.Reason)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func newParseError(stage, reason, raw string) *ParseError {
	return &ParseError{Stage: stage, Reason: reason, Raw: truncate(raw, maxRawExcerpt)}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// Back off to a rune boundary.
	cut := n
	for cut > 0 && (s[cut]&0xC0) == 0x80 {
		cut--
	}
	return s[:cut] + "…"
}
