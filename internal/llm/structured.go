package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SchemaValidator validates a parsed struct after JSON extraction.
// Returns nil if valid, or a descriptive error if invalid.
type SchemaValidator[T any] func(T) error

var (
	singleQuoteReplacer = strings.NewReplacer("‘", "'", "’", "'", "‚", "'", "‛", "'", "′", "'")
	doubleQuoteReplacer = strings.NewReplacer("“", `"`, "”", `"`, "„", `"`, "‟", `"`, "″", `"`)
)

// ExtractJSON extracts a JSON value of type T from raw LLM text output.
// See CleanJSON for the repairs applied before decoding.
// If validator is non-nil, the extracted value is validated before return.
func ExtractJSON[T any](raw string, validator SchemaValidator[T]) (T, error) {
	var zero T

	jsonStr, err := CleanJSON(raw)
	if err != nil {
		return zero, err
	}

	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}

	if validator != nil {
		if err := validator(result); err != nil {
			return zero, fmt.Errorf("%w: validation failed: %v", ErrInvalidOutput, err)
		}
	}

	return result, nil
}

// CleanJSON locates the widest well-formed JSON object or array in raw model
// output and returns it. It prefers the contents of a markdown code fence,
// skips surrounding prose, and repairs the formatting noise models commonly
// emit: typographic quotes, backticks, control characters, comments,
// trailing commas and numbers like ".5".
//
// Typographic double quotes are only rewritten when the text does not parse
// as-is, so quotes inside well-formed string values survive.
func CleanJSON(raw string) (string, error) {
	return cleanJSON(raw, "{[")
}

// CleanJSONObject is CleanJSON restricted to objects; bracketed prose such
// as "[1]" or "[optional]" is never a candidate.
func CleanJSONObject(raw string) (string, error) {
	return cleanJSON(raw, "{")
}

func cleanJSON(raw, openers string) (string, error) {
	s := singleQuoteReplacer.Replace(raw)
	out, err := findJSON(s, openers)
	if err == nil {
		return out, nil
	}
	if normalized := doubleQuoteReplacer.Replace(s); normalized != s {
		if out, nerr := findJSON(normalized, openers); nerr == nil {
			return out, nil
		}
	}
	return "", err
}

// findJSON scans every top-level balanced span and returns the longest one
// that is opened by one of openers and parses after sanitizing. Spans with
// another opener are stepped over whole, so an array is never searched for
// objects.
func findJSON(s, openers string) (string, error) {
	s = preferFencedBlock(s)

	var best string
	var firstErr error
	for start := indexAnyFrom(s, "{[", 0); start != -1; {
		end := balancedEnd(s, start)
		if !strings.ContainsRune(openers, rune(s[start])) {
			if end == -1 {
				end = start + 1
			}
			start = indexAnyFrom(s, "{[", end)
			continue
		}
		if end == -1 {
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: unbalanced JSON starting at offset %d", ErrInvalidOutput, start)
			}
			break
		}
		candidate := sanitizeJSON(s[start:end])
		var v json.RawMessage
		if perr := json.Unmarshal([]byte(candidate), &v); perr == nil {
			if len(candidate) > len(best) {
				best = candidate
			}
		} else if firstErr == nil {
			firstErr = fmt.Errorf("%w: %v", ErrInvalidOutput, perr)
		}
		start = indexAnyFrom(s, "{[", end)
	}
	if best != "" {
		return best, nil
	}
	if firstErr != nil {
		return "", firstErr
	}
	return "", fmt.Errorf("%w: no JSON object found in response", ErrInvalidOutput)
}

func sanitizeJSON(s string) string {
	s = stripControlChars(s)
	s = stripJSONComments(s)
	s = stripStrayTokens(s)
	return normalizeLeadingDecimalNumbers(s)
}

// preferFencedBlock returns the contents of the first ``` fence that holds
// JSON-looking text, or s unchanged when there is none.
func preferFencedBlock(s string) string {
	open := strings.Index(s, "```")
	if open == -1 {
		return s
	}
	body := s[open+3:]
	// Skip the info string ("json", "JSON", ...).
	if nl := strings.IndexByte(body, '\n'); nl != -1 && !strings.ContainsAny(body[:nl], "{[") {
		body = body[nl+1:]
	}
	if end := strings.Index(body, "```"); end != -1 {
		body = body[:end]
	}
	if !strings.ContainsAny(body, "{[") {
		return s
	}
	return body
}

func indexAnyFrom(s, chars string, from int) int {
	if from >= len(s) {
		return -1
	}
	i := strings.IndexAny(s[from:], chars)
	if i == -1 {
		return -1
	}
	return from + i
}

// balancedEnd returns the index just past the bracket closing the one at
// start, or -1 if the text ends first.
func balancedEnd(s string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}

		if c == '\\' && inString {
			escaped = true
			continue
		}

		if c == '"' {
			inString = !inString
			continue
		}

		if inString {
			continue
		}

		switch c {
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}

	return -1
}

// stripControlChars drops C0 control characters other than tab, newline and
// carriage return. Those three are escaped when they appear raw inside a
// string value.
func stripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if c < 0x20 && c != '\t' && c != '\n' && c != '\r' {
			continue
		}

		if escaped {
			b.WriteByte(c)
			escaped = false
			continue
		}

		if c == '\\' && inString {
			b.WriteByte(c)
			escaped = true
			continue
		}

		if c == '"' {
			inString = !inString
			b.WriteByte(c)
			continue
		}

		if inString {
			switch c {
			case '\n':
				b.WriteString(`\n`)
			case '\r':
				b.WriteString(`\r`)
			case '\t':
				b.WriteString(`\t`)
			default:
				b.WriteByte(c)
			}
			continue
		}

		b.WriteByte(c)
	}

	return b.String()
}

// stripJSONComments removes C-style line comments (// ...) outside of JSON string
// values. LLMs sometimes emit comments in JSON output despite instructions not to.
func stripJSONComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			b.WriteByte(c)
			escaped = false
			continue
		}

		if c == '\\' && inString {
			b.WriteByte(c)
			escaped = true
			continue
		}

		if c == '"' {
			b.WriteByte(c)
			inString = !inString
			continue
		}

		if inString {
			b.WriteByte(c)
			continue
		}

		// Line comment: skip to end of line
		if c == '/' && i+1 < len(s) && s[i+1] == '/' {
			for i+1 < len(s) && s[i+1] != '\n' {
				i++
			}
			continue
		}

		// Block comment: skip to closing */
		if c == '/' && i+1 < len(s) && s[i+1] == '*' {
			i += 2
			for i+1 < len(s) {
				if s[i] == '*' && s[i+1] == '/' {
					i++
					break
				}
				i++
			}
			continue
		}

		b.WriteByte(c)
	}

	return b.String()
}

// stripStrayTokens drops backticks and trailing commas before a closing
// bracket, outside string values.
func stripStrayTokens(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			b.WriteByte(c)
			escaped = false
			continue
		}

		if c == '\\' && inString {
			b.WriteByte(c)
			escaped = true
			continue
		}

		if c == '"' {
			b.WriteByte(c)
			inString = !inString
			continue
		}

		if inString {
			b.WriteByte(c)
			continue
		}

		if c == '`' {
			continue
		}
		if c == ',' {
			if next := nextNonSpace(s, i+1); next == '}' || next == ']' {
				continue
			}
		}

		b.WriteByte(c)
	}

	return b.String()
}

// normalizeLeadingDecimalNumbers rewrites invalid JSON numeric literals such as
// ".8" or "-.3" into valid forms "0.8" and "-0.3" outside string values.
func normalizeLeadingDecimalNumbers(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)

	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			b.WriteByte(c)
			escaped = false
			continue
		}

		if c == '\\' && inString {
			b.WriteByte(c)
			escaped = true
			continue
		}

		if c == '"' {
			b.WriteByte(c)
			inString = !inString
			continue
		}

		if inString {
			b.WriteByte(c)
			continue
		}

		// JSON does not allow ".5" or "-.5". Some models emit these forms.
		if c == '.' && i+1 < len(s) && isDigit(s[i+1]) && isNumericBoundary(prevNonSpace(s, i-1)) {
			b.WriteByte('0')
		}

		b.WriteByte(c)
	}

	return b.String()
}

func prevNonSpace(s string, i int) byte {
	for ; i >= 0; i-- {
		if !isSpace(s[i]) {
			return s[i]
		}
	}
	return 0
}

func nextNonSpace(s string, i int) byte {
	for ; i < len(s); i++ {
		if !isSpace(s[i]) {
			return s[i]
		}
	}
	return 0
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t'
}

func isNumericBoundary(c byte) bool {
	switch c {
	case 0, ':', ',', '[', '{', '-':
		return true
	default:
		return false
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
