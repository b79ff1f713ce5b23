package llm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Week  int     `json:"week"`
	Theme string  `json:"theme"`
	Hours float64 `json:"hours"`
}

func TestExtractJSON_CleanJSON(t *testing.T) {
	raw := `{"week":1,"theme":"Foundations","hours":2.5}`
	result, err := ExtractJSON[testPayload](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Week)
	assert.Equal(t, "Foundations", result.Theme)
	assert.Equal(t, 2.5, result.Hours)
}

func TestExtractJSON_FencedJSON(t *testing.T) {
	raw := "```json\n{\"week\":2,\"theme\":\"Chords\"}\n```"
	result, err := ExtractJSON[testPayload](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Week)
	assert.Equal(t, "Chords", result.Theme)
}

func TestExtractJSON_SurroundingText(t *testing.T) {
	raw := "Here is your week:\n{\"week\":3,\"theme\":\"Rhythm\"}\nHope that helps!"
	result, err := ExtractJSON[testPayload](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "Rhythm", result.Theme)
}

func TestExtractJSON_NestedBraces(t *testing.T) {
	type nested struct {
		Week int               `json:"week"`
		Meta map[string]string `json:"meta"`
	}
	raw := `{"week":1,"meta":{"level":"beginner"}}`
	result, err := ExtractJSON[nested](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "beginner", result.Meta["level"])
}

func TestExtractJSON_NoJSON(t *testing.T) {
	_, err := ExtractJSON[testPayload]("I cannot help with that.", nil)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestExtractJSON_InvalidJSON(t *testing.T) {
	raw := `{"week":1, broken}`
	_, err := ExtractJSON[testPayload](raw, nil)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestExtractJSON_Truncated(t *testing.T) {
	raw := `{"week":1,"theme":"cut off`
	_, err := ExtractJSON[testPayload](raw, nil)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestExtractJSON_ValidationFailure(t *testing.T) {
	raw := `{"week":0,"theme":"x"}`
	validator := func(p testPayload) error {
		if p.Week < 1 {
			return fmt.Errorf("week must be >= 1, got %d", p.Week)
		}
		return nil
	}
	_, err := ExtractJSON(raw, validator)
	assert.ErrorIs(t, err, ErrInvalidOutput)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestExtractJSON_ValidationSuccess(t *testing.T) {
	raw := `{"week":4,"theme":"Review"}`
	validator := func(p testPayload) error {
		if p.Week < 1 {
			return fmt.Errorf("week out of range")
		}
		return nil
	}
	result, err := ExtractJSON(raw, validator)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Week)
}

func TestExtractJSON_BracesInsideStrings(t *testing.T) {
	raw := `{"week":1,"theme":"Sets {a, b} and [lists]"}`
	result, err := ExtractJSON[testPayload](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "Sets {a, b} and [lists]", result.Theme)
}

func TestExtractJSON_MultipleFences(t *testing.T) {
	raw := "Some text\n```\n{\"week\":5,\"theme\":\"A\"}\n```\nMore text\n```\n{\"week\":6}\n```"
	result, err := ExtractJSON[testPayload](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Week)
}

func TestExtractJSON_TopLevelArray(t *testing.T) {
	raw := "Overview:\n[{\"week\":1},{\"week\":2}]"
	result, err := ExtractJSON[[]testPayload](raw, nil)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, 2, result[1].Week)
}

func TestCleanJSON_SkipsBracketedProse(t *testing.T) {
	raw := "Plan [draft] follows: {\"week\":1}"
	out, err := CleanJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, `{"week":1}`, out)
}

func TestCleanJSON_PrefersWidestCandidate(t *testing.T) {
	raw := "Week 1 of 4 (see note [1]):\n{\"week\":1,\"theme\":\"Basics\"}"
	out, err := CleanJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, `{"week":1,"theme":"Basics"}`, out)

	out, err = CleanJSON(`Use {} as a placeholder. Plan: {"week":2}`)
	require.NoError(t, err)
	assert.Equal(t, `{"week":2}`, out)
}

func TestCleanJSONObject_IgnoresArrays(t *testing.T) {
	out, err := CleanJSONObject(`Steps [1, 2, 3, 4, 5, 6] then {"week":1}`)
	require.NoError(t, err)
	assert.Equal(t, `{"week":1}`, out)

	_, err = CleanJSONObject(`[{"week":1},{"week":2}]`)
	assert.ErrorIs(t, err, ErrInvalidOutput)

	out, err = CleanJSONObject(`Note [unclosed then {"week":3}`)
	require.NoError(t, err)
	assert.Equal(t, `{"week":3}`, out)
}

func TestCleanJSON_TypographicQuotes(t *testing.T) {
	raw := "{“week”: 1, “theme”: “Basics”}"
	result, err := ExtractJSON[testPayload](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "Basics", result.Theme)
}

func TestCleanJSON_KeepsTypographicQuotesInsideValues(t *testing.T) {
	raw := `{"week":1,"theme":"The “basics” week"}`
	result, err := ExtractJSON[testPayload](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "The “basics” week", result.Theme)
}

func TestCleanJSON_ControlCharsAndRawNewlines(t *testing.T) {
	raw := "{\"week\":1,\x01\"theme\":\"line one\nline two\x0b\"}"
	result, err := ExtractJSON[testPayload](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", result.Theme)
}

func TestCleanJSON_BackticksCommentsAndTrailingCommas(t *testing.T) {
	raw := "`{\"week\":1, // first week\n\"theme\":\"`go test`\", \"hours\": .5,}`"
	result, err := ExtractJSON[testPayload](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Week)
	assert.Equal(t, "`go test`", result.Theme)
	assert.Equal(t, 0.5, result.Hours)
}
