package planschema

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/waypoint/internal/domain"
)

var dayOrder = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func wireDayMap(name string) map[string]any {
	return map[string]any{
		"day":              name,
		"focus":            "Focus for " + name,
		"tasks":            []string{"Practice 20 minutes", "Review notes"},
		"habits":           []string{"Stretch hands"},
		"reflectionPrompt": "What felt easier today?",
	}
}

func wireWeekMap(n int) map[string]any {
	days := make([]any, 0, len(dayOrder))
	for _, d := range dayOrder {
		days = append(days, wireDayMap(d))
	}
	return map[string]any{
		"week":            n,
		"theme":           fmt.Sprintf("Theme %d", n),
		"summary":         "Build the basics.",
		"weeklyMilestone": "Play a full song",
		"weeklyReward":    "New picks",
		"resources":       []string{"Justin Guitar – https://www.justinguitar.com/", "A chord chart"},
		"days":            days,
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestNormalizeWeek_Valid(t *testing.T) {
	w, err := NormalizeWeek(mustJSON(t, wireWeekMap(2)), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, w.Number)
	assert.Equal(t, "Theme 2", w.Theme)
	require.Len(t, w.Days, 7)
	assert.Equal(t, domain.Monday, w.Days[0].Name)
	assert.Equal(t, domain.Sunday, w.Days[6].Name)
	require.Len(t, w.Resources, 2)
	assert.Equal(t, "https://www.justinguitar.com/", w.Resources[0].URL)
	assert.Equal(t, "A chord chart", w.Resources[1].Title)
}

func TestNormalizeWeek_FencedWithProse(t *testing.T) {
	raw := "Sure! Here is week 1:\n```json\n" + mustJSON(t, wireWeekMap(1)) + "\n```\nGood luck!"
	w, err := NormalizeWeek(raw, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, w.Number)
}

func TestNormalizeWeek_CurlyQuotes(t *testing.T) {
	raw := strings.ReplaceAll(mustJSON(t, wireWeekMap(1)), `"`, "“")
	raw = strings.ReplaceAll(raw, "“:", "”:")
	w, err := NormalizeWeek(raw, 1)
	require.NoError(t, err)
	assert.Equal(t, "Theme 1", w.Theme)
}

func TestNormalizeWeek_ReordersDays(t *testing.T) {
	m := wireWeekMap(1)
	days := m["days"].([]any)
	days[0], days[6] = days[6], days[0]
	days[2].(map[string]any)["day"] = "wed"

	w, err := NormalizeWeek(mustJSON(t, m), 0)
	require.NoError(t, err)
	for i, d := range w.Days {
		assert.Equal(t, domain.DayName(i), d.Name)
	}
	assert.Equal(t, "Focus for Sunday", w.Days[6].Focus)
}

func TestNormalizeWeek_DropsBlankEntries(t *testing.T) {
	m := wireWeekMap(1)
	day := m["days"].([]any)[0].(map[string]any)
	day["tasks"] = []string{"  ", "Tune guitar", ""}
	day["habits"] = []string{""}
	m["resources"] = []string{}

	w, err := NormalizeWeek(mustJSON(t, m), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tune guitar"}, w.Days[0].Tasks)
	assert.Empty(t, w.Days[0].Habits)
	assert.Empty(t, w.Resources)
}

func TestNormalizeWeek_RewardOptional(t *testing.T) {
	m := wireWeekMap(1)
	delete(m, "weeklyReward")
	w, err := NormalizeWeek(mustJSON(t, m), 1)
	require.NoError(t, err)
	assert.Empty(t, w.Reward)
}

func TestNormalizeWeek_ExpectedWeekMismatch(t *testing.T) {
	_, err := NormalizeWeek(mustJSON(t, wireWeekMap(3)), 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, StageValidate, pe.Stage)
	assert.Contains(t, pe.Reason, "does not match")
}

func TestNormalizeWeek_MalformedText(t *testing.T) {
	w, err := NormalizeWeek("I cannot help with that.", 1)
	assert.Nil(t, w)
	assert.ErrorIs(t, err, ErrParse)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, StageExtract, pe.Stage)
	assert.Equal(t, "I cannot help with that.", pe.Raw)
}

func TestNormalizeWeek_ShapeErrors(t *testing.T) {
	cases := map[string]func(m map[string]any){
		"missing week":      func(m map[string]any) { delete(m, "week") },
		"zero week":         func(m map[string]any) { m["week"] = 0 },
		"missing theme":     func(m map[string]any) { m["theme"] = "  " },
		"missing summary":   func(m map[string]any) { delete(m, "summary") },
		"missing milestone": func(m map[string]any) { m["weeklyMilestone"] = "" },
		"six days":          func(m map[string]any) { m["days"] = m["days"].([]any)[:6] },
		"duplicate day": func(m map[string]any) {
			m["days"].([]any)[1].(map[string]any)["day"] = "Monday"
		},
		"unknown day": func(m map[string]any) {
			m["days"].([]any)[1].(map[string]any)["day"] = "Someday"
		},
		"empty focus": func(m map[string]any) {
			m["days"].([]any)[3].(map[string]any)["focus"] = ""
		},
		"no tasks": func(m map[string]any) {
			m["days"].([]any)[4].(map[string]any)["tasks"] = []string{" "}
		},
		"tasks wrong type": func(m map[string]any) {
			m["days"].([]any)[4].(map[string]any)["tasks"] = "practice"
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			m := wireWeekMap(1)
			mutate(m)
			w, err := NormalizeWeek(mustJSON(t, m), 0)
			assert.Nil(t, w)
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestNormalizeWeek_RejectsArray(t *testing.T) {
	raw := mustJSON(t, []any{wireWeekMap(1)})
	_, err := NormalizeWeek(raw, 1)
	assert.ErrorIs(t, err, ErrParse)
}

func TestNormalizeWeek_BracketedProseBeforePayload(t *testing.T) {
	payload := mustJSON(t, wireWeekMap(1))
	for _, raw := range []string{
		"Here is week 1 of 4 (see note [1]):\n" + payload,
		"Use {} as a placeholder. Plan: " + payload,
		"Options [a] or [b], then {\"draft\": true} and finally:\n" + payload,
	} {
		w, err := NormalizeWeek(raw, 1)
		require.NoError(t, err, raw)
		assert.Equal(t, 1, w.Number)
		assert.Len(t, w.Days, 7)
	}
}

func TestNormalizePlan_BracketedProseBeforePayload(t *testing.T) {
	raw := "Plan (see [1]):\n" + mustJSON(t, map[string]any{"weeks": []any{wireWeekMap(1), wireWeekMap(2)}})
	weeks, err := NormalizePlan(raw)
	require.NoError(t, err)
	assert.Len(t, weeks, 2)
}

func TestParseError_TruncatesRaw(t *testing.T) {
	raw := strings.Repeat("é", 400)
	_, err := NormalizeWeek(raw, 1)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.LessOrEqual(t, len(pe.Raw), maxRawExcerpt+len("…"))
	assert.True(t, strings.HasSuffix(pe.Raw, "…"))
	assert.NotContains(t, pe.Raw, "�")
}

func planJSON(t *testing.T, numbers ...int) string {
	t.Helper()
	weeks := make([]any, 0, len(numbers))
	for _, n := range numbers {
		weeks = append(weeks, wireWeekMap(n))
	}
	return mustJSON(t, map[string]any{"weeks": weeks})
}

func TestNormalizePlan_ObjectForm(t *testing.T) {
	weeks, err := NormalizePlan("```json\n" + planJSON(t, 1, 2, 3, 4) + "\n```")
	require.NoError(t, err)
	require.Len(t, weeks, 4)
	for i, w := range weeks {
		assert.Equal(t, i+1, w.Number)
	}
}

func TestNormalizePlan_ArrayFormOutOfOrder(t *testing.T) {
	raw := mustJSON(t, []any{wireWeekMap(2), wireWeekMap(1)})
	weeks, err := NormalizePlan(raw)
	require.NoError(t, err)
	require.Len(t, weeks, 2)
	assert.Equal(t, 1, weeks[0].Number)
}

func TestNormalizePlan_Errors(t *testing.T) {
	cases := map[string]string{
		"gap":        planJSON(t, 1, 3),
		"duplicate":  planJSON(t, 1, 1, 2),
		"late start": planJSON(t, 2, 3),
		"empty":      `{"weeks":[]}`,
		"prose":      "I cannot help with that.",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			weeks, err := NormalizePlan(raw)
			assert.Nil(t, weeks)
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestNormalizePlan_BadWeekReportsEntry(t *testing.T) {
	m := wireWeekMap(2)
	m["days"] = []any{}
	raw := mustJSON(t, map[string]any{"weeks": []any{wireWeekMap(1), m}})

	_, err := NormalizePlan(raw)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Reason, "entry 2")
}

func TestRoundTrip_Plan(t *testing.T) {
	weeks, err := NormalizePlan(planJSON(t, 1, 2, 3, 4))
	require.NoError(t, err)

	data, err := MarshalPlan(weeks)
	require.NoError(t, err)

	again, err := NormalizePlan(string(data))
	require.NoError(t, err)
	assert.Equal(t, weeks, again)
}

func TestRoundTrip_WeekWithObjectResources(t *testing.T) {
	m := wireWeekMap(1)
	m["resources"] = []any{
		map[string]string{"title": "Docs", "url": "https://go.dev"},
		map[string]string{"name": "Book only"},
		map[string]string{"title": "", "url": ""},
	}
	w, err := NormalizeWeek(mustJSON(t, m), 1)
	require.NoError(t, err)
	require.Len(t, w.Resources, 2)

	data, err := MarshalWeek(w)
	require.NoError(t, err)
	again, err := NormalizeWeek(string(data), 1)
	require.NoError(t, err)
	assert.Equal(t, w, again)
}
