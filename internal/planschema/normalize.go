// Package planschema turns raw generator text into validated plan weeks.
// Every function is pure; failures are reported as *ParseError.
package planschema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/alexanderramin/waypoint/internal/llm"
)

type wireWeek struct {
	Week      *int                 `json:"week"`
	Theme     string               `json:"theme"`
	Summary   string               `json:"summary"`
	Milestone string               `json:"weeklyMilestone"`
	Reward    string               `json:"weeklyReward"`
	Resources []domain.ResourceRef `json:"resources"`
	Days      []wireDay            `json:"days"`
}

type wireDay struct {
	Day              string   `json:"day"`
	Focus            string   `json:"focus"`
	Tasks            []string `json:"tasks"`
	Habits           []string `json:"habits"`
	ReflectionPrompt string   `json:"reflectionPrompt"`
}

type wirePlan struct {
	Weeks []wireWeek `json:"weeks"`
}

// NormalizeWeek parses a single generated week. When expectedWeek > 0 the
// week number in the payload must match it.
func NormalizeWeek(raw string, expectedWeek int) (*domain.Week, error) {
	cleaned, err := llm.CleanJSONObject(raw)
	if err != nil {
		return nil, newParseError(StageExtract, err.Error(), raw)
	}

	var ww wireWeek
	if err := decode(cleaned, &ww); err != nil {
		return nil, newParseError(StageDecode, err.Error(), raw)
	}

	week, reason := validateWeek(ww)
	if reason != "" {
		return nil, newParseError(StageValidate, reason, raw)
	}
	if expectedWeek > 0 && week.Number != expectedWeek {
		return nil, newParseError(StageValidate,
			fmt.Sprintf("week number %d does not match requested week %d", week.Number, expectedWeek), raw)
	}
	return week, nil
}

// NormalizePlan parses a whole generated plan, given either as
// {"weeks": [...]} or as a bare array of weeks. Weeks are returned ordered
// and must be numbered 1..n without gaps or duplicates.
func NormalizePlan(raw string) ([]domain.Week, error) {
	cleaned, err := llm.CleanJSON(raw)
	if err != nil {
		return nil, newParseError(StageExtract, err.Error(), raw)
	}

	var wire []wireWeek
	if strings.HasPrefix(cleaned, "[") {
		err = decode(cleaned, &wire)
	} else {
		var wp wirePlan
		err = decode(cleaned, &wp)
		wire = wp.Weeks
	}
	if err != nil {
		return nil, newParseError(StageDecode, err.Error(), raw)
	}
	if len(wire) == 0 {
		return nil, newParseError(StageValidate, "plan has no weeks", raw)
	}

	weeks := make([]domain.Week, 0, len(wire))
	for i, ww := range wire {
		week, reason := validateWeek(ww)
		if reason != "" {
			return nil, newParseError(StageValidate, fmt.Sprintf("entry %d: %s", i+1, reason), raw)
		}
		weeks = append(weeks, *week)
	}

	sort.SliceStable(weeks, func(i, j int) bool { return weeks[i].Number < weeks[j].Number })
	for i, w := range weeks {
		if i > 0 && w.Number == weeks[i-1].Number {
			return nil, newParseError(StageValidate, fmt.Sprintf("week %d appears more than once", w.Number), raw)
		}
		if w.Number != i+1 {
			return nil, newParseError(StageValidate, fmt.Sprintf("weeks are not contiguous: expected week %d, found %d", i+1, w.Number), raw)
		}
	}
	return weeks, nil
}

func decode(s string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON value")
	}
	return nil
}

// validateWeek returns the canonical week or a non-empty reason.
func validateWeek(ww wireWeek) (*domain.Week, string) {
	if ww.Week == nil {
		return nil, "week number is missing"
	}
	n := *ww.Week
	if n < 1 {
		return nil, fmt.Sprintf("week number must be >= 1, got %d", n)
	}

	w := &domain.Week{
		Number:    n,
		Theme:     strings.TrimSpace(ww.Theme),
		Summary:   strings.TrimSpace(ww.Summary),
		Milestone: strings.TrimSpace(ww.Milestone),
		Reward:    strings.TrimSpace(ww.Reward),
		Resources: cleanResources(ww.Resources),
	}
	switch {
	case w.Theme == "":
		return nil, fmt.Sprintf("week %d: theme is required", n)
	case w.Summary == "":
		return nil, fmt.Sprintf("week %d: summary is required", n)
	case w.Milestone == "":
		return nil, fmt.Sprintf("week %d: weeklyMilestone is required", n)
	}

	if len(ww.Days) != domain.DaysPerWeek {
		return nil, fmt.Sprintf("week %d: expected %d days, got %d", n, domain.DaysPerWeek, len(ww.Days))
	}
	days := make([]domain.Day, domain.DaysPerWeek)
	var seen [domain.DaysPerWeek]bool
	for i, wd := range ww.Days {
		name, err := domain.ParseDayName(wd.Day)
		if err != nil {
			return nil, fmt.Sprintf("week %d: day %d: %v", n, i+1, err)
		}
		if seen[name] {
			return nil, fmt.Sprintf("week %d: %s appears more than once", n, name)
		}
		seen[name] = true

		d := domain.Day{
			Name:             name,
			Focus:            strings.TrimSpace(wd.Focus),
			Tasks:            cleanList(wd.Tasks),
			Habits:           cleanList(wd.Habits),
			ReflectionPrompt: strings.TrimSpace(wd.ReflectionPrompt),
		}
		if d.Focus == "" {
			return nil, fmt.Sprintf("week %d: %s: focus is required", n, name)
		}
		if len(d.Tasks) == 0 {
			return nil, fmt.Sprintf("week %d: %s: at least one task is required", n, name)
		}
		days[name] = d
	}
	w.Days = days
	return w, ""
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// cleanResources drops empty entries and canonicalises each one through the
// string form so a serialised week parses back to the same value.
func cleanResources(in []domain.ResourceRef) []domain.ResourceRef {
	out := make([]domain.ResourceRef, 0, len(in))
	for _, r := range in {
		if r.Title == "" && r.URL == "" {
			continue
		}
		out = append(out, domain.ParseResource(r.String()))
	}
	return out
}
