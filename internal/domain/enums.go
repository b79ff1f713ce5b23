package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TimeCommitment is the weekly-hours bucket a plan is generated for.
type TimeCommitment string

const (
	Commitment5h  TimeCommitment = "5 hrs/week"
	Commitment10h TimeCommitment = "10 hrs/week"
	Commitment15h TimeCommitment = "15 hrs/week"
)

// ValidTimeCommitments lists the accepted tiers in display order.
var ValidTimeCommitments = []TimeCommitment{Commitment5h, Commitment10h, Commitment15h}

// ParseTimeCommitment accepts the canonical label ("10 hrs/week"), a bare
// hour count ("10") or a short form ("10h").
func ParseTimeCommitment(s string) (TimeCommitment, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, tc := range ValidTimeCommitments {
		if v == string(tc) {
			return tc, nil
		}
	}
	v = strings.TrimSuffix(strings.TrimSuffix(v, "hrs"), "h")
	v = strings.TrimSpace(v)
	switch v {
	case "5":
		return Commitment5h, nil
	case "10":
		return Commitment10h, nil
	case "15":
		return Commitment15h, nil
	}
	return "", fmt.Errorf("unknown time commitment %q (use 5, 10 or 15 hrs/week)", s)
}

// Hours returns the weekly hour budget of the tier.
func (tc TimeCommitment) Hours() int {
	switch tc {
	case Commitment5h:
		return 5
	case Commitment10h:
		return 10
	case Commitment15h:
		return 15
	default:
		return 0
	}
}

// Valid reports whether tc is one of the fixed tiers.
func (tc TimeCommitment) Valid() bool {
	return tc.Hours() > 0
}

// DayName is a weekday inside a plan week. Weeks always run Monday..Sunday.
type DayName int

const (
	Monday DayName = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// DaysPerWeek is the fixed number of days in a generated week.
const DaysPerWeek = 7

var dayNames = [DaysPerWeek]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func (d DayName) String() string {
	if d < Monday || d > Sunday {
		return fmt.Sprintf("DayName(%d)", int(d))
	}
	return dayNames[d]
}

// Short returns the three-letter form, e.g. "Mon".
func (d DayName) Short() string {
	return d.String()[:3]
}

// ParseDayName accepts full or abbreviated weekday names in any case.
func ParseDayName(s string) (DayName, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if len(v) >= 3 {
		for i, name := range dayNames {
			full := strings.ToLower(name)
			if v == full || v == full[:3] || (len(v) > 3 && strings.HasPrefix(full, v)) {
				return DayName(i), nil
			}
		}
	}
	return 0, fmt.Errorf("unknown day name %q", s)
}

func (d DayName) MarshalJSON() ([]byte, error) {
	if d < Monday || d > Sunday {
		return nil, fmt.Errorf("invalid day name %d", int(d))
	}
	return json.Marshal(d.String())
}

func (d *DayName) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("day must be a string: %w", err)
	}
	parsed, err := ParseDayName(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ItemKind selects which positional array a toggle applies to.
type ItemKind string

const (
	ItemTask  ItemKind = "task"
	ItemHabit ItemKind = "habit"
)

// ParseItemKind accepts "task(s)" or "habit(s)".
func ParseItemKind(s string) (ItemKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "task", "tasks":
		return ItemTask, nil
	case "habit", "habits":
		return ItemHabit, nil
	}
	return "", fmt.Errorf("unknown item kind %q (use task or habit)", s)
}

// WeekState is the derived completion state of one plan week.
type WeekState string

const (
	WeekNotStarted WeekState = "not_started"
	WeekInProgress WeekState = "in_progress"
	WeekComplete   WeekState = "complete"
)
