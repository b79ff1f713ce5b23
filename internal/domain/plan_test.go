package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeCommitment(t *testing.T) {
	cases := map[string]TimeCommitment{
		"5 hrs/week":   Commitment5h,
		"10":           Commitment10h,
		"15h":          Commitment15h,
		" 10 HRS/WEEK": Commitment10h,
	}
	for in, want := range cases {
		got, err := ParseTimeCommitment(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got)
	}

	_, err := ParseTimeCommitment("20 hrs/week")
	assert.Error(t, err)
}

func TestParseDayName(t *testing.T) {
	d, err := ParseDayName("mon")
	require.NoError(t, err)
	assert.Equal(t, Monday, d)

	d, err = ParseDayName("Thursday")
	require.NoError(t, err)
	assert.Equal(t, Thursday, d)

	d, err = ParseDayName("tues")
	require.NoError(t, err)
	assert.Equal(t, Tuesday, d)

	_, err = ParseDayName("m")
	assert.Error(t, err)
	_, err = ParseDayName("Funday")
	assert.Error(t, err)
}

func TestDayName_JSON(t *testing.T) {
	data, err := json.Marshal(Saturday)
	require.NoError(t, err)
	assert.Equal(t, `"Saturday"`, string(data))

	var d DayName
	require.NoError(t, json.Unmarshal([]byte(`"Sun"`), &d))
	assert.Equal(t, Sunday, d)
}

func TestNormalizeGoal(t *testing.T) {
	g, err := NormalizeGoal("  Learn   guitar ")
	require.NoError(t, err)
	assert.Equal(t, "Learn guitar", g)

	_, err = NormalizeGoal("   ")
	assert.Error(t, err)

	_, err = NormalizeGoal(strings.Repeat("x", MaxGoalLength+1))
	assert.Error(t, err)
}

func TestValidateWeekCount(t *testing.T) {
	assert.NoError(t, ValidateWeekCount(4))
	assert.NoError(t, ValidateWeekCount(52))
	assert.Error(t, ValidateWeekCount(3))
	assert.Error(t, ValidateWeekCount(53))
}

func TestPlan_PutWeekKeepsOrderAndReplaces(t *testing.T) {
	p := &Plan{WeekCount: 4}
	p.PutWeek(Week{Number: 3, Theme: "c"})
	p.PutWeek(Week{Number: 1, Theme: "a"})
	p.PutWeek(Week{Number: 3, Theme: "c2"})

	require.Len(t, p.Weeks, 2)
	assert.Equal(t, 1, p.Weeks[0].Number)
	assert.Equal(t, "c2", p.Week(3).Theme)
	assert.Nil(t, p.Week(2))
	assert.Equal(t, []int{2, 4}, p.MissingWeeks())
	assert.False(t, p.Complete())
}

func TestPlan_Complete(t *testing.T) {
	p := &Plan{WeekCount: 4}
	for n := 1; n <= 4; n++ {
		p.PutWeek(Week{Number: n})
	}
	assert.True(t, p.Complete())
	assert.Empty(t, p.MissingWeeks())

	p.Weeks[3].Number = 5
	assert.False(t, p.Complete())
}

func TestPlan_InRange(t *testing.T) {
	p := &Plan{WeekCount: 4}
	assert.True(t, p.InRange(1))
	assert.True(t, p.InRange(4))
	assert.False(t, p.InRange(0))
	assert.False(t, p.InRange(5))
}

func TestPlan_ResumeWeek(t *testing.T) {
	p := &Plan{WeekCount: 4}
	assert.Equal(t, 1, p.ResumeWeek())
	p.LastViewedWeek = 3
	assert.Equal(t, 3, p.ResumeWeek())
	p.LastViewedWeek = 9
	assert.Equal(t, 1, p.ResumeWeek())
}
