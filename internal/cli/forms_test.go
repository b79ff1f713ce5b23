package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateGoal(t *testing.T) {
	assert.NoError(t, validateGoal("Learn guitar"))
	assert.Error(t, validateGoal("   "))
}

func TestValidateWeekCount(t *testing.T) {
	assert.NoError(t, validateWeekCount(""))
	assert.NoError(t, validateWeekCount(" 12 "))
	assert.Error(t, validateWeekCount("three"))
	assert.Error(t, validateWeekCount("2"))
	assert.Error(t, validateWeekCount("53"))
}

func TestNewPlanForm_Builds(t *testing.T) {
	goal, tier, weeks := "", "", "4"
	assert.NotNil(t, newPlanForm(&goal, &tier, &weeks))
}
