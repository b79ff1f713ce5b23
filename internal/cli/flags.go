package cli

import (
	"github.com/spf13/pflag"

	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/alexanderramin/waypoint/internal/service"
)

// planFlags is the goal/tier/length triple shared by commands that name a
// plan by its natural key.
type planFlags struct {
	goal  string
	tier  string
	weeks int
}

func (f *planFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.goal, "goal", "", "What you want to achieve")
	fs.StringVar(&f.tier, "tier", string(domain.Commitment5h), `Weekly time commitment ("5 hrs/week", "10", "15h")`)
	fs.IntVar(&f.weeks, "weeks", domain.MinWeekCount, "Plan length in weeks")
}

func (f *planFlags) request() service.PlanRequest {
	return service.PlanRequest{
		Goal:           f.goal,
		TimeCommitment: domain.TimeCommitment(f.tier),
		WeekCount:      f.weeks,
	}
}
