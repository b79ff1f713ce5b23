package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/waypoint/internal/domain"
)

// resolvePlanID accepts a full plan id or an unambiguous prefix of one.
func resolvePlanID(ctx context.Context, app *App, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("plan ID is required")
	}

	plans, err := app.Roadmap.ListPlans(ctx, app.Session())
	if err != nil {
		return "", err
	}

	var matches []string
	for _, p := range plans {
		if p.ID == input {
			return p.ID, nil
		}
		if strings.HasPrefix(p.ID, strings.ToLower(input)) {
			matches = append(matches, p.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("plan not found: %q", input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("plan ID prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}

func parseWeek(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid week %q: must be a number", s)
	}
	return n, nil
}

// parseDay accepts a 0-based day index or a weekday name.
func parseDay(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	d, err := domain.ParseDayName(s)
	if err != nil {
		return 0, err
	}
	return int(d), nil
}
