package planschema

import (
	"encoding/json"

	"github.com/alexanderramin/waypoint/internal/domain"
)

// MarshalWeek encodes a week in the generator wire shape.
func MarshalWeek(w *domain.Week) ([]byte, error) {
	return json.Marshal(w)
}

// MarshalPlan encodes weeks as {"weeks": [...]}, the shape NormalizePlan reads.
func MarshalPlan(weeks []domain.Week) ([]byte, error) {
	if weeks == nil {
		weeks = []domain.Week{}
	}
	return json.Marshal(struct {
		Weeks []domain.Week `json:"weeks"`
	}{Weeks: weeks})
}
