package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/waypoint/internal/db"
	"github.com/alexanderramin/waypoint/internal/domain"
)

// SQLiteProgressRepo implements ProgressRepo using a SQLite database.
type SQLiteProgressRepo struct {
	db db.DBTX
}

// NewSQLiteProgressRepo creates a new SQLiteProgressRepo.
func NewSQLiteProgressRepo(conn db.DBTX) *SQLiteProgressRepo {
	return &SQLiteProgressRepo{db: conn}
}

const dayColumns = `owner_id, plan_id, week_number, day_index, tasks_completed, habits_completed, updated_at`

func (r *SQLiteProgressRepo) GetDay(ctx context.Context, ownerID, planID string, week, dayIndex int) (*domain.DayProgress, error) {
	query := `SELECT ` + dayColumns + ` FROM day_progress
		WHERE owner_id = ? AND plan_id = ? AND week_number = ? AND day_index = ?`
	p, err := scanDay(r.db.QueryRowContext(ctx, query, ownerID, planID, week, dayIndex))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading day progress: %w", err)
	}
	return p, nil
}

func (r *SQLiteProgressRepo) UpsertDay(ctx context.Context, p *domain.DayProgress) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	query := `INSERT INTO day_progress (` + dayColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, plan_id, week_number, day_index)
		DO UPDATE SET tasks_completed = excluded.tasks_completed,
			habits_completed = excluded.habits_completed,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		p.OwnerID,
		p.PlanID,
		p.Week,
		p.DayIndex,
		encodeBools(p.TasksCompleted),
		encodeBools(p.HabitsCompleted),
		p.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting day progress: %w", err)
	}
	return nil
}

func (r *SQLiteProgressRepo) ListDays(ctx context.Context, ownerID, planID string) ([]*domain.DayProgress, error) {
	query := `SELECT ` + dayColumns + ` FROM day_progress
		WHERE owner_id = ? AND plan_id = ? ORDER BY week_number, day_index`
	rows, err := r.db.QueryContext(ctx, query, ownerID, planID)
	if err != nil {
		return nil, fmt.Errorf("listing day progress: %w", err)
	}
	defer rows.Close()

	var out []*domain.DayProgress
	for rows.Next() {
		p, err := scanDay(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning day progress: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating day progress: %w", err)
	}
	return out, nil
}

func (r *SQLiteProgressRepo) GetWeek(ctx context.Context, ownerID, planID string, week int) (*domain.WeekProgress, error) {
	query := `SELECT owner_id, plan_id, week_number, milestone_completed, updated_at FROM week_progress
		WHERE owner_id = ? AND plan_id = ? AND week_number = ?`
	p, err := scanWeekProgress(r.db.QueryRowContext(ctx, query, ownerID, planID, week))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading week progress: %w", err)
	}
	return p, nil
}

func (r *SQLiteProgressRepo) UpsertWeek(ctx context.Context, p *domain.WeekProgress) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	query := `INSERT INTO week_progress (owner_id, plan_id, week_number, milestone_completed, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, plan_id, week_number)
		DO UPDATE SET milestone_completed = excluded.milestone_completed, updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		p.OwnerID,
		p.PlanID,
		p.Week,
		boolToInt(p.MilestoneCompleted),
		p.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting week progress: %w", err)
	}
	return nil
}

func (r *SQLiteProgressRepo) ListWeeks(ctx context.Context, ownerID, planID string) ([]*domain.WeekProgress, error) {
	query := `SELECT owner_id, plan_id, week_number, milestone_completed, updated_at FROM week_progress
		WHERE owner_id = ? AND plan_id = ? ORDER BY week_number`
	rows, err := r.db.QueryContext(ctx, query, ownerID, planID)
	if err != nil {
		return nil, fmt.Errorf("listing week progress: %w", err)
	}
	defer rows.Close()

	var out []*domain.WeekProgress
	for rows.Next() {
		p, err := scanWeekProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning week progress: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating week progress: %w", err)
	}
	return out, nil
}

func scanDay(row rowScanner) (*domain.DayProgress, error) {
	var (
		p                     domain.DayProgress
		tasks, habits, update string
	)
	if err := row.Scan(&p.OwnerID, &p.PlanID, &p.Week, &p.DayIndex, &tasks, &habits, &update); err != nil {
		return nil, err
	}
	var err error
	if p.TasksCompleted, err = decodeBools(tasks); err != nil {
		return nil, err
	}
	if p.HabitsCompleted, err = decodeBools(habits); err != nil {
		return nil, err
	}
	p.UpdatedAt = parseTime(update)
	return &p, nil
}

func scanWeekProgress(row rowScanner) (*domain.WeekProgress, error) {
	var (
		p         domain.WeekProgress
		milestone int
		update    string
	)
	if err := row.Scan(&p.OwnerID, &p.PlanID, &p.Week, &milestone, &update); err != nil {
		return nil, err
	}
	p.MilestoneCompleted = intToBool(milestone)
	p.UpdatedAt = parseTime(update)
	return &p, nil
}
