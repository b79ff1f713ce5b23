package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/waypoint/internal/db"
	"github.com/alexanderramin/waypoint/internal/domain"
)

// SQLitePlanCache implements PlanCache using a SQLite database. Week
// documents are stored in the generator wire shape.
type SQLitePlanCache struct {
	db  db.DBTX
	uow db.UnitOfWork
}

// NewSQLitePlanCache creates a new SQLitePlanCache. When uow is non-nil,
// Store writes the plan row and its weeks in one transaction.
func NewSQLitePlanCache(conn db.DBTX, uow db.UnitOfWork) *SQLitePlanCache {
	return &SQLitePlanCache{db: conn, uow: uow}
}

const planColumns = `id, owner_id, goal, time_commitment, week_count, last_viewed_week, created_at, updated_at`

func (r *SQLitePlanCache) Lookup(ctx context.Context, ownerID, goal string, tc domain.TimeCommitment, weekCount int) (*domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans
		WHERE owner_id = ? AND goal = ? AND time_commitment = ? AND week_count = ?`
	p, err := r.scanPlan(r.db.QueryRowContext(ctx, query, ownerID, goal, string(tc), weekCount))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("looking up plan", err)
	}
	if err := r.loadWeeks(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *SQLitePlanCache) LookupWeek(ctx context.Context, planID string, week int) (*domain.Week, error) {
	query := `SELECT document FROM plan_weeks WHERE plan_id = ? AND week_number = ?`
	var doc string
	err := r.db.QueryRowContext(ctx, query, planID, week).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("looking up week", err)
	}
	var w domain.Week
	if err := json.Unmarshal([]byte(doc), &w); err != nil {
		return nil, unavailable(fmt.Sprintf("decoding week %d", week), err)
	}
	return &w, nil
}

func (r *SQLitePlanCache) Store(ctx context.Context, ownerID, goal string, tc domain.TimeCommitment, weekCount int, plan *domain.Plan) (string, error) {
	if r.uow == nil {
		return r.store(ctx, ownerID, goal, tc, weekCount, plan)
	}
	var id string
	err := r.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		id, err = NewSQLitePlanCache(tx, nil).store(ctx, ownerID, goal, tc, weekCount, plan)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrCacheUnavailable) {
			return "", err
		}
		return "", unavailable("storing plan", err)
	}
	return id, nil
}

func (r *SQLitePlanCache) store(ctx context.Context, ownerID, goal string, tc domain.TimeCommitment, weekCount int, plan *domain.Plan) (string, error) {
	id, err := r.upsertPlanRow(ctx, ownerID, goal, tc, weekCount, plan)
	if err != nil {
		return "", err
	}
	for i := range plan.Weeks {
		w := &plan.Weeks[i]
		if err := r.upsertWeek(ctx, id, w.Number, w); err != nil {
			return "", err
		}
	}
	return id, nil
}

// upsertPlanRow inserts the plan row or touches the existing one, returning
// the id that owns the natural key.
func (r *SQLitePlanCache) upsertPlanRow(ctx context.Context, ownerID, goal string, tc domain.TimeCommitment, weekCount int, plan *domain.Plan) (string, error) {
	candidate := uuid.New().String()
	created := nowUTC()
	if plan != nil {
		if plan.ID != "" {
			candidate = plan.ID
		}
		if !plan.CreatedAt.IsZero() {
			created = plan.CreatedAt.UTC().Format(time.RFC3339)
		}
	}

	query := `INSERT INTO plans (id, owner_id, goal, time_commitment, week_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, goal, time_commitment, week_count)
		DO UPDATE SET updated_at = excluded.updated_at
		RETURNING id`
	var id string
	err := r.db.QueryRowContext(ctx, query,
		candidate, ownerID, goal, string(tc), weekCount, created, nowUTC(),
	).Scan(&id)
	if err != nil {
		return "", unavailable("upserting plan", err)
	}
	return id, nil
}

func (r *SQLitePlanCache) StoreWeek(ctx context.Context, planID string, week int, w *domain.Week) error {
	if w == nil || w.Number != week {
		return fmt.Errorf("storing week %d: document is for a different week", week)
	}
	if err := r.upsertWeek(ctx, planID, week, w); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE plans SET updated_at = ? WHERE id = ?`, nowUTC(), planID); err != nil {
		return unavailable("touching plan", err)
	}
	return nil
}

func (r *SQLitePlanCache) upsertWeek(ctx context.Context, planID string, week int, w *domain.Week) error {
	doc, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encoding week %d: %w", week, err)
	}
	now := nowUTC()
	query := `INSERT INTO plan_weeks (plan_id, week_number, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(plan_id, week_number)
		DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, query, planID, week, string(doc), now, now); err != nil {
		return unavailable(fmt.Sprintf("upserting week %d", week), err)
	}
	return nil
}

func (r *SQLitePlanCache) GetPlan(ctx context.Context, ownerID, planID string) (*domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = ? AND owner_id = ?`
	p, err := r.scanPlan(r.db.QueryRowContext(ctx, query, planID, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("plan %s: %w", planID, ErrNotFound)
	}
	if err != nil {
		return nil, unavailable("loading plan", err)
	}
	if err := r.loadWeeks(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *SQLitePlanCache) ListPlans(ctx context.Context, ownerID string) ([]*domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE owner_id = ? ORDER BY updated_at DESC, id`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, unavailable("listing plans", err)
	}
	defer rows.Close()

	var plans []*domain.Plan
	for rows.Next() {
		p, err := r.scanPlan(rows)
		if err != nil {
			return nil, unavailable("scanning plan", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterating plans", err)
	}
	rows.Close()

	for _, p := range plans {
		if err := r.loadWeeks(ctx, p); err != nil {
			return nil, err
		}
	}
	return plans, nil
}

func (r *SQLitePlanCache) DeletePlan(ctx context.Context, ownerID, planID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM plans WHERE id = ? AND owner_id = ?`, planID, ownerID)
	if err != nil {
		return unavailable("deleting plan", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("deleting plan", err)
	}
	if n == 0 {
		return fmt.Errorf("plan %s: %w", planID, ErrNotFound)
	}
	return nil
}

func (r *SQLitePlanCache) SetLastViewedWeek(ctx context.Context, ownerID, planID string, week int) error {
	query := `UPDATE plans SET last_viewed_week = ? WHERE id = ? AND owner_id = ? AND ? BETWEEN 1 AND week_count`
	res, err := r.db.ExecContext(ctx, query, week, planID, ownerID, week)
	if err != nil {
		return unavailable("recording last viewed week", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("plan %s week %d: %w", planID, week, ErrNotFound)
	}
	return nil
}

func (r *SQLitePlanCache) loadWeeks(ctx context.Context, p *domain.Plan) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT week_number, document FROM plan_weeks WHERE plan_id = ? ORDER BY week_number`, p.ID)
	if err != nil {
		return unavailable("loading weeks", err)
	}
	defer rows.Close()

	p.Weeks = []domain.Week{}
	for rows.Next() {
		var (
			n   int
			doc string
		)
		if err := rows.Scan(&n, &doc); err != nil {
			return unavailable("scanning week", err)
		}
		var w domain.Week
		if err := json.Unmarshal([]byte(doc), &w); err != nil {
			return unavailable(fmt.Sprintf("decoding week %d", n), err)
		}
		p.Weeks = append(p.Weeks, w)
	}
	if err := rows.Err(); err != nil {
		return unavailable("iterating weeks", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLitePlanCache) scanPlan(row rowScanner) (*domain.Plan, error) {
	var (
		p                    domain.Plan
		tc                   string
		createdAt, updatedAt string
	)
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Goal, &tc, &p.WeekCount, &p.LastViewedWeek, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.TimeCommitment = domain.TimeCommitment(tc)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}
