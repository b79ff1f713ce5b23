package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/waypoint/internal/db"
	"github.com/alexanderramin/waypoint/internal/domain"
)

// SQLiteReflectionRepo implements ReflectionRepo using a SQLite database.
type SQLiteReflectionRepo struct {
	db db.DBTX
}

// NewSQLiteReflectionRepo creates a new SQLiteReflectionRepo.
func NewSQLiteReflectionRepo(conn db.DBTX) *SQLiteReflectionRepo {
	return &SQLiteReflectionRepo{db: conn}
}

func (r *SQLiteReflectionRepo) Create(ctx context.Context, ref *domain.Reflection) error {
	if ref.ID == "" {
		ref.ID = uuid.New().String()
	}
	if ref.CreatedAt.IsZero() {
		ref.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO reflections (id, owner_id, plan_id, week_number, text, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		ref.ID,
		ref.OwnerID,
		ref.PlanID,
		ref.Week,
		ref.Text,
		ref.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting reflection: %w", err)
	}
	return nil
}

func (r *SQLiteReflectionRepo) List(ctx context.Context, ownerID, planID string, week int) ([]*domain.Reflection, error) {
	var (
		b    strings.Builder
		args = []any{ownerID, planID}
	)
	b.WriteString(`SELECT id, owner_id, plan_id, week_number, text, created_at FROM reflections
		WHERE owner_id = ? AND plan_id = ?`)
	if week > 0 {
		b.WriteString(` AND week_number = ?`)
		args = append(args, week)
	}
	b.WriteString(` ORDER BY created_at, id`)

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("listing reflections: %w", err)
	}
	defer rows.Close()

	var out []*domain.Reflection
	for rows.Next() {
		var (
			ref     domain.Reflection
			created string
		)
		if err := rows.Scan(&ref.ID, &ref.OwnerID, &ref.PlanID, &ref.Week, &ref.Text, &created); err != nil {
			return nil, fmt.Errorf("scanning reflection: %w", err)
		}
		ref.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, &ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reflections: %w", err)
	}
	return out, nil
}
