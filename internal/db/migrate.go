package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Every statement is safe to re-run.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	// One row per generated (or lazily started) plan. The natural key is the
	// cache key: the same owner asking for the same goal, tier and length
	// always resolves to the same id.
	`CREATE TABLE IF NOT EXISTS plans (
		id              TEXT PRIMARY KEY,
		owner_id        TEXT NOT NULL,
		goal            TEXT NOT NULL,
		time_commitment TEXT NOT NULL,
		week_count      INTEGER NOT NULL CHECK(week_count >= 1),
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL,
		UNIQUE(owner_id, goal, time_commitment, week_count)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_plans_owner ON plans(owner_id, updated_at)`,

	// Week documents are stored in the generator wire shape.
	`CREATE TABLE IF NOT EXISTS plan_weeks (
		plan_id     TEXT NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
		week_number INTEGER NOT NULL CHECK(week_number >= 1),
		document    TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL,
		PRIMARY KEY (plan_id, week_number)
	)`,

	`CREATE TABLE IF NOT EXISTS day_progress (
		owner_id         TEXT NOT NULL,
		plan_id          TEXT NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
		week_number      INTEGER NOT NULL CHECK(week_number >= 1),
		day_index        INTEGER NOT NULL CHECK(day_index BETWEEN 0 AND 6),
		tasks_completed  TEXT NOT NULL DEFAULT '[]',
		habits_completed TEXT NOT NULL DEFAULT '[]',
		updated_at       TEXT NOT NULL,
		PRIMARY KEY (owner_id, plan_id, week_number, day_index)
	)`,

	`CREATE TABLE IF NOT EXISTS week_progress (
		owner_id            TEXT NOT NULL,
		plan_id             TEXT NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
		week_number         INTEGER NOT NULL CHECK(week_number >= 1),
		milestone_completed INTEGER NOT NULL DEFAULT 0,
		updated_at          TEXT NOT NULL,
		PRIMARY KEY (owner_id, plan_id, week_number)
	)`,

	`CREATE TABLE IF NOT EXISTS reflections (
		id          TEXT PRIMARY KEY,
		owner_id    TEXT NOT NULL,
		plan_id     TEXT NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
		week_number INTEGER NOT NULL CHECK(week_number >= 1),
		text        TEXT NOT NULL,
		created_at  TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_reflections_plan ON reflections(plan_id, week_number)`,

	// Last week the owner opened, so the tracker can resume there.
	`ALTER TABLE plans ADD COLUMN last_viewed_week INTEGER NOT NULL DEFAULT 1`,
}
