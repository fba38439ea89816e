// Package sqlite contains SQLite implementations of the secondary ports.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/loom/internal/ports/secondary"
)

// PlanStore implements secondary.PlanStore with SQLite.
type PlanStore struct {
	db        *sql.DB
	logWriter secondary.LogWriter
}

// NewPlanStore creates a new SQLite plan store.
// logWriter is optional - if nil, no audit logging is performed.
func NewPlanStore(db *sql.DB, logWriter secondary.LogWriter) *PlanStore {
	return &PlanStore{db: db, logWriter: logWriter}
}

// Save persists a plan snapshot, replacing any previous snapshot with the
// same ID. The whole snapshot is written in one transaction.
func (s *PlanStore) Save(ctx context.Context, plan *secondary.PlanRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin save: %w", err)
	}
	defer tx.Rollback()

	name := plan.Name
	if name == "" {
		name = plan.ID
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO plans (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, updated_at = CURRENT_TIMESTAMP`,
		plan.ID, name,
	)
	if err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE plan_id = ?", plan.ID); err != nil {
		return fmt.Errorf("failed to clear tasks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM edges WHERE plan_id = ?", plan.ID); err != nil {
		return fmt.Errorf("failed to clear edges: %w", err)
	}

	for _, t := range plan.Tasks {
		ancestry, err := json.Marshal(t.Ancestry)
		if err != nil {
			return fmt.Errorf("failed to marshal ancestry of task %s: %w", t.ID, err)
		}
		owners, err := json.Marshal(t.Owners)
		if err != nil {
			return fmt.Errorf("failed to marshal owners of task %s: %w", t.ID, err)
		}
		args := t.Arguments
		if args == nil {
			args = map[string]any{}
		}
		arguments, err := json.Marshal(args)
		if err != nil {
			return fmt.Errorf("failed to marshal arguments of task %s: %w", t.ID, err)
		}

		model := ""
		if len(t.Ancestry) > 0 {
			model = t.Ancestry[0]
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO tasks (plan_id, id, model, ancestry, state, outcome, abstract, executable, mission, permanent, owners, arguments)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			plan.ID, t.ID, model, string(ancestry), t.State, t.Outcome,
			t.Abstract, t.Executable, t.Mission, t.Permanent, string(owners), string(arguments),
		)
		if err != nil {
			return fmt.Errorf("failed to save task %s: %w", t.ID, err)
		}
	}

	for _, e := range plan.Edges {
		var data sql.NullString
		if e.Data != "" {
			data = sql.NullString{String: e.Data, Valid: true}
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO edges (plan_id, parent_id, child_id, relation, data) VALUES (?, ?, ?, ?, ?)",
			plan.ID, e.Parent, e.Child, e.Relation, data,
		)
		if err != nil {
			return fmt.Errorf("failed to save edge %s->%s: %w", e.Parent, e.Child, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit save: %w", err)
	}

	if s.logWriter != nil {
		_ = s.logWriter.LogCreate(ctx, "plan", plan.ID)
	}

	return nil
}

// Load retrieves a plan snapshot by its ID.
func (s *PlanStore) Load(ctx context.Context, id string) (*secondary.PlanRecord, error) {
	var (
		createdAt time.Time
		updatedAt time.Time
	)

	record := &secondary.PlanRecord{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at, updated_at FROM plans WHERE id = ?",
		id,
	).Scan(&record.ID, &record.Name, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("plan %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ancestry, state, outcome, abstract, executable, mission, permanent, owners, arguments
		FROM tasks WHERE plan_id = ? ORDER BY id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ancestry  string
			owners    string
			arguments string
		)
		t := &secondary.TaskRecord{}
		err := rows.Scan(&t.ID, &ancestry, &t.State, &t.Outcome,
			&t.Abstract, &t.Executable, &t.Mission, &t.Permanent, &owners, &arguments)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		if err := json.Unmarshal([]byte(ancestry), &t.Ancestry); err != nil {
			return nil, fmt.Errorf("failed to parse ancestry of task %s: %w", t.ID, err)
		}
		if err := json.Unmarshal([]byte(owners), &t.Owners); err != nil {
			return nil, fmt.Errorf("failed to parse owners of task %s: %w", t.ID, err)
		}
		if err := json.Unmarshal([]byte(arguments), &t.Arguments); err != nil {
			return nil, fmt.Errorf("failed to parse arguments of task %s: %w", t.ID, err)
		}
		record.Tasks = append(record.Tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tasks: %w", err)
	}

	edgeRows, err := s.db.QueryContext(ctx,
		"SELECT parent_id, child_id, relation, data FROM edges WHERE plan_id = ? ORDER BY parent_id, child_id, relation",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load edges: %w", err)
	}
	defer edgeRows.Close()

	for edgeRows.Next() {
		var data sql.NullString
		e := &secondary.EdgeRecord{}
		if err := edgeRows.Scan(&e.Parent, &e.Child, &e.Relation, &data); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		e.Data = data.String
		record.Edges = append(record.Edges, e)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read edges: %w", err)
	}

	return record, nil
}

// List retrieves summaries of all stored plans, newest first.
func (s *PlanStore) List(ctx context.Context) ([]*secondary.PlanSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.name, p.created_at,
			(SELECT COUNT(*) FROM tasks t WHERE t.plan_id = p.id),
			(SELECT COUNT(*) FROM edges e WHERE e.plan_id = p.id)
		FROM plans p ORDER BY p.created_at DESC, p.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var summaries []*secondary.PlanSummary
	for rows.Next() {
		var createdAt time.Time
		summary := &secondary.PlanSummary{}
		err := rows.Scan(&summary.ID, &summary.Name, &createdAt, &summary.TaskCount, &summary.EdgeCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan summary: %w", err)
		}
		summary.CreatedAt = createdAt.Format(time.RFC3339)
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read plan summaries: %w", err)
	}

	return summaries, nil
}

// Delete removes a plan snapshot and its tasks and edges.
func (s *PlanStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM plans WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("plan %s not found", id)
	}

	if s.logWriter != nil {
		_ = s.logWriter.LogDelete(ctx, "plan", id)
	}

	return nil
}

// Ensure PlanStore implements the interface
var _ secondary.PlanStore = (*PlanStore)(nil)
