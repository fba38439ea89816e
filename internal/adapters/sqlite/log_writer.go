package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/loom/internal/ports/secondary"
)

// OperationLog implements secondary.LogWriter on the operation_log table.
type OperationLog struct {
	db *sql.DB
}

// NewOperationLog creates a new OperationLog.
func NewOperationLog(db *sql.DB) *OperationLog {
	return &OperationLog{db: db}
}

// LogCreate logs a create operation for an entity.
func (w *OperationLog) LogCreate(ctx context.Context, entityType, entityID string) error {
	return w.writeLog(ctx, entityType, entityID, "create", "", "", "")
}

// LogUpdate logs an update operation for an entity field.
func (w *OperationLog) LogUpdate(ctx context.Context, entityType, entityID, fieldName, oldValue, newValue string) error {
	return w.writeLog(ctx, entityType, entityID, "update", fieldName, oldValue, newValue)
}

// LogDelete logs a delete operation for an entity.
func (w *OperationLog) LogDelete(ctx context.Context, entityType, entityID string) error {
	return w.writeLog(ctx, entityType, entityID, "delete", "", "", "")
}

func (w *OperationLog) writeLog(ctx context.Context, entityType, entityID, action, fieldName, oldValue, newValue string) error {
	_, err := w.db.ExecContext(ctx,
		"INSERT INTO operation_log (entity_type, entity_id, action, field_name, old_value, new_value) VALUES (?, ?, ?, ?, ?, ?)",
		entityType, entityID, action, fieldName, oldValue, newValue,
	)
	if err != nil {
		return fmt.Errorf("failed to write operation log: %w", err)
	}
	return nil
}

// Ensure OperationLog implements the interface
var _ secondary.LogWriter = (*OperationLog)(nil)
