// internal/common/audit/audit.go
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"loan-desk/internal/common/logger"
)

// Event types written to audit_log.
const (
	EventApplicationCreated   = "application_created"
	EventSectionSaved         = "section_saved"
	EventApplicationSubmitted = "application_submitted"
	EventStatusChanged        = "status_changed"
	EventNotificationSent     = "notification_sent"
)

const resourceApplication = "application"

type Event struct {
	Type       string
	ResourceID string
	SessionID  string
	Details    map[string]interface{}
}

// Recorder persists audit events. Failures are logged by the implementation
// and never surface to the caller.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// PostgresRecorder inserts events into the audit_log table.
type PostgresRecorder struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

func NewPostgresRecorder(db *sql.DB, log logger.Logger) *PostgresRecorder {
	return &PostgresRecorder{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "audit"}),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *PostgresRecorder) Record(ctx context.Context, event Event) {
	details := make(map[string]interface{}, len(event.Details)+1)
	for k, v := range event.Details {
		details[k] = v
	}
	if event.SessionID != "" {
		details["sessionId"] = event.SessionID
	}

	detailsJSON, err := json.Marshal(details)
	if err != nil {
		r.logger.Warn("failed to marshal audit log details", map[string]interface{}{
			"error": err,
		})
		detailsJSON = []byte("{}")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		event.Type,
		resourceApplication,
		event.ResourceID,
		detailsJSON,
		r.now(),
	)
	if err != nil {
		r.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":         err,
			"eventType":     event.Type,
			"applicationId": event.ResourceID,
		})
	}
}

// NopRecorder drops every event.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Event) {}
