package appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// pgExecer is satisfied by *pgxpool.Pool and pgx.Tx.
type pgExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PgEventSink appends engine events to the event_logs table. The journal is
// an audit trail only; the engine never reads it back.
type PgEventSink struct {
	db pgExecer
}

func NewPgEventSink(db pgExecer) *PgEventSink {
	return &PgEventSink{db: db}
}

func (s *PgEventSink) Record(ctx context.Context, ev Event) error {
	payload := map[string]any{
		"doctor_id": ev.DoctorID,
		"status":    ev.Status,
	}
	for k, v := range ev.Payload {
		payload[k] = v
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload %s: %w", ev.Type, err)
	}

	var appID *int64
	if ev.AppointmentID != 0 {
		id := ev.AppointmentID
		appID = &id
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.Type, appID, data, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
