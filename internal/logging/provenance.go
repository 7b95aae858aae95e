package logging

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// #region log-interaction
// LogInteraction writes a provenance entry to the interaction_log table.
func LogInteraction(ctx context.Context, db *sqlx.DB, entry InteractionEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx, db.Rebind(
		`INSERT INTO interaction_log (id, npc_id, user_id, trace_id, trigger_type, signals_json, decision, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		entry.ID,
		entry.NPCID,
		nullIfEmpty(entry.UserID),
		nullIfEmpty(entry.TraceID),
		entry.TriggerType,
		nullIfEmpty(entry.SignalsJSON),
		entry.Decision,
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("log interaction: %w", err)
	}
	return nil
}

// #endregion log-interaction

// #region list-interactions
type interactionRow struct {
	ID          string         `db:"id"`
	NPCID       string         `db:"npc_id"`
	UserID      sql.NullString `db:"user_id"`
	TraceID     sql.NullString `db:"trace_id"`
	TriggerType string         `db:"trigger_type"`
	SignalsJSON sql.NullString `db:"signals_json"`
	Decision    string         `db:"decision"`
	Reason      sql.NullString `db:"reason"`
	CreatedAt   string         `db:"created_at"`
}

// ListInteractions returns the newest entries for an NPC, newest first.
func ListInteractions(ctx context.Context, db *sqlx.DB, npcID string, limit int) ([]InteractionEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []interactionRow
	err := db.SelectContext(ctx, &rows, db.Rebind(
		`SELECT id, npc_id, user_id, trace_id, trigger_type, signals_json, decision, reason, created_at
		 FROM interaction_log WHERE npc_id = ? ORDER BY created_at DESC LIMIT ?`),
		npcID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}

	out := make([]InteractionEntry, 0, len(rows))
	for _, r := range rows {
		createdAt, err := time.Parse(timeLayout, r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", r.CreatedAt, err)
		}
		out = append(out, InteractionEntry{
			ID:          r.ID,
			NPCID:       r.NPCID,
			UserID:      r.UserID.String,
			TraceID:     r.TraceID.String,
			TriggerType: r.TriggerType,
			SignalsJSON: r.SignalsJSON.String,
			Decision:    r.Decision,
			Reason:      r.Reason.String,
			CreatedAt:   createdAt,
		})
	}
	return out, nil
}

// #endregion list-interactions

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers

// #region provenance-log
// ProvenanceLog binds the interaction log functions to one database.
type ProvenanceLog struct {
	db *sqlx.DB
}

// NewProvenanceLog wraps db. The interaction_log table must exist.
func NewProvenanceLog(db *sqlx.DB) *ProvenanceLog {
	return &ProvenanceLog{db: db}
}

// Log writes entry.
func (p *ProvenanceLog) Log(ctx context.Context, entry InteractionEntry) error {
	return LogInteraction(ctx, p.db, entry)
}

// List returns the newest entries for npcID.
func (p *ProvenanceLog) List(ctx context.Context, npcID string, limit int) ([]InteractionEntry, error) {
	return ListInteractions(ctx, p.db, npcID, limit)
}

// #endregion provenance-log
