package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/npc-companion/internal/npc"
)

// Message is one stored chat turn between a user and an NPC.
type Message struct {
	ID        string    `json:"id"`
	NPCID     string    `json:"npc_id"`
	UserID    string    `json:"user_id"`
	Role      npc.Role  `json:"role"`
	Content   string    `json:"content"`
	MediaURL  string    `json:"media_url,omitempty"`
	MediaType string    `json:"media_type,omitempty"`
	TraceID   string    `json:"trace_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Turn converts the message to a pipeline history turn.
func (m Message) Turn() npc.Turn {
	return npc.Turn{Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt}
}

type messageRow struct {
	ID        string `db:"id"`
	NPCID     string `db:"npc_id"`
	UserID    string `db:"user_id"`
	Role      string `db:"role"`
	Content   string `db:"content"`
	MediaURL  string `db:"media_url"`
	MediaType string `db:"media_type"`
	TraceID   string `db:"trace_id"`
	CreatedAt string `db:"created_at"`
}

// #region append-message
// AppendMessage stores a turn. Missing id and timestamp are filled in.
func (s *Store) AppendMessage(ctx context.Context, m Message) (Message, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO messages (id, npc_id, user_id, role, content, media_url, media_type, trace_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		m.ID, m.NPCID, m.UserID, string(m.Role), m.Content,
		nullIfEmpty(m.MediaURL), nullIfEmpty(m.MediaType), nullIfEmpty(m.TraceID),
		formatTime(m.CreatedAt),
	)
	if err != nil {
		return Message{}, fmt.Errorf("append message: %w", err)
	}
	return m, nil
}

// #endregion append-message

// #region recent-messages
// RecentMessages returns up to limit of the newest turns between npcID and
// userID, oldest first. An empty userID spans every user.
func (s *Store) RecentMessages(ctx context.Context, npcID, userID string, limit int) ([]Message, error) {
	if limit <= 0 {
		return []Message{}, nil
	}
	query := `SELECT id, npc_id, user_id, role, content,
			COALESCE(media_url, '') AS media_url, COALESCE(media_type, '') AS media_type,
			COALESCE(trace_id, '') AS trace_id, created_at
		 FROM messages WHERE npc_id = ?`
	args := []interface{}{npcID}
	if userID != "" {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	var rows []messageRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}

	out := make([]Message, len(rows))
	for i, r := range rows {
		// reverse into chronological order
		out[len(rows)-1-i] = Message{
			ID:        r.ID,
			NPCID:     r.NPCID,
			UserID:    r.UserID,
			Role:      npc.Role(r.Role),
			Content:   r.Content,
			MediaURL:  r.MediaURL,
			MediaType: r.MediaType,
			TraceID:   r.TraceID,
			CreatedAt: parseTime(r.CreatedAt),
		}
	}
	return out, nil
}

// #endregion recent-messages
