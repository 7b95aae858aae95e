package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// #region chat-memory
// ChatMemory is the rolling per-user conversation state of an NPC.
type ChatMemory struct {
	NPCID      string    `json:"npc_id" db:"npc_id"`
	UserID     string    `json:"user_id" db:"user_id"`
	Summary    string    `json:"summary" db:"summary"`
	LastAIText string    `json:"last_ai_text" db:"last_ai_text"`
	TurnCount  int       `json:"turn_count" db:"turn_count"`
	UpdatedAt  time.Time `json:"updated_at" db:"-"`
}

type chatMemoryRow struct {
	ChatMemory
	UpdatedAtRaw string `db:"updated_at"`
}

// GetChatMemory returns ErrNotFound for a first conversation.
func (s *Store) GetChatMemory(ctx context.Context, npcID, userID string) (ChatMemory, error) {
	var row chatMemoryRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(
		`SELECT npc_id, user_id, summary, last_ai_text, turn_count, updated_at
		 FROM chat_memory WHERE npc_id = ? AND user_id = ?`), npcID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return ChatMemory{}, ErrNotFound
	}
	if err != nil {
		return ChatMemory{}, fmt.Errorf("get chat memory: %w", err)
	}
	m := row.ChatMemory
	m.UpdatedAt = parseTime(row.UpdatedAtRaw)
	return m, nil
}

// SaveChatMemory updates the row, inserting it when none exists yet.
func (s *Store) SaveChatMemory(ctx context.Context, m ChatMemory) error {
	now := formatTime(time.Now())
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE chat_memory SET summary = ?, last_ai_text = ?, turn_count = ?, updated_at = ?
		 WHERE npc_id = ? AND user_id = ?`),
		m.Summary, m.LastAIText, m.TurnCount, now, m.NPCID, m.UserID,
	)
	if err != nil {
		return fmt.Errorf("update chat memory: %w", err)
	}
	err = affectedOrNotFound(res)
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO chat_memory (npc_id, user_id, summary, last_ai_text, turn_count, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`),
		m.NPCID, m.UserID, m.Summary, m.LastAIText, m.TurnCount, now,
	)
	if err != nil {
		return fmt.Errorf("insert chat memory: %w", err)
	}
	return nil
}

// #endregion chat-memory

// #region groups
// Group is a multi-NPC conversation space.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Members   []string  `json:"members"`
	UpdatedAt time.Time `json:"updated_at"`
}

type groupRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	MembersJSON string `db:"members_json"`
	UpdatedAt   string `db:"updated_at"`
}

// GetGroup returns ErrNotFound for an unknown id.
func (s *Store) GetGroup(ctx context.Context, id string) (Group, error) {
	var row groupRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(
		`SELECT id, name, members_json, updated_at FROM npc_groups WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Group{}, ErrNotFound
	}
	if err != nil {
		return Group{}, fmt.Errorf("get group %s: %w", id, err)
	}
	g := Group{ID: row.ID, Name: row.Name, UpdatedAt: parseTime(row.UpdatedAt)}
	if err := json.Unmarshal([]byte(row.MembersJSON), &g.Members); err != nil {
		return Group{}, fmt.Errorf("unmarshal group members: %w", err)
	}
	return g, nil
}

// SaveGroup updates the group, inserting it when none exists yet.
func (s *Store) SaveGroup(ctx context.Context, g Group) error {
	if g.Members == nil {
		g.Members = []string{}
	}
	members, err := json.Marshal(g.Members)
	if err != nil {
		return fmt.Errorf("marshal group members: %w", err)
	}
	now := formatTime(time.Now())

	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE npc_groups SET name = ?, members_json = ?, updated_at = ? WHERE id = ?`),
		g.Name, string(members), now, g.ID,
	)
	if err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	err = affectedOrNotFound(res)
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO npc_groups (id, name, members_json, updated_at) VALUES (?, ?, ?, ?)`),
		g.ID, g.Name, string(members), now,
	)
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	return nil
}

// #endregion groups
