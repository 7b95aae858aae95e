package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danielpatrickdp/npc-companion/internal/npc"
)

// NPC is the identity row of a companion.
type NPC struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Persona   string    `json:"persona"`
	CreatedAt time.Time `json:"created_at"`
}

type npcRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Persona   string `db:"persona"`
	CreatedAt string `db:"created_at"`
}

type profileRow struct {
	NPCID       string `db:"npc_id"`
	Name        string `db:"name"`
	ProfileJSON string `db:"profile_json"`
}

// #region create-npc
// CreateNPC inserts the identity row and its initial profile atomically.
func (s *Store) CreateNPC(ctx context.Context, n NPC, profile *npc.Profile) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if profile == nil {
		profile = &npc.Profile{}
	}
	profile.ID = n.ID
	profile.Name = n.Name

	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, tx.Rebind(
		`INSERT INTO npcs (id, name, persona, created_at) VALUES (?, ?, ?, ?)`),
		n.ID, n.Name, n.Persona, formatTime(n.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert npc: %w", err)
	}
	_, err = tx.ExecContext(ctx, tx.Rebind(
		`INSERT INTO npc_profiles (npc_id, profile_json, updated_at) VALUES (?, ?, ?)`),
		n.ID, string(profileJSON), formatTime(n.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// #endregion create-npc

// #region get-npc
// GetNPC reads the identity row.
func (s *Store) GetNPC(ctx context.Context, id string) (NPC, error) {
	var row npcRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(
		`SELECT id, name, persona, created_at FROM npcs WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return NPC{}, ErrNotFound
	}
	if err != nil {
		return NPC{}, fmt.Errorf("get npc %s: %w", id, err)
	}
	return NPC{ID: row.ID, Name: row.Name, Persona: row.Persona, CreatedAt: parseTime(row.CreatedAt)}, nil
}

// #endregion get-npc

// #region get-profile
// GetProfile loads the profile of an NPC. Identity fields come from npcs.
func (s *Store) GetProfile(ctx context.Context, npcID string) (*npc.Profile, error) {
	var row profileRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(
		`SELECT p.npc_id, n.name, p.profile_json
		 FROM npc_profiles p JOIN npcs n ON n.id = p.npc_id
		 WHERE p.npc_id = ?`), npcID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", npcID, err)
	}
	return decodeProfile(row)
}

func decodeProfile(row profileRow) (*npc.Profile, error) {
	var p npc.Profile
	if err := json.Unmarshal([]byte(row.ProfileJSON), &p); err != nil {
		return nil, fmt.Errorf("unmarshal profile %s: %w", row.NPCID, err)
	}
	p.ID = row.NPCID
	p.Name = row.Name
	return &p, nil
}

// #endregion get-profile

// #region save-profile
// SaveProfile updates the stored profile, inserting it when no row exists yet.
// The NPC identity row must already exist.
func (s *Store) SaveProfile(ctx context.Context, p *npc.Profile) error {
	if p == nil || p.ID == "" {
		return errors.New("save profile: missing npc id")
	}
	profileJSON, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	now := formatTime(time.Now())

	err = s.updateProfile(ctx, p.ID, string(profileJSON), now)
	if errors.Is(err, ErrNotFound) {
		_, err = s.db.ExecContext(ctx, s.db.Rebind(
			`INSERT INTO npc_profiles (npc_id, profile_json, updated_at) VALUES (?, ?, ?)`),
			p.ID, string(profileJSON), now,
		)
		if err != nil {
			return fmt.Errorf("insert profile %s: %w", p.ID, err)
		}
		return nil
	}
	return err
}

func (s *Store) updateProfile(ctx context.Context, npcID, profileJSON, now string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE npc_profiles SET profile_json = ?, updated_at = ? WHERE npc_id = ?`),
		profileJSON, now, npcID,
	)
	if err != nil {
		return fmt.Errorf("update profile %s: %w", npcID, err)
	}
	return affectedOrNotFound(res)
}

// #endregion save-profile

// #region list-profiles
// ListProfiles returns every stored profile ordered by NPC id.
func (s *Store) ListProfiles(ctx context.Context) ([]*npc.Profile, error) {
	var rows []profileRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT p.npc_id, n.name, p.profile_json
		 FROM npc_profiles p JOIN npcs n ON n.id = p.npc_id
		 ORDER BY p.npc_id`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	out := make([]*npc.Profile, 0, len(rows))
	for _, r := range rows {
		p, err := decodeProfile(r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// #endregion list-profiles
