package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/techgaint000/SecureAccountManager/internal/model"
)

type PlatformStore struct {
	db *sql.DB
}

func NewPlatformStore(db *sql.DB) *PlatformStore {
	return &PlatformStore{db: db}
}

func scanPlatform(scanner interface{ Scan(...any) error }) (*model.Platform, error) {
	var p model.Platform
	err := scanner.Scan(&p.ID, &p.UserID, &p.Name, &p.Icon, &p.Color, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const platformCols = `id, user_id, name, icon, color, created_at, updated_at`

func (s *PlatformStore) Create(userID, name, icon, color string) (*model.Platform, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO platforms (id, user_id, name, icon, color) VALUES (?, ?, ?, ?, ?)`,
		id, userID, name, icon, color,
	)
	if err != nil {
		return nil, fmt.Errorf("insert platform: %w", err)
	}
	return s.GetByID(userID, id)
}

// GetByID returns the platform, or nil when it does not exist or belongs to
// another user.
func (s *PlatformStore) GetByID(userID, id string) (*model.Platform, error) {
	row := s.db.QueryRow(
		`SELECT `+platformCols+` FROM platforms WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	p, err := scanPlatform(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get platform: %w", err)
	}
	return p, nil
}

// ListByUser returns the user's platforms ordered by name.
func (s *PlatformStore) ListByUser(userID string) ([]model.Platform, error) {
	rows, err := s.db.Query(
		`SELECT `+platformCols+` FROM platforms WHERE user_id = ? ORDER BY name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list platforms: %w", err)
	}
	defer rows.Close()

	var platforms []model.Platform
	for rows.Next() {
		p, err := scanPlatform(rows)
		if err != nil {
			return nil, fmt.Errorf("scan platform: %w", err)
		}
		platforms = append(platforms, *p)
	}
	return platforms, rows.Err()
}

func (s *PlatformStore) Update(userID, id, name, icon, color string) (*model.Platform, error) {
	_, err := s.db.Exec(
		`UPDATE platforms SET name = ?, icon = ?, color = ?, updated_at = datetime('now')
		 WHERE id = ? AND user_id = ?`,
		name, icon, color, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update platform: %w", err)
	}
	return s.GetByID(userID, id)
}

// Delete removes the platform and, through the foreign key cascade, every
// account stored under it.
func (s *PlatformStore) Delete(userID, id string) error {
	_, err := s.db.Exec(`DELETE FROM platforms WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete platform: %w", err)
	}
	return nil
}
