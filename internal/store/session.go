package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/techgaint000/SecureAccountManager/internal/model"
)

type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

func scanSession(scanner interface{ Scan(...any) error }) (*model.Session, error) {
	var s model.Session
	err := scanner.Scan(&s.ID, &s.UserID, &s.RefreshToken, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

const sessionCols = `id, user_id, refresh_token, expires_at, created_at`

func newRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Create inserts a new session with a crypto-random refresh token and the
// given absolute lifetime.
func (s *SessionStore) Create(userID string, ttl time.Duration) (*model.Session, error) {
	token, err := newRefreshToken()
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	expiresAt := time.Now().UTC().Add(ttl)

	_, err = s.db.Exec(
		`INSERT INTO sessions (id, user_id, refresh_token, expires_at) VALUES (?, ?, ?, ?)`,
		id, userID, token, expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return s.GetByID(id)
}

// GetByID returns the session, or nil if expired or not found.
func (s *SessionStore) GetByID(id string) (*model.Session, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionCols+` FROM sessions WHERE id = ? AND expires_at > datetime('now')`,
		id,
	)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// GetByRefreshToken returns the session for the given refresh token, or nil
// if expired or not found.
func (s *SessionStore) GetByRefreshToken(token string) (*model.Session, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionCols+` FROM sessions WHERE refresh_token = ? AND expires_at > datetime('now')`,
		token,
	)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session by refresh token: %w", err)
	}
	return sess, nil
}

// RotateRefreshToken replaces the session's refresh token and extends its
// expiry by the given lifetime. The old token stops working immediately.
func (s *SessionStore) RotateRefreshToken(id string, ttl time.Duration) (*model.Session, error) {
	token, err := newRefreshToken()
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().UTC().Add(ttl)

	_, err = s.db.Exec(
		`UPDATE sessions SET refresh_token = ?, expires_at = ? WHERE id = ?`,
		token, expiresAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}
	return s.GetByID(id)
}

func (s *SessionStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteByUserID removes every session belonging to the user (global sign-out).
func (s *SessionStore) DeleteByUserID(userID string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete sessions by user: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at <= datetime('now')`)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
