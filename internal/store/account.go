package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/techgaint000/SecureAccountManager/internal/model"
)

type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

func scanAccount(scanner interface{ Scan(...any) error }) (*model.Account, error) {
	var a model.Account
	err := scanner.Scan(
		&a.ID, &a.PlatformID, &a.Name, &a.Email, &a.Username,
		&a.Password, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const accountCols = `a.id, a.platform_id, a.name, a.email, a.username, a.password, a.notes, a.created_at, a.updated_at`

// Create inserts an account under the given platform. Returns nil when the
// platform does not exist or belongs to another user.
func (s *AccountStore) Create(userID, platformID, name, email, username, password, notes string) (*model.Account, error) {
	var one int
	err := s.db.QueryRow(
		`SELECT 1 FROM platforms WHERE id = ? AND user_id = ?`,
		platformID, userID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("check platform ownership: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO accounts (id, platform_id, name, email, username, password, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, platformID, name, email, username, password, notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return s.GetByID(userID, id)
}

// GetByID returns the account, or nil when it does not exist or its platform
// belongs to another user.
func (s *AccountStore) GetByID(userID, id string) (*model.Account, error) {
	row := s.db.QueryRow(
		`SELECT `+accountCols+` FROM accounts a
		 JOIN platforms p ON p.id = a.platform_id
		 WHERE a.id = ? AND p.user_id = ?`,
		id, userID,
	)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// ListByUser returns the user's accounts ordered by name. A non-empty
// platformID narrows the list to that platform.
func (s *AccountStore) ListByUser(userID, platformID string) ([]model.Account, error) {
	query := `SELECT ` + accountCols + ` FROM accounts a
		 JOIN platforms p ON p.id = a.platform_id
		 WHERE p.user_id = ?`
	args := []any{userID}
	if platformID != "" {
		query += ` AND a.platform_id = ?`
		args = append(args, platformID)
	}
	query += ` ORDER BY a.name`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func (s *AccountStore) Update(userID, id, name, email, username, password, notes string) (*model.Account, error) {
	_, err := s.db.Exec(
		`UPDATE accounts SET name = ?, email = ?, username = ?, password = ?, notes = ?,
		   updated_at = datetime('now')
		 WHERE id = ? AND platform_id IN (SELECT id FROM platforms WHERE user_id = ?)`,
		name, email, username, password, notes, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	return s.GetByID(userID, id)
}

func (s *AccountStore) Delete(userID, id string) error {
	_, err := s.db.Exec(
		`DELETE FROM accounts
		 WHERE id = ? AND platform_id IN (SELECT id FROM platforms WHERE user_id = ?)`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}
