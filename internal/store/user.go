package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/techgaint000/SecureAccountManager/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := scanner.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const userCols = `id, email, password_hash, created_at, updated_at`

func (s *UserStore) Create(email, passwordHash string) (*model.User, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO users (id, email, password_hash) VALUES (?, ?, ?)`,
		id, email, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}
