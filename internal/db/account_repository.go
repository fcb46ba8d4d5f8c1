package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

var ErrAccountNotFound = errors.New("account not found")
var ErrUsernameExists = errors.New("username already exists")

// Account is a registered user. PasswordHash is the argon2id record, never the
// raw secret.
type Account struct {
	ID           int64
	FirstName    string
	LastName     string
	Username     string
	PasswordHash string
}

type AccountRepository struct {
	db *DB
}

func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account and fills in its generated id.
func (r *AccountRepository) Create(ctx context.Context, account *Account) error {
	query := `
		INSERT INTO users (first_name, last_name, username, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		account.FirstName, account.LastName, account.Username, account.PasswordHash,
	).Scan(&account.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameExists
		}
		return err
	}

	return nil
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*Account, error) {
	query := `
		SELECT id, first_name, last_name, username, password_hash
		FROM users
		WHERE username = $1
	`

	account := &Account{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&account.ID, &account.FirstName, &account.LastName, &account.Username, &account.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return account, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*Account, error) {
	query := `
		SELECT id, first_name, last_name, username, password_hash
		FROM users
		WHERE id = $1
	`

	account := &Account{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID, &account.FirstName, &account.LastName, &account.Username, &account.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return account, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
