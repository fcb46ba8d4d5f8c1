package db

import (
	"context"
)

// Session binds a user to the salted hash of one issued refresh credential.
// Rows are append-only: every login adds one, nothing updates or deletes them.
type Session struct {
	ID             int64
	UserID         int64
	CredentialHash string
}

type SessionRepository struct {
	db *DB
}

func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session and fills in its generated id.
func (r *SessionRepository) Create(ctx context.Context, session *Session) error {
	query := `
		INSERT INTO sessions (user_id, refresh_credential_hash)
		VALUES ($1, $2)
		RETURNING id
	`

	return r.db.QueryRowContext(ctx, query,
		session.UserID, session.CredentialHash,
	).Scan(&session.ID)
}

// All returns every stored session. The salted hashes cannot be looked up by
// equality, so credential validation has to walk the whole table.
func (r *SessionRepository) All(ctx context.Context) ([]Session, error) {
	query := `
		SELECT id, user_id, refresh_credential_hash
		FROM sessions
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.CredentialHash); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// CountForUser reports how many sessions a user currently owns.
func (r *SessionRepository) CountForUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE user_id = $1`, userID,
	).Scan(&count)
	return count, err
}
