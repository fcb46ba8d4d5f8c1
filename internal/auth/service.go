package auth

import (
	"context"
	"errors"

	"github.com/adaptmath/backend/internal/db"
	apperrors "github.com/adaptmath/backend/internal/errors"
	"github.com/adaptmath/backend/internal/metrics"
)

// ErrNoMatchingSession means a presented refresh credential matched none of
// the stored session hashes.
var ErrNoMatchingSession = errors.New("no matching session")

// AccountStore is the slice of account persistence the facade needs. The
// production implementation is db.AccountRepository; tests use in-memory
// fakes.
type AccountStore interface {
	Create(ctx context.Context, account *db.Account) error
	GetByUsername(ctx context.Context, username string) (*db.Account, error)
	GetByID(ctx context.Context, id int64) (*db.Account, error)
}

// SessionStore is append-only storage of session records.
type SessionStore interface {
	Create(ctx context.Context, session *db.Session) error
	All(ctx context.Context) ([]db.Session, error)
	CountForUser(ctx context.Context, userID int64) (int, error)
}

// RefreshResult is what a successful credential redemption returns.
type RefreshResult struct {
	AccessToken string `json:"access_token"`
	UserID      int64  `json:"user_id"`
}

// Service composes hashing, credential issuance and token signing into the
// user-visible flows: register, login, refresh and protected-request
// authorization.
//
// All authentication failures are collapsed into one unauthorized error so the
// response never reveals which check rejected the caller. Infrastructure
// failures keep their own kinds (database, hashing, token creation) because
// callers handle them differently: database errors are retryable, the rest are
// not.
type Service struct {
	accounts    AccountStore
	sessions    SessionStore
	hasher      *Hasher
	credentials *CredentialService
	tokens      *TokenService
}

func NewService(accounts AccountStore, sessions SessionStore, hasher *Hasher, tokens *TokenService) *Service {
	return &Service{
		accounts:    accounts,
		sessions:    sessions,
		hasher:      hasher,
		credentials: NewCredentialService(sessions, hasher),
		tokens:      tokens,
	}
}

// Register creates a new account with a freshly salted password hash.
func (s *Service) Register(ctx context.Context, username, password, firstName, lastName string) error {
	hash, err := s.hasher.Hash(ctx, []byte(password))
	if err != nil {
		return apperrors.HashingError("failed to hash password").WithCause(err)
	}

	account := &db.Account{
		FirstName:    firstName,
		LastName:     lastName,
		Username:     username,
		PasswordHash: hash,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, db.ErrUsernameExists) {
			return apperrors.UsernameExists()
		}
		return apperrors.DatabaseError("failed to create account").WithCause(err)
	}

	metrics.Default().IncCounter("auth_registrations")
	return nil
}

// Login verifies the password and, on success, issues a new refresh
// credential bound to the account. The returned bytes are the only copy of
// the raw credential; the caller encodes them for transport.
func (s *Service) Login(ctx context.Context, username, password string) ([]byte, error) {
	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, db.ErrAccountNotFound) {
			return nil, apperrors.Unauthorized()
		}
		return nil, apperrors.DatabaseError("failed to look up account").WithCause(err)
	}

	ok, err := s.hasher.Verify(ctx, []byte(password), account.PasswordHash)
	if err != nil {
		return nil, apperrors.HashingError("failed to verify password").WithCause(err)
	}
	if !ok {
		return nil, apperrors.Unauthorized()
	}

	raw, err := s.credentials.Issue(ctx, account.ID)
	if err != nil {
		if errors.Is(err, ErrMalformedHashRecord) {
			return nil, apperrors.HashingError("failed to hash credential").WithCause(err)
		}
		return nil, apperrors.DatabaseError("failed to store session").WithCause(err)
	}

	// Sessions are append-only, so the per-user count only grows; the gauge
	// makes a client stuck in a login loop visible.
	if count, err := s.sessions.CountForUser(ctx, account.ID); err == nil {
		metrics.Default().SetGauge("user_sessions", float64(count))
	}

	metrics.Default().IncCounter("auth_logins")
	return raw, nil
}

// Refresh redeems a raw 32-byte credential for a fresh signed access token.
// The caller must have base64url-decoded the transport form already; length
// validation is the caller's concern because a short value is a client-input
// error, not an authentication failure.
func (s *Service) Refresh(ctx context.Context, presented []byte) (*RefreshResult, error) {
	userID, err := s.credentials.Validate(ctx, presented)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoMatchingSession):
			return nil, apperrors.Unauthorized()
		case errors.Is(err, ErrMalformedHashRecord):
			return nil, apperrors.HashingError("corrupt session record").WithCause(err)
		default:
			return nil, apperrors.DatabaseError("failed to scan sessions").WithCause(err)
		}
	}

	account, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrAccountNotFound) {
			// Session row points at a deleted account.
			return nil, apperrors.Unauthorized()
		}
		return nil, apperrors.DatabaseError("failed to look up account").WithCause(err)
	}

	token, err := s.tokens.Issue(account.ID, account.Username)
	if err != nil {
		return nil, apperrors.TokenCreationError("failed to sign access token").WithCause(err)
	}

	metrics.Default().IncCounter("auth_refreshes")
	return &RefreshResult{AccessToken: token, UserID: account.ID}, nil
}

// Authorize validates a presented bearer token and returns its claims.
func (s *Service) Authorize(tokenString string) (*Claims, error) {
	claims, err := s.tokens.Validate(tokenString)
	if err != nil {
		if errors.Is(err, ErrTokenMalformed) {
			return nil, apperrors.InvalidToken("malformed access token")
		}
		// Expired and tampered tokens are indistinguishable from outside.
		return nil, apperrors.Unauthorized()
	}
	return claims, nil
}
