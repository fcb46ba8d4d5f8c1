package auth

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/adaptmath/backend/internal/db"
	"github.com/adaptmath/backend/internal/metrics"
)

// CredentialSize is the length of a raw refresh credential in bytes. 256
// random bits keep guessing infeasible even though validation is a full scan.
const CredentialSize = 32

// CredentialService issues opaque refresh credentials and validates presented
// ones against the stored session hashes.
type CredentialService struct {
	sessions SessionStore
	hasher   *Hasher
}

func NewCredentialService(sessions SessionStore, hasher *Hasher) *CredentialService {
	return &CredentialService{sessions: sessions, hasher: hasher}
}

// Issue generates a fresh 32-byte credential for the user, stores only its
// salted hash as a new session, and returns the raw bytes. This is the only
// time the raw value exists outside memory; the caller encodes it for
// transport and must not retain it server-side.
func (s *CredentialService) Issue(ctx context.Context, userID int64) ([]byte, error) {
	raw := make([]byte, CredentialSize)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate credential: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, raw)
	if err != nil {
		return nil, err
	}

	session := &db.Session{
		UserID:         userID,
		CredentialHash: hash,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	return raw, nil
}

// Validate resolves a presented credential to the owning user id.
//
// Each stored hash embeds an independent random salt, so there is no equality
// or index lookup: the only way to find the match is to verify the credential
// against every session. That scan is the accepted price of never storing a
// reversible or lookupable form of the credential; it runs once per token
// refresh, not per request. If the session table grows into the millions this
// becomes the bottleneck to revisit first.
func (s *CredentialService) Validate(ctx context.Context, presented []byte) (int64, error) {
	sessions, err := s.sessions.All(ctx)
	if err != nil {
		return 0, err
	}
	metrics.Default().SetSessionScanSize(int64(len(sessions)))

	for _, session := range sessions {
		ok, err := s.hasher.Verify(ctx, presented, session.CredentialHash)
		if err != nil {
			return 0, fmt.Errorf("session %d: %w", session.ID, err)
		}
		if ok {
			return session.UserID, nil
		}
	}

	return 0, ErrNoMatchingSession
}
