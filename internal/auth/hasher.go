package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	hashMemoryKB    uint32 = 64 * 1024
	hashTime        uint32 = 3
	hashParallelism uint8  = 2
	hashSaltLength         = 16
	hashKeyLength   uint32 = 32

	algorithmID = "argon2id"
)

// ErrMalformedHashRecord means a stored hash could not be parsed. It indicates
// data corruption, not a failed verification.
var ErrMalformedHashRecord = errors.New("malformed hash record")

// Hasher derives argon2id hashes with a fresh random salt per call and
// verifies secrets against stored records in constant time. The same hasher is
// used for account passwords and for refresh credentials at rest.
//
// Hashing is memory- and CPU-bound, so concurrent derivations are bounded by a
// gate sized at construction; a burst of logins queues instead of saturating
// the process.
type Hasher struct {
	memory      uint32
	time        uint32
	parallelism uint8
	gate        chan struct{}
}

// NewHasher creates a hasher allowing at most maxConcurrent parallel derivations.
func NewHasher(maxConcurrent int) *Hasher {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Hasher{
		memory:      hashMemoryKB,
		time:        hashTime,
		parallelism: hashParallelism,
		gate:        make(chan struct{}, maxConcurrent),
	}
}

// Hash derives a self-describing PHC-encoded record from secret:
// $argon2id$v=19$m=...,t=...,p=...$<salt>$<hash>. Two hashes of the same
// secret are never equal because the salt is drawn fresh each call.
func (h *Hasher) Hash(ctx context.Context, secret []byte) (string, error) {
	if err := h.acquire(ctx); err != nil {
		return "", err
	}
	defer h.release()

	salt := make([]byte, hashSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey(secret, salt, h.time, h.memory, h.parallelism, hashKeyLength)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.memory,
		h.time,
		h.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify recomputes the hash under the record's embedded parameters and salt
// and compares in constant time. A mismatch is (false, nil); only a record
// that cannot be parsed is an error.
func (h *Hasher) Verify(ctx context.Context, secret []byte, record string) (bool, error) {
	params, salt, want, err := parseRecord(record)
	if err != nil {
		return false, err
	}

	if err := h.acquire(ctx); err != nil {
		return false, err
	}
	defer h.release()

	got := argon2.IDKey(secret, salt, params.time, params.memory, params.parallelism, uint32(len(want)))

	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func (h *Hasher) acquire(ctx context.Context) error {
	select {
	case h.gate <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hasher) release() {
	<-h.gate
}

type hashParams struct {
	memory      uint32
	time        uint32
	parallelism uint8
}

func parseRecord(record string) (hashParams, []byte, []byte, error) {
	var params hashParams

	parts := strings.Split(record, "$")
	if len(parts) != 6 || parts[0] != "" {
		return params, nil, nil, fmt.Errorf("%w: wrong field count", ErrMalformedHashRecord)
	}
	if parts[1] != algorithmID {
		return params, nil, nil, fmt.Errorf("%w: unsupported algorithm %q", ErrMalformedHashRecord, parts[1])
	}

	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if !strings.HasPrefix(parts[2], "v=") || err != nil {
		return params, nil, nil, fmt.Errorf("%w: bad version field", ErrMalformedHashRecord)
	}
	if version != argon2.Version {
		return params, nil, nil, fmt.Errorf("%w: unsupported argon2 version %d", ErrMalformedHashRecord, version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &params.parallelism); err != nil {
		return params, nil, nil, fmt.Errorf("%w: bad parameter field", ErrMalformedHashRecord)
	}
	if params.memory == 0 || params.time == 0 || params.parallelism == 0 {
		return params, nil, nil, fmt.Errorf("%w: zero-valued parameter", ErrMalformedHashRecord)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return params, nil, nil, fmt.Errorf("%w: bad salt encoding", ErrMalformedHashRecord)
	}

	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return params, nil, nil, fmt.Errorf("%w: bad hash encoding", ErrMalformedHashRecord)
	}

	return params, salt, hash, nil
}
