package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func testHasher() *Hasher {
	return NewHasher(2)
}

func TestHasher_HashAndVerify(t *testing.T) {
	h := testHasher()
	ctx := context.Background()

	record, err := h.Hash(ctx, []byte("secret123"))
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	if !strings.HasPrefix(record, "$argon2id$v=19$m=65536,t=3,p=2$") {
		t.Errorf("unexpected record prefix: %s", record)
	}

	ok, err := h.Verify(ctx, []byte("secret123"), record)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !ok {
		t.Error("correct secret should verify")
	}

	ok, err = h.Verify(ctx, []byte("wrong-secret"), record)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if ok {
		t.Error("wrong secret should not verify")
	}
}

func TestHasher_FreshSaltPerHash(t *testing.T) {
	h := testHasher()
	ctx := context.Background()

	first, err := h.Hash(ctx, []byte("same-secret"))
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	second, err := h.Hash(ctx, []byte("same-secret"))
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	if first == second {
		t.Error("two hashes of the same secret must differ")
	}

	// Both must still verify independently
	for _, record := range []string{first, second} {
		ok, err := h.Verify(ctx, []byte("same-secret"), record)
		if err != nil || !ok {
			t.Errorf("record %q should verify: ok=%v err=%v", record, ok, err)
		}
	}
}

func TestHasher_MalformedRecords(t *testing.T) {
	h := testHasher()
	ctx := context.Background()

	tests := []struct {
		name   string
		record string
	}{
		{"empty", ""},
		{"garbage", "not-a-hash"},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=3,p=2$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA"},
		{"bad version", "$argon2id$v=12$m=65536,t=3,p=2$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA"},
		{"missing params", "$argon2id$v=19$$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA"},
		{"zero params", "$argon2id$v=19$m=0,t=0,p=0$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA"},
		{"bad salt", "$argon2id$v=19$m=65536,t=3,p=2$!!!$aGFzaA"},
		{"bad hash", "$argon2id$v=19$m=65536,t=3,p=2$c2FsdHNhbHRzYWx0c2FsdA$!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Verify(ctx, []byte("whatever"), tt.record)
			if !errors.Is(err, ErrMalformedHashRecord) {
				t.Errorf("expected ErrMalformedHashRecord, got %v", err)
			}
		})
	}
}

func TestHasher_VerifyEmbeddedParameters(t *testing.T) {
	// A record hashed under different cost parameters must still verify:
	// the parameters come from the record, not from the verifying hasher.
	weak := &Hasher{memory: 8 * 1024, time: 1, parallelism: 1, gate: make(chan struct{}, 1)}
	ctx := context.Background()

	record, err := weak.Hash(ctx, []byte("portable-secret"))
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	ok, err := testHasher().Verify(ctx, []byte("portable-secret"), record)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !ok {
		t.Error("record should verify under embedded parameters")
	}
}

func TestHasher_CancelledContext(t *testing.T) {
	// Saturate the gate so acquisition has to wait, then cancel.
	h := NewHasher(1)
	h.gate <- struct{}{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := h.Hash(ctx, []byte("secret123")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
