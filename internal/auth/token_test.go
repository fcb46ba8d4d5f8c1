package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenService_IssueAndValidate(t *testing.T) {
	svc := NewTokenService("test-secret")

	token, err := svc.Issue(1, "alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if claims.Subject != "alice" {
		t.Errorf("sub = %s, want alice", claims.Subject)
	}
	if claims.UserID != 1 {
		t.Errorf("uid = %d, want 1", claims.UserID)
	}
	if claims.Issuer != TokenIssuer {
		t.Errorf("iss = %s, want %s", claims.Issuer, TokenIssuer)
	}

	expiry := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if expiry != AccessTokenExpiry {
		t.Errorf("expiry window = %v, want %v", expiry, AccessTokenExpiry)
	}
}

func TestTokenService_ClaimFieldNames(t *testing.T) {
	// The payload field names are a wire contract with the desktop client.
	svc := NewTokenService("test-secret")

	token, err := svc.Issue(42, "bob")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 token segments, got %d", len(parts))
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("failed to parse payload: %v", err)
	}

	for _, key := range []string{"sub", "uid", "iat", "exp", "iss", "aud"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("payload missing claim %q", key)
		}
	}

	if raw["sub"] != "bob" {
		t.Errorf("sub = %v, want bob", raw["sub"])
	}
	if raw["uid"] != float64(42) {
		t.Errorf("uid = %v, want 42", raw["uid"])
	}
	if raw["iss"] != "knowledge tracing api" {
		t.Errorf("iss = %v", raw["iss"])
	}
	// aud must be a bare JSON string, never the one-element array form.
	if aud, ok := raw["aud"].(string); !ok || aud != "adapt math desktop-app" {
		t.Errorf("aud = %v (%T), want the string \"adapt math desktop-app\"", raw["aud"], raw["aud"])
	}

	// iat and exp are integer unix timestamps 15 minutes apart
	iat, iatOK := raw["iat"].(float64)
	exp, expOK := raw["exp"].(float64)
	if !iatOK || !expOK {
		t.Fatalf("iat/exp are not numbers: %v %v", raw["iat"], raw["exp"])
	}
	if exp-iat != (15 * time.Minute).Seconds() {
		t.Errorf("exp-iat = %v, want 900", exp-iat)
	}
}

func TestTokenService_WrongSecret(t *testing.T) {
	token, err := NewTokenService("right-secret").Issue(1, "alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	_, err = NewTokenService("wrong-secret").Validate(token)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenService_TamperedSignature(t *testing.T) {
	svc := NewTokenService("test-secret")
	token, err := svc.Issue(1, "alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Flip a byte in the signature segment
	tampered := token[:len(token)-2] + flipChar(token[len(token)-2:])

	if _, err := svc.Validate(tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenService_Expired(t *testing.T) {
	svc := NewTokenService("test-secret")

	issuedAt := time.Now().Add(-16 * time.Minute)
	svc.now = func() time.Time { return issuedAt }

	token, err := svc.Issue(1, "alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// One second past exp
	svc.now = func() time.Time { return issuedAt.Add(AccessTokenExpiry + time.Second) }

	if _, err := svc.Validate(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenService_ValidUntilExpiry(t *testing.T) {
	svc := NewTokenService("test-secret")

	issuedAt := time.Now()
	svc.now = func() time.Time { return issuedAt }

	token, err := svc.Issue(1, "alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Just short of exp the token still validates
	svc.now = func() time.Time { return issuedAt.Add(AccessTokenExpiry - time.Second) }

	if _, err := svc.Validate(token); err != nil {
		t.Errorf("token should be valid before expiry: %v", err)
	}
}

func TestTokenService_Malformed(t *testing.T) {
	svc := NewTokenService("test-secret")

	for _, input := range []string{"", "not-a-token", "a.b", "a.b.c.d"} {
		if _, err := svc.Validate(input); !errors.Is(err, ErrTokenMalformed) {
			t.Errorf("Validate(%q): expected ErrTokenMalformed, got %v", input, err)
		}
	}
}

func TestTokenService_WrongIssuerOrAudience(t *testing.T) {
	// Tokens signed with the right secret but for another service are
	// rejected.
	svc := NewTokenService("test-secret")

	tests := []struct {
		name     string
		issuer   string
		audience string
	}{
		{"wrong issuer", "some other api", TokenAudience},
		{"wrong audience", TokenIssuer, "some other app"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Now()
			claims := &Claims{
				UserID: 1,
				RegisteredClaims: jwt.RegisteredClaims{
					Subject:   "alice",
					IssuedAt:  jwt.NewNumericDate(now),
					ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenExpiry)),
					Issuer:    tt.issuer,
					Audience:  jwt.ClaimStrings{tt.audience},
				},
			}
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
			if err != nil {
				t.Fatalf("failed to sign token: %v", err)
			}

			if _, err := svc.Validate(token); !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("expected ErrTokenInvalid, got %v", err)
			}
		})
	}
}

func flipChar(s string) string {
	b := []byte(s)
	if b[0] == 'A' {
		b[0] = 'B'
	} else {
		b[0] = 'A'
	}
	return string(b)
}
