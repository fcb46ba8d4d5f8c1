package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTaxonomyStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"database", DatabaseError("store unreachable"), CodeDatabaseError, http.StatusInternalServerError},
		{"hashing", HashingError("malformed hash record"), CodeHashingError, http.StatusInternalServerError},
		{"unauthorized", Unauthorized(), CodeUnauthorized, http.StatusUnauthorized},
		{"invalid token", InvalidToken("malformed token"), CodeInvalidToken, http.StatusBadRequest},
		{"token creation", TokenCreationError("signing failed"), CodeTokenCreation, http.StatusInternalServerError},
		{"configuration", ConfigurationError("signing secret missing"), CodeNotConfigured, http.StatusServiceUnavailable},
		{"username exists", UsernameExists(), CodeUsernameExists, http.StatusConflict},
		{"generator", GeneratorError("sidecar down"), CodeGeneratorError, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.wantCode)
			}
			if tt.err.HTTPStatus != tt.wantStatus {
				t.Errorf("status = %d, want %d", tt.err.HTTPStatus, tt.wantStatus)
			}
		})
	}
}

func TestUnauthorizedConstantShape(t *testing.T) {
	// Every authentication failure must serialize identically, no matter
	// which internal check produced it.
	wrongPassword := Unauthorized()
	unmatchedCredential := Unauthorized()
	expiredToken := Unauthorized().WithCause(fmt.Errorf("token expired"))

	w1 := httptest.NewRecorder()
	w2 := httptest.NewRecorder()
	w3 := httptest.NewRecorder()
	WriteError(w1, "", wrongPassword)
	WriteError(w2, "", unmatchedCredential)
	WriteError(w3, "", expiredToken)

	if w1.Body.String() != w2.Body.String() || w2.Body.String() != w3.Body.String() {
		t.Error("unauthorized responses differ between failure modes")
	}
	if w1.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w1.Code)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(DatabaseError("connection refused")) {
		t.Error("database errors should be retryable")
	}
	if IsRetryable(HashingError("corrupt record")) {
		t.Error("hashing errors should not be retryable")
	}
	if IsRetryable(Unauthorized()) {
		t.Error("client errors should not be retryable")
	}
	if !IsRetryable(GeneratorError("bad gateway")) {
		t.Error("external errors should be retryable")
	}
}

func TestWriteErrorWrapsUnknown(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, "req-1", fmt.Errorf("boom"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Error.Code != CodeInternalError {
		t.Errorf("code = %s, want %s", resp.Error.Code, CodeInternalError)
	}
	if resp.Error.RequestID != "req-1" {
		t.Errorf("request_id = %s, want req-1", resp.Error.RequestID)
	}
}
