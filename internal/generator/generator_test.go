package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	apperrors "github.com/adaptmath/backend/internal/errors"
)

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		input   string
		want    Difficulty
		wantErr bool
	}{
		{"easy", DifficultyEasy, false},
		{"medium", DifficultyMedium, false},
		{"hard", DifficultyHard, false},
		{"EASY", DifficultyEasy, false},
		{"Medium", DifficultyMedium, false},
		{"", "", true},
		{"extreme", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDifficulty(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownDifficulty) {
					t.Errorf("expected ErrUnknownDifficulty, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClient_Modules(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/modules" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string][]string{
			"modules": {"addition", "subtraction", "fractions"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	modules, err := client.Modules(context.Background())
	if err != nil {
		t.Fatalf("Modules failed: %v", err)
	}

	if len(modules) != 3 || modules[0] != "addition" {
		t.Errorf("modules = %v", modules)
	}
}

func TestClient_ModulesRetriesTransientFailure(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string][]string{"modules": {"addition"}})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	modules, err := client.Modules(context.Background())
	if err != nil {
		t.Fatalf("Modules failed after retry: %v", err)
	}
	if len(modules) != 1 {
		t.Errorf("modules = %v", modules)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestClient_Question(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/question/fractions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("difficulty"); got != "hard" {
			t.Errorf("difficulty = %s, want hard", got)
		}
		json.NewEncoder(w).Encode(QuestionPair{
			Question: "1/2 + 1/4",
			Answer:   "3/4",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	pair, err := client.Question(context.Background(), "fractions", DifficultyHard)
	if err != nil {
		t.Fatalf("Question failed: %v", err)
	}

	if pair.Question != "1/2 + 1/4" || pair.Answer != "3/4" {
		t.Errorf("pair = %+v", pair)
	}
}

func TestClient_QuestionEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Question(context.Background(), "addition", DifficultyEasy)

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeGeneratorError {
		t.Fatalf("expected GENERATOR_ERROR, got %v", err)
	}
}

func TestClient_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ping" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte("pong"))
	}))
	defer server.Close()

	if err := NewClient(server.URL).Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestHandlers_ListModules(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string][]string{"modules": {"addition", "geometry"}})
	}))
	defer server.Close()

	handlers := NewHandlers(NewClient(server.URL), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/modules", nil)
	rec := httptest.NewRecorder()
	apperrors.HandleFunc(handlers.ListModules).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var payload moduleListPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.Modules) != 2 {
		t.Errorf("modules = %v", payload.Modules)
	}
}

func TestHandlers_GetQuestionValidation(t *testing.T) {
	handlers := NewHandlers(NewClient("http://localhost:0"), nil)

	tests := []struct {
		name  string
		query string
	}{
		{"missing module", ""},
		{"bad difficulty", "module=addition&difficulty=extreme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/questions?"+tt.query, nil)
			rec := httptest.NewRecorder()
			apperrors.HandleFunc(handlers.GetQuestion).ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}
