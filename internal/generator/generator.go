package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/adaptmath/backend/internal/errors"
)

const (
	requestTimeout  = 10 * time.Second
	maxResponseSize = 1 << 20
)

// ErrUnknownDifficulty is returned for a difficulty outside easy/medium/hard.
var ErrUnknownDifficulty = fmt.Errorf("unknown difficulty")

// Difficulty selects how hard a generated question should be.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty maps user input onto a known difficulty, case-insensitively.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(strings.ToLower(s)) {
	case DifficultyEasy:
		return DifficultyEasy, nil
	case DifficultyMedium:
		return DifficultyMedium, nil
	case DifficultyHard:
		return DifficultyHard, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
	}
}

// QuestionPair is one generated exercise with its expected answer.
type QuestionPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// moduleListResponse is the raw generator response for the module listing
type moduleListResponse struct {
	Modules []string `json:"modules"`
}

// Client talks to the question generator sidecar over HTTP. The sidecar owns
// the exercise templates; this service only relays module names and question
// pairs.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a generator client for the sidecar at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// doRequest performs a GET against the sidecar and returns the body.
func (c *Client) doRequest(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.GeneratorError("generator unreachable").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.GeneratorError(fmt.Sprintf("generator returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, apperrors.GeneratorError("failed to read generator response").WithCause(err)
	}

	return body, nil
}

// Modules fetches the list of question modules the sidecar can generate
// from. Transient failures are retried with backoff.
func (c *Client) Modules(ctx context.Context) ([]string, error) {
	endpoint := c.baseURL + "/modules"

	return apperrors.RetryWithResult(ctx, apperrors.GeneratorRetryConfig(), func(ctx context.Context) ([]string, error) {
		body, err := c.doRequest(ctx, endpoint)
		if err != nil {
			return nil, err
		}

		var resp moduleListResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, apperrors.GeneratorError("failed to parse module list").WithCause(err)
		}

		return resp.Modules, nil
	})
}

// Question fetches one generated question pair for a module at the given
// difficulty.
func (c *Client) Question(ctx context.Context, module string, difficulty Difficulty) (*QuestionPair, error) {
	endpoint := fmt.Sprintf("%s/question/%s?difficulty=%s", c.baseURL, url.PathEscape(module), difficulty)

	return apperrors.RetryWithResult(ctx, apperrors.GeneratorRetryConfig(), func(ctx context.Context) (*QuestionPair, error) {
		body, err := c.doRequest(ctx, endpoint)
		if err != nil {
			return nil, err
		}

		var pair QuestionPair
		if err := json.Unmarshal(body, &pair); err != nil {
			return nil, apperrors.GeneratorError("failed to parse question").WithCause(err)
		}
		if pair.Question == "" {
			return nil, apperrors.GeneratorError("generator returned an empty question")
		}

		return &pair, nil
	})
}

// Ping checks that the sidecar answers its life-check endpoint. Used by the
// health checker.
func (c *Client) Ping(ctx context.Context) error {
	body, err := c.doRequest(ctx, c.baseURL+"/ping")
	if err != nil {
		return err
	}
	if string(body) != "pong" {
		return apperrors.GeneratorError("unexpected ping response")
	}
	return nil
}
