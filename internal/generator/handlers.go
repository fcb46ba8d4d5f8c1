package generator

import (
	"errors"
	"net/http"
	"time"

	"github.com/adaptmath/backend/internal/cache"
	apperrors "github.com/adaptmath/backend/internal/errors"
)

const (
	moduleListCacheKey = "generator:modules"
	moduleListCacheTTL = 5 * time.Minute
)

// Handlers serves the module and question endpoints. The module list changes
// only when the sidecar is redeployed, so it is cached; questions are always
// fetched fresh.
type Handlers struct {
	client *Client
	cache  *cache.Cache
}

// NewHandlers creates generator handlers. The cache may be nil, in which case
// every module listing hits the sidecar.
func NewHandlers(client *Client, c *cache.Cache) *Handlers {
	return &Handlers{client: client, cache: c}
}

type moduleListPayload struct {
	Modules []string `json:"modules"`
}

func (h *Handlers) ListModules(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	requestID := apperrors.GetRequestID(ctx)

	if h.cache != nil {
		var cached moduleListPayload
		if h.cache.GetJSON(ctx, moduleListCacheKey, &cached) {
			apperrors.WriteJSON(w, requestID, http.StatusOK, cached)
			return nil
		}
	}

	modules, err := h.client.Modules(ctx)
	if err != nil {
		return err
	}

	payload := moduleListPayload{Modules: modules}
	if h.cache != nil {
		h.cache.SetJSON(ctx, moduleListCacheKey, payload, moduleListCacheTTL)
	}

	apperrors.WriteJSON(w, requestID, http.StatusOK, payload)
	return nil
}

func (h *Handlers) GetQuestion(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	module := r.URL.Query().Get("module")
	if module == "" {
		return apperrors.ValidationError("query parameter 'module' is required")
	}

	difficultyParam := r.URL.Query().Get("difficulty")
	if difficultyParam == "" {
		difficultyParam = string(DifficultyMedium)
	}
	difficulty, err := ParseDifficulty(difficultyParam)
	if err != nil {
		if errors.Is(err, ErrUnknownDifficulty) {
			return apperrors.ValidationError("difficulty must be easy, medium or hard")
		}
		return err
	}

	pair, err := h.client.Question(ctx, module, difficulty)
	if err != nil {
		return err
	}

	apperrors.WriteJSON(w, apperrors.GetRequestID(ctx), http.StatusOK, pair)
	return nil
}
