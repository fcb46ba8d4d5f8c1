package knowledge

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/adaptmath/backend/internal/auth"
	apperrors "github.com/adaptmath/backend/internal/errors"
)

type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// PerformanceRequest reports whether the student answered correctly.
type PerformanceRequest struct {
	Correct *bool `json:"correct"`
}

// ListSkills serves GET /api/v1/students/{studentID}/skills.
func (h *Handlers) ListSkills(w http.ResponseWriter, r *http.Request) error {
	studentID, err := authorizedStudentID(r)
	if err != nil {
		return err
	}

	list, err := h.service.ListForStudent(r.Context(), studentID)
	if err != nil {
		return err
	}

	requestID := apperrors.GetRequestID(r.Context())
	apperrors.WriteJSON(w, requestID, http.StatusOK, map[string]any{
		"skills": list,
	})
	return nil
}

// ListCatalog serves GET /api/v1/skills, the full skill catalog.
func (h *Handlers) ListCatalog(w http.ResponseWriter, r *http.Request) error {
	skills, err := h.service.Catalog(r.Context())
	if err != nil {
		return err
	}

	requestID := apperrors.GetRequestID(r.Context())
	apperrors.WriteJSON(w, requestID, http.StatusOK, map[string]any{
		"skills": skills,
	})
	return nil
}

// UpdatePerformance serves
// PATCH /api/v1/students/{studentID}/skills/{skillID}/performance.
func (h *Handlers) UpdatePerformance(w http.ResponseWriter, r *http.Request) error {
	studentID, err := authorizedStudentID(r)
	if err != nil {
		return err
	}

	skillID, err := strconv.ParseInt(r.PathValue("skillID"), 10, 64)
	if err != nil {
		return apperrors.ValidationError("skill id must be an integer")
	}

	var req PerformanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apperrors.BadRequest("invalid request body")
	}
	if req.Correct == nil {
		return apperrors.ValidationError("field 'correct' is required")
	}

	update, err := h.service.ApplyPerformance(r.Context(), studentID, skillID, *req.Correct)
	if err != nil {
		return err
	}

	requestID := apperrors.GetRequestID(r.Context())
	apperrors.WriteJSON(w, requestID, http.StatusOK, update)
	return nil
}

// authorizedStudentID parses the path student id and checks it against the
// authenticated caller. Students may only touch their own progression.
func authorizedStudentID(r *http.Request) (int64, error) {
	studentID, err := strconv.ParseInt(r.PathValue("studentID"), 10, 64)
	if err != nil {
		return 0, apperrors.ValidationError("student id must be an integer")
	}

	user := auth.GetUserFromContext(r.Context())
	if user == nil {
		return 0, apperrors.Unauthorized()
	}
	if user.UserID != studentID {
		return 0, apperrors.Forbidden("students may only access their own progress")
	}

	return studentID, nil
}
