package auth

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	apperrors "github.com/adaptmath/backend/internal/errors"
)

type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) error {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apperrors.BadRequest("invalid request body")
	}

	if err := validateRegisterRequest(&req); err != nil {
		return err
	}

	if err := h.service.Register(r.Context(), req.Username, req.Password, req.FirstName, req.LastName); err != nil {
		return err
	}

	requestID := apperrors.GetRequestID(r.Context())
	apperrors.WriteJSON(w, requestID, http.StatusCreated, map[string]string{
		"status": "created",
	})
	return nil
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) error {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apperrors.BadRequest("invalid request body")
	}

	if req.Username == "" || req.Password == "" {
		return apperrors.ValidationError("username and password are required")
	}

	raw, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	requestID := apperrors.GetRequestID(r.Context())
	apperrors.WriteJSON(w, requestID, http.StatusOK, LoginResponse{
		RefreshToken: base64.RawURLEncoding.EncodeToString(raw),
	})
	return nil
}

func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) error {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apperrors.BadRequest("invalid request body")
	}

	if req.RefreshToken == "" {
		return apperrors.ValidationError("refresh token is required")
	}

	// A credential that doesn't decode to exactly 32 bytes was mangled by the
	// client; that's a request-shape problem, not an authentication verdict.
	raw, err := base64.RawURLEncoding.DecodeString(req.RefreshToken)
	if err != nil {
		return apperrors.ValidationError("refresh token is not valid base64url")
	}
	if len(raw) != CredentialSize {
		return apperrors.ValidationError("refresh token has wrong length")
	}

	result, err := h.service.Refresh(r.Context(), raw)
	if err != nil {
		return err
	}

	requestID := apperrors.GetRequestID(r.Context())
	apperrors.WriteJSON(w, requestID, http.StatusOK, result)
	return nil
}

func validateRegisterRequest(req *RegisterRequest) error {
	if req.Username == "" {
		return apperrors.ValidationError("username is required")
	}
	if len(req.Username) < 3 {
		return apperrors.ValidationError("username must be at least 3 characters")
	}
	if len(req.Username) > 50 {
		return apperrors.ValidationError("username must be at most 50 characters")
	}
	if req.Password == "" {
		return apperrors.ValidationError("password is required")
	}
	if len(req.Password) < 8 {
		return apperrors.ValidationError("password must be at least 8 characters")
	}
	if req.FirstName == "" || req.LastName == "" {
		return apperrors.ValidationError("first and last name are required")
	}
	return nil
}
