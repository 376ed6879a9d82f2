package auth

import (
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/FACorreiaa/go-blog-api/internal/api"
	"github.com/FACorreiaa/go-blog-api/internal/types"
)

type AuthHandler struct {
	authService AuthService
	logger      *slog.Logger
}

func NewAuthHandler(authService AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		logger:      logger,
		authService: authService,
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("handler", "Register"))

	var req RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if msg, ok := validateRegisterRequest(req); !ok {
		api.ErrorResponse(w, r, http.StatusBadRequest, msg)
		return
	}

	resp, err := h.authService.Register(r.Context(), req.Email, req.Username, req.Password, types.ParseRole(strings.ToUpper(req.Role)))
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}

	l.InfoContext(r.Context(), "Registration successful", slog.String("userID", resp.User.ID))
	api.WriteJSONResponse(w, r, http.StatusCreated, resp)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Email and password are required")
		return
	}

	resp, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// RefreshToken handles POST /auth/refresh.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Refresh token is required")
		return
	}

	resp, err := h.authService.RefreshTokens(r.Context(), req.RefreshToken)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

func validateRegisterRequest(req RegisterRequest) (string, bool) {
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return "A valid email address is required", false
	}
	if len(strings.TrimSpace(req.Username)) < 3 {
		return "Username must be at least 3 characters", false
	}
	if len(req.Password) < 8 {
		return "Password must be at least 8 characters", false
	}
	if req.Role != "" && !types.Role(strings.ToUpper(req.Role)).IsValid() {
		return "Unknown role", false
	}
	return "", true
}
