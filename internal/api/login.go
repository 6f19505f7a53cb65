package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/conambiente/conambiente-backend/internal/auth"
)

type LoginHandler struct {
	auth   *auth.Authenticator
	email  string
	logger *slog.Logger
}

func NewLoginHandler(a *auth.Authenticator, adminEmail string, logger *slog.Logger) *LoginHandler {
	return &LoginHandler{auth: a, email: adminEmail, logger: logger}
}

type loginUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  loginUser `json:"user"`
}

func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	f, err := parseFields(w, r)
	if err != nil {
		respondBodyError(w, err)
		return
	}

	token, err := h.auth.Login(f.str("email"), f.str("password"))
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			h.logger.Error("failed to issue token", "error", err)
			respondError(w, http.StatusInternalServerError, "Error iniciando sesión")
			return
		}
		respondError(w, http.StatusUnauthorized, "Credenciales inválidas")
		return
	}

	respondJSON(w, http.StatusOK, loginResponse{
		Token: token,
		User:  loginUser{ID: auth.AdminUserID, Email: h.email, Role: auth.RoleAdmin},
	})
}
