package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/agentdesk/agentdesk/internal/auth"
	"github.com/agentdesk/agentdesk/internal/database"
	"github.com/agentdesk/agentdesk/internal/middleware"
	"github.com/agentdesk/agentdesk/internal/models"
)

const rememberMeTTL = 30 * 24 * time.Hour

func validatePassword(password string) string {
	if len(password) < 8 {
		return "password must be at least 8 characters"
	}
	var upper, lower, digit bool
	for _, c := range password {
		upper = upper || unicode.IsUpper(c)
		lower = lower || unicode.IsLower(c)
		digit = digit || unicode.IsDigit(c)
	}
	if !upper || !lower || !digit {
		return "password must contain uppercase, lowercase, and a digit"
	}
	return ""
}

func setTokenCookie(w http.ResponseWriter, r *http.Request, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   middleware.IsSecure(r),
		MaxAge:   maxAge,
	})
}

// startSession issues the token and CSRF cookies for u. It writes the error
// response itself and reports whether the caller may continue.
func startSession(w http.ResponseWriter, r *http.Request, svc *auth.Service, u *models.User, ttl time.Duration) bool {
	token, err := svc.GenerateTokenWithTTL(u.ID, u.Username, ttl)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate token")
		return false
	}
	setTokenCookie(w, r, token, int(ttl.Seconds()))
	middleware.SetCSRFCookie(w, r)
	return true
}

type AuthHandler struct {
	db   *database.DB
	auth *auth.Service
}

func NewAuthHandler(db *database.DB, authService *auth.Service) *AuthHandler {
	return &AuthHandler{db: db, auth: authService}
}

type loginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password required")
		return
	}

	user, err := h.db.UserByUsername(r.Context(), req.Username)
	if err == nil {
		err = h.auth.CheckPassword(user.PasswordHash, req.Password)
	}
	if err != nil {
		// Unknown users and bad passwords look the same to the caller.
		h.db.LogAudit("", "login_failed", "auth", "user", "", "Failed login for "+req.Username)
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	ttl := h.auth.TokenTTL()
	if req.RememberMe {
		ttl = rememberMeTTL
	}
	if !startSession(w, r, h.auth, user, ttl) {
		return
	}
	h.db.LogAudit(user.ID, "login", "auth", "user", user.ID, "")
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	setTokenCookie(w, r, "", -1)
	h.db.LogAudit(userID, "logout", "auth", "user", userID, "")
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validatePassword(req.NewPassword); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	userID := middleware.GetUserID(r.Context())
	user, err := h.db.UserByID(r.Context(), userID)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	if h.auth.CheckPassword(user.PasswordHash, req.CurrentPassword) != nil {
		writeError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	hash, err := h.auth.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	if err := h.db.UpdatePassword(r.Context(), userID, hash); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update password")
		return
	}
	h.db.LogAudit(userID, "password_changed", "auth", "user", userID, "")
	writeJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.db.UserByID(r.Context(), middleware.GetUserID(r.Context()))
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to load user")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"user": user})
	}
}

// SetupHandler creates the single admin account on first run.
type SetupHandler struct {
	db   *database.DB
	auth *auth.Service
}

func NewSetupHandler(db *database.DB, authService *auth.Service) *SetupHandler {
	return &SetupHandler{db: db, auth: authService}
}

func (h *SetupHandler) Status(w http.ResponseWriter, r *http.Request) {
	hasAdmin, err := h.db.HasAdminUser()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check setup status")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"needs_setup": !hasAdmin})
}

func (h *SetupHandler) Init(w http.ResponseWriter, r *http.Request) {
	if hasAdmin, err := h.db.HasAdminUser(); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check setup status")
		return
	} else if hasAdmin {
		writeError(w, http.StatusConflict, "admin user already exists")
		return
	}

	var req struct {
		Username    string `json:"username"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password required")
		return
	}
	if msg := validatePassword(req.Password); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	hash, err := h.auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	now := time.Now().UTC()
	user := &models.User{
		ID:           generateID(),
		Username:     req.Username,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if user.DisplayName == "" {
		user.DisplayName = user.Username
	}
	if err := h.db.CreateUser(r.Context(), user); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create admin user")
		return
	}

	if !startSession(w, r, h.auth, user, h.auth.TokenTTL()) {
		return
	}
	h.db.LogAudit(user.ID, "setup_init", "auth", "user", user.ID, "")
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}
