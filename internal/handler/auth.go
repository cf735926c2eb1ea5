package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/techgaint000/SecureAccountManager/internal/auth"
	"github.com/techgaint000/SecureAccountManager/internal/model"
	"github.com/techgaint000/SecureAccountManager/internal/store"
	"github.com/techgaint000/SecureAccountManager/internal/token"
	"github.com/techgaint000/SecureAccountManager/internal/websocket"
)

const minPasswordLength = 6

type AuthHandler struct {
	userStore    *store.UserStore
	sessionStore *store.SessionStore
	tokens       *token.Provider
	hub          *websocket.Hub
	sessionTTL   time.Duration
	bcryptCost   int
	logger       *slog.Logger
}

func NewAuthHandler(
	us *store.UserStore,
	ss *store.SessionStore,
	tokens *token.Provider,
	hub *websocket.Hub,
	sessionTTL time.Duration,
	bcryptCost int,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		userStore:    us,
		sessionStore: ss,
		tokens:       tokens,
		hub:          hub,
		sessionTTL:   sessionTTL,
		bcryptCost:   bcryptCost,
		logger:       logger,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionPayload builds the wire payload for a live session, issuing a fresh
// access token bound to it.
func (h *AuthHandler) sessionPayload(u *model.User, sess *model.Session) (*model.AuthSession, error) {
	signed, expiresAt, err := h.tokens.Issue(u.ID, sess.ID, u.Email)
	if err != nil {
		return nil, err
	}
	return &model.AuthSession{
		AccessToken:  signed,
		TokenType:    "bearer",
		ExpiresAt:    expiresAt,
		RefreshToken: sess.RefreshToken,
		User:         *u,
	}, nil
}

func (h *AuthHandler) publish(userID, eventType string, session *model.AuthSession) {
	var payload any
	if session != nil {
		payload = session
	}
	ev, err := websocket.NewEvent(eventType, payload)
	if err != nil {
		h.logger.Error("build auth event", "error", err)
		return
	}
	h.hub.Publish(userID, ev)
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "validation_failed", "a valid email is required")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "validation_failed", "password must be at least 6 characters")
		return
	}

	existing, err := h.userStore.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("signup lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create user")
		return
	}
	if existing != nil {
		writeError(w, http.StatusUnprocessableEntity, "user_already_exists", "a user with this email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.bcryptCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create user")
		return
	}

	u, err := h.userStore.Create(req.Email, string(hash))
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create user")
		return
	}

	h.startSession(w, u)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	u, err := h.userStore.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to sign in")
		return
	}
	// Same response for unknown email and wrong password
	if u == nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
		return
	}

	h.startSession(w, u)
}

// startSession creates a session row, publishes SIGNED_IN, and writes the
// session payload.
func (h *AuthHandler) startSession(w http.ResponseWriter, u *model.User) {
	sess, err := h.sessionStore.Create(u.ID, h.sessionTTL)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create session")
		return
	}

	payload, err := h.sessionPayload(u, sess)
	if err != nil {
		h.logger.Error("issue access token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create session")
		return
	}

	h.publish(u.ID, websocket.EventSignedIn, payload)
	writeJSON(w, http.StatusOK, payload)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid JSON")
		return
	}

	sess, err := h.sessionStore.GetByRefreshToken(req.RefreshToken)
	if err != nil {
		h.logger.Error("refresh lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to refresh session")
		return
	}
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "invalid_refresh_token", "refresh token is invalid or expired")
		return
	}

	rotated, err := h.sessionStore.RotateRefreshToken(sess.ID, h.sessionTTL)
	if err != nil {
		h.logger.Error("rotate refresh token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to refresh session")
		return
	}

	u, err := h.userStore.GetByID(rotated.UserID)
	if err != nil || u == nil {
		h.logger.Error("refresh user lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to refresh session")
		return
	}

	payload, err := h.sessionPayload(u, rotated)
	if err != nil {
		h.logger.Error("issue access token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to refresh session")
		return
	}

	h.publish(u.ID, websocket.EventTokenRefreshed, payload)
	writeJSON(w, http.StatusOK, payload)
}

type logoutRequest struct {
	Scope string `json:"scope"`
}

// Logout ends the calling session (scope "local") or every session of the
// user (scope "global", the default), then publishes SIGNED_OUT.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "bad_jwt", "not authenticated")
		return
	}

	var req logoutRequest
	if r.Body != nil {
		// Missing or empty body means global sign-out
		json.NewDecoder(r.Body).Decode(&req)
	}

	var err error
	if req.Scope == "local" {
		err = h.sessionStore.Delete(ac.SessionID)
	} else {
		err = h.sessionStore.DeleteByUserID(ac.UserID)
	}
	if err != nil {
		h.logger.Error("logout", "error", err, "scope", req.Scope)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to sign out")
		return
	}

	h.publish(ac.UserID, websocket.EventSignedOut, nil)
	w.WriteHeader(http.StatusNoContent)
}

// Session returns the payload for the calling session with a fresh access token.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "bad_jwt", "not authenticated")
		return
	}

	sess, err := h.sessionStore.GetByID(ac.SessionID)
	if err != nil || sess == nil {
		h.logger.Error("session lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load session")
		return
	}

	u, err := h.userStore.GetByID(ac.UserID)
	if err != nil || u == nil {
		h.logger.Error("session user lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load session")
		return
	}

	payload, err := h.sessionPayload(u, sess)
	if err != nil {
		h.logger.Error("issue access token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load session")
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

// User returns the authenticated user's record.
func (h *AuthHandler) User(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "bad_jwt", "not authenticated")
		return
	}

	u, err := h.userStore.GetByID(ac.UserID)
	if err != nil {
		h.logger.Error("user lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load user")
		return
	}
	if u == nil {
		writeError(w, http.StatusNotFound, "user_not_found", "user not found")
		return
	}

	writeJSON(w, http.StatusOK, u)
}
