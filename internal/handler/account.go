package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/techgaint000/SecureAccountManager/internal/auth"
	"github.com/techgaint000/SecureAccountManager/internal/model"
	"github.com/techgaint000/SecureAccountManager/internal/store"
)

type AccountHandler struct {
	accountStore *store.AccountStore
	logger       *slog.Logger
}

func NewAccountHandler(as *store.AccountStore, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accountStore: as, logger: logger}
}

type accountRequest struct {
	PlatformID string `json:"platform_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	Notes      string `json:"notes"`
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	platformID := r.URL.Query().Get("platform_id")

	accounts, err := h.accountStore.ListByUser(auth.UserID(r.Context()), platformID)
	if err != nil {
		h.logger.Error("list accounts", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list accounts")
		return
	}
	if accounts == nil {
		accounts = []model.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "name is required")
		return
	}
	if req.PlatformID == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "platform_id is required")
		return
	}

	a, err := h.accountStore.Create(auth.UserID(r.Context()), req.PlatformID,
		req.Name, req.Email, req.Username, req.Password, req.Notes)
	if err != nil {
		h.logger.Error("create account", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create account")
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "not_found", "platform not found")
		return
	}

	writeJSON(w, http.StatusCreated, a)
}

func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id := r.PathValue("id")

	existing, err := h.accountStore.GetByID(userID, id)
	if err != nil {
		h.logger.Error("get account", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to get account")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "not_found", "account not found")
		return
	}

	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "name is required")
		return
	}

	a, err := h.accountStore.Update(userID, id, req.Name, req.Email, req.Username, req.Password, req.Notes)
	if err != nil {
		h.logger.Error("update account", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to update account")
		return
	}

	writeJSON(w, http.StatusOK, a)
}

func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id := r.PathValue("id")

	existing, err := h.accountStore.GetByID(userID, id)
	if err != nil {
		h.logger.Error("get account", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to get account")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "not_found", "account not found")
		return
	}

	if err := h.accountStore.Delete(userID, id); err != nil {
		h.logger.Error("delete account", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to delete account")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
