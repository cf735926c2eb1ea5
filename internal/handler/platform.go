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

const (
	defaultIcon  = "globe"
	defaultColor = "#6366f1"
)

type PlatformHandler struct {
	platformStore *store.PlatformStore
	logger        *slog.Logger
}

func NewPlatformHandler(ps *store.PlatformStore, logger *slog.Logger) *PlatformHandler {
	return &PlatformHandler{platformStore: ps, logger: logger}
}

type platformRequest struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

func (h *PlatformHandler) List(w http.ResponseWriter, r *http.Request) {
	platforms, err := h.platformStore.ListByUser(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list platforms", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list platforms")
		return
	}
	if platforms == nil {
		platforms = []model.Platform{}
	}
	writeJSON(w, http.StatusOK, platforms)
}

func (h *PlatformHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req platformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "name is required")
		return
	}
	if req.Icon == "" {
		req.Icon = defaultIcon
	}
	if req.Color == "" {
		req.Color = defaultColor
	}

	p, err := h.platformStore.Create(auth.UserID(r.Context()), req.Name, req.Icon, req.Color)
	if err != nil {
		h.logger.Error("create platform", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create platform")
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

func (h *PlatformHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id := r.PathValue("id")

	existing, err := h.platformStore.GetByID(userID, id)
	if err != nil {
		h.logger.Error("get platform", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to get platform")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "not_found", "platform not found")
		return
	}

	var req platformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "name is required")
		return
	}
	if req.Icon == "" {
		req.Icon = existing.Icon
	}
	if req.Color == "" {
		req.Color = existing.Color
	}

	p, err := h.platformStore.Update(userID, id, req.Name, req.Icon, req.Color)
	if err != nil {
		h.logger.Error("update platform", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to update platform")
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *PlatformHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id := r.PathValue("id")

	existing, err := h.platformStore.GetByID(userID, id)
	if err != nil {
		h.logger.Error("get platform", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to get platform")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "not_found", "platform not found")
		return
	}

	if err := h.platformStore.Delete(userID, id); err != nil {
		h.logger.Error("delete platform", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to delete platform")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
