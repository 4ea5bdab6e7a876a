// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/oobort/picpoll-lite/auth"
	"github.com/oobort/picpoll-lite/cliparse"
	"github.com/oobort/picpoll-lite/middleware"
	"github.com/oobort/picpoll-lite/models"
	"github.com/oobort/picpoll-lite/voting"
)

type AdminHandler struct {
	svc *voting.Service
	cfg cliparse.Config
}

func NewAdminHandler(svc *voting.Service, cfg cliparse.Config) *AdminHandler {
	return &AdminHandler{svc: svc, cfg: cfg}
}

// RequireAdmin rejects requests without the configured X-Admin-Key.
func (h *AdminHandler) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.cfg.AdminKey == "" {
			middleware.ErrorResponse(w, http.StatusNotFound, "Admin API disabled")
			return
		}
		if err := auth.ValidateAdminKey(r.Header.Get("X-Admin-Key"), h.cfg.AdminKey); err != nil {
			slog.Warn("rejected admin request", "path", r.URL.Path, "remote", middleware.GetClientIP(r))
			middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
			return
		}
		next(w, r)
	}
}

// PutItem handles PUT /vote-game/v1/admin/items/{image_id}
func (h *AdminHandler) PutItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseItemID(r.PathValue("image_id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req models.PutItemRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponseCode(w, http.StatusBadRequest, "Invalid JSON", models.CodeInvalidRequest)
		return
	}

	item := models.Item{
		ID:         itemID,
		Title:      req.Title,
		ImageURL:   req.ImageURL,
		Excerpt:    req.Excerpt,
		Categories: req.Categories,
	}
	if err := h.svc.SaveItem(r.Context(), item); err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "saved"})
}

// DeleteItem handles DELETE /vote-game/v1/admin/items/{image_id}
func (h *AdminHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseItemID(r.PathValue("image_id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := h.svc.PurgeItem(r.Context(), itemID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PutAdjustment handles PUT /vote-game/v1/admin/items/{image_id}/adjustments
func (h *AdminHandler) PutAdjustment(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseItemID(r.PathValue("image_id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req models.PutAdjustmentRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponseCode(w, http.StatusBadRequest, "Invalid JSON", models.CodeInvalidRequest)
		return
	}
	if req.Option == nil || req.Adj == nil {
		middleware.ErrorResponseCode(w, http.StatusBadRequest, "option and adj are required", models.CodeInvalidRequest)
		return
	}

	if err := h.svc.SetAdjustment(r.Context(), itemID, req.Region, *req.Option, *req.Adj); err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.results(w, r, itemID, []string{req.Region})
}

// GetResults handles GET /vote-game/v1/admin/items/{image_id}/results
func (h *AdminHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseItemID(r.PathValue("image_id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.results(w, r, itemID, regionsFromValues(r.URL.Query()))
}

func (h *AdminHandler) results(w http.ResponseWriter, r *http.Request, itemID int64, regions []string) {
	res, err := h.svc.Results(r.Context(), itemID, regions)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, res)
}
