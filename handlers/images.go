// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/oobort/picpoll-lite/catalog"
	"github.com/oobort/picpoll-lite/middleware"
	"github.com/oobort/picpoll-lite/models"
)

// ItemLister is the listing side of the catalog.
type ItemLister interface {
	List(ctx context.Context, q catalog.ListQuery) ([]models.Item, error)
}

type ImageHandler struct {
	items ItemLister
}

func NewImageHandler(items ItemLister) *ImageHandler {
	return &ImageHandler{items: items}
}

// List handles GET /vote-game/v1/images
func (h *ImageHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, r.URL.Query())
}

func (h *ImageHandler) list(w http.ResponseWriter, r *http.Request, v url.Values) {
	items, err := h.items.List(r.Context(), listQueryFromValues(v))
	if err != nil {
		slog.Error("failed to list images", "error", err)
		middleware.ErrorResponseCode(w, http.StatusServiceUnavailable, "Database error", models.CodeUnavailable)
		return
	}

	resp := make([]models.ImageResponse, 0, len(items))
	for _, it := range items {
		resp = append(resp, models.ImageResponse{
			ID:      it.ID,
			Title:   it.Title,
			URL:     it.ImageURL,
			Excerpt: it.Excerpt,
		})
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// listQueryFromValues reads limit, random and categories. A non-numeric
// limit falls back to the default.
func listQueryFromValues(v url.Values) catalog.ListQuery {
	limit, err := strconv.Atoi(strings.TrimSpace(v.Get("limit")))
	if err != nil {
		limit = 0
	}

	var cats []string
	for _, key := range []string{"categories", "category"} {
		for _, raw := range v[key] {
			cats = append(cats, models.SplitCSV(raw)...)
		}
	}

	return catalog.ListQuery{
		Limit:      catalog.ClampLimit(limit),
		Random:     parseBool(v.Get("random"), true),
		Categories: cats,
	}
}
