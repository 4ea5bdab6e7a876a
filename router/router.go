// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/oobort/picpoll-lite/cliparse"
	"github.com/oobort/picpoll-lite/handlers"
	"github.com/oobort/picpoll-lite/middleware"
	"github.com/oobort/picpoll-lite/voting"
)

const apiPrefix = "/vote-game/v1"

func NewRouter(svc *voting.Service, items handlers.ItemLister, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	imageHandler := handlers.NewImageHandler(items)
	votingHandler := handlers.NewVotingHandler(svc, cfg)
	ajaxHandler := handlers.NewAjaxHandler(imageHandler, votingHandler)
	adminHandler := handlers.NewAdminHandler(svc, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Public voting API
	mux.HandleFunc("GET "+apiPrefix+"/images", middleware.WithLogging(imageHandler.List))
	mux.HandleFunc("POST "+apiPrefix+"/vote", middleware.WithLogging(votingHandler.Vote))
	mux.HandleFunc("GET "+apiPrefix+"/stats/{image_id}", middleware.WithLogging(votingHandler.Stats))
	mux.HandleFunc("GET "+apiPrefix+"/config", middleware.WithLogging(votingHandler.Config))

	// Fallback dispatcher for hosts that block the routes above
	mux.HandleFunc("GET /ajax", middleware.WithLogging(ajaxHandler.Dispatch))
	mux.HandleFunc("POST /ajax", middleware.WithLogging(ajaxHandler.Dispatch))

	// Admin operations (require X-Admin-Key)
	mux.HandleFunc("PUT "+apiPrefix+"/admin/items/{image_id}", middleware.WithLogging(adminHandler.RequireAdmin(adminHandler.PutItem)))
	mux.HandleFunc("DELETE "+apiPrefix+"/admin/items/{image_id}", middleware.WithLogging(adminHandler.RequireAdmin(adminHandler.DeleteItem)))
	mux.HandleFunc("PUT "+apiPrefix+"/admin/items/{image_id}/adjustments", middleware.WithLogging(adminHandler.RequireAdmin(adminHandler.PutAdjustment)))
	mux.HandleFunc("GET "+apiPrefix+"/admin/items/{image_id}/results", middleware.WithLogging(adminHandler.RequireAdmin(adminHandler.GetResults)))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("picpoll API v1"))
	})

	return mux
}

// Wrap applies the middleware every route shares: CORS, request ids and
// optional voter sessions.
func Wrap(mux http.Handler, cfg cliparse.Config) http.Handler {
	return middleware.CORS(middleware.WithRequestID(middleware.WithSession(cfg.SessionSecret)(mux)))
}
