// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/oobort/picpoll-lite/cliparse"
	"github.com/oobort/picpoll-lite/middleware"
	"github.com/oobort/picpoll-lite/models"
	"github.com/oobort/picpoll-lite/voting"
)

type VotingHandler struct {
	svc *voting.Service
	cfg cliparse.Config
}

func NewVotingHandler(svc *voting.Service, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{svc: svc, cfg: cfg}
}

// Vote handles POST /vote-game/v1/vote
func (h *VotingHandler) Vote(w http.ResponseWriter, r *http.Request) {
	req, err := decodeVoteRequest(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.vote(w, r, req)
}

func (h *VotingHandler) vote(w http.ResponseWriter, r *http.Request, req models.VoteRequest) {
	b, err := ballotFrom(r, req, h.cfg.VoterSalt)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	standings, err := h.svc.CastVote(r.Context(), b)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, standings)
}

// Stats handles GET /vote-game/v1/stats/{image_id}
func (h *VotingHandler) Stats(w http.ResponseWriter, r *http.Request) {
	h.stats(w, r, r.PathValue("image_id"), regionsFromValues(r.URL.Query()))
}

func (h *VotingHandler) stats(w http.ResponseWriter, r *http.Request, rawID string, regions []string) {
	itemID, err := parseItemID(rawID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	standings, err := h.svc.Standings(r.Context(), itemID, regions)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, standings)
}

// Config handles GET /vote-game/v1/config
func (h *VotingHandler) Config(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, h.svc.Settings().WidgetConfig())
}
