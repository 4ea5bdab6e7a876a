// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/oobort/picpoll-lite/middleware"
	"github.com/oobort/picpoll-lite/models"
	"github.com/oobort/picpoll-lite/voting"
)

// Fallback actions
const (
	ActionImages = "vg_images"
	ActionVote   = "vg_vote"
	ActionStats  = "vg_stats"
)

// AjaxHandler serves every action through one endpoint for hosts where the
// /vote-game/v1 routes are unreachable. It only decodes input and delegates
// to the same code paths as the primary routes.
type AjaxHandler struct {
	images *ImageHandler
	voting *VotingHandler
}

func NewAjaxHandler(images *ImageHandler, voting *VotingHandler) *AjaxHandler {
	return &AjaxHandler{images: images, voting: voting}
}

// ajaxBody is the JSON form of a fallback request.
type ajaxBody struct {
	Action string `json:"action"`
	models.VoteRequest
}

// Dispatch handles GET|POST /ajax?action=...
func (h *AjaxHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	action, vote, values, err := decodeAjax(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	switch action {
	case ActionImages:
		h.images.list(w, r, values)
	case ActionVote:
		if r.Method != http.MethodPost {
			middleware.ErrorResponse(w, http.StatusMethodNotAllowed, "vg_vote requires POST")
			return
		}
		h.voting.vote(w, r, vote)
	case ActionStats:
		h.voting.stats(w, r, values.Get("image_id"), regionsFromValues(values))
	case "":
		middleware.ErrorResponseCode(w, http.StatusBadRequest, "action is required", models.CodeInvalidRequest)
	default:
		middleware.ErrorResponseCode(w, http.StatusBadRequest, "unknown action", models.CodeInvalidRequest)
	}
}

// decodeAjax merges the query string with a JSON or form body. Body fields
// win over query fields.
func decodeAjax(r *http.Request) (string, models.VoteRequest, url.Values, error) {
	if isJSON(r) {
		var body ajaxBody
		if err := middleware.ParseJSONBody(r, &body); err != nil {
			return "", models.VoteRequest{}, nil, voting.Validationf("Invalid JSON")
		}
		if body.ImageID.Set && !body.ImageID.Valid {
			return "", models.VoteRequest{}, nil, voting.Validationf("image_id must be an integer")
		}
		values := r.URL.Query()
		if body.ImageID.Valid {
			values.Set("image_id", strconv.FormatInt(body.ImageID.Value, 10))
		}
		if len(body.Regions) > 0 {
			values["regions"] = body.Regions
		}
		action := body.Action
		if action == "" {
			action = values.Get("action")
		}
		return action, body.VoteRequest, values, nil
	}

	if err := r.ParseForm(); err != nil {
		return "", models.VoteRequest{}, nil, voting.Validationf("Invalid form data")
	}
	return r.Form.Get("action"), voteRequestFromValues(r.Form), r.Form, nil
}
