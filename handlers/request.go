// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/oobort/picpoll-lite/auth"
	"github.com/oobort/picpoll-lite/middleware"
	"github.com/oobort/picpoll-lite/models"
	"github.com/oobort/picpoll-lite/voting"
)

// writeServiceError maps the voting error kinds to HTTP status codes. It is
// the only place that does so, for both the primary and fallback routes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	msg := voting.Message(err)
	switch {
	case errors.Is(err, voting.ErrValidation):
		middleware.ErrorResponseCode(w, http.StatusBadRequest, msg, models.CodeInvalidRequest)
	case errors.Is(err, voting.ErrPermission):
		middleware.ErrorResponseCode(w, http.StatusForbidden, msg, models.CodeLoginRequired)
	case errors.Is(err, voting.ErrNotFound):
		middleware.ErrorResponseCode(w, http.StatusNotFound, msg, models.CodeNotFound)
	case errors.Is(err, voting.ErrUnavailable):
		middleware.ErrorResponseCode(w, http.StatusServiceUnavailable, msg, models.CodeUnavailable)
	default:
		slog.Error("unexpected service error", "path", r.URL.Path, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal error")
	}
}

func isJSON(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(ct)
	return err == nil && mt == "application/json"
}

// decodeVoteRequest reads a vote from a JSON body or, for form posts and
// query strings, from the request values.
func decodeVoteRequest(r *http.Request) (models.VoteRequest, error) {
	if isJSON(r) {
		var req models.VoteRequest
		if err := middleware.ParseJSONBody(r, &req); err != nil {
			return models.VoteRequest{}, voting.Validationf("Invalid JSON")
		}
		return req, nil
	}
	if err := r.ParseForm(); err != nil {
		return models.VoteRequest{}, voting.Validationf("Invalid form data")
	}
	return voteRequestFromValues(r.Form), nil
}

func voteRequestFromValues(v url.Values) models.VoteRequest {
	return models.VoteRequest{
		ImageID: models.ParseFlexInt(v.Get("image_id")),
		Choice:  models.ParseFlexInt(v.Get("choice")),
		Country: v.Get("country"),
		Regions: regionsFromValues(v),
	}
}

// regionsFromValues accepts regions=US,CA as well as repeated regions[]=US.
func regionsFromValues(v url.Values) models.CSV {
	var out models.CSV
	for _, key := range []string{"regions", "regions[]"} {
		for _, raw := range v[key] {
			out = append(out, models.SplitCSV(raw)...)
		}
	}
	return out
}

// ballotFrom turns a decoded request into a ballot. Only type errors are
// reported here; every semantic check belongs to the service.
func ballotFrom(r *http.Request, req models.VoteRequest, voterSalt string) (voting.Ballot, error) {
	if req.ImageID.Set && !req.ImageID.Valid {
		return voting.Ballot{}, voting.Validationf("image_id must be an integer")
	}
	if req.Choice.Set && !req.Choice.Valid {
		return voting.Ballot{}, voting.Validationf("choice must be an integer")
	}

	sess := middleware.SessionFrom(r.Context())
	identity := auth.VoterIdentity(middleware.GetClientIP(r), voterSalt)
	if sess.Authenticated {
		identity = "user:" + sess.Subject
	}

	return voting.Ballot{
		ItemID:    req.ImageID.Value,
		Choice:    int(req.Choice.Value),
		HasChoice: req.Choice.Set,
		Country:   req.Country,
		Regions:   req.Regions,
		Headers:   r.Header,
		Voter: voting.Voter{
			Identity:      identity,
			UserAgent:     r.UserAgent(),
			Authenticated: sess.Authenticated,
		},
	}, nil
}

// parseItemID parses a path or query image id. A blank id becomes 0, which
// the service rejects as missing.
func parseItemID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, voting.Validationf("image_id must be an integer")
	}
	return id, nil
}

// parseBool returns def for a blank value, false for 0/false/no/off and
// true otherwise.
func parseBool(raw string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return def
	case "0", "false", "no", "off":
		return false
	default:
		return true
	}
}
