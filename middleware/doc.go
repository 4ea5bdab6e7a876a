// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request IDs and Logging

Every request gets an X-Request-Id (a UUID, reused from the client when
well-formed). WithLogging logs method, path, status, request_id and
duration_ms once the handler returns:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

# Sessions

WithSession reads an optional HS256 bearer token from the Authorization
header or the token query parameter:

	sess := middleware.SessionFrom(r.Context())
	if sess.Authenticated { ... }

Invalid tokens are treated as anonymous rather than rejected.

# CORS Middleware

The widget is embedded on other sites, so CORS reflects the caller's origin
and allows Content-Type, Authorization and X-Admin-Key.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.ErrorResponseCode(w, http.StatusForbidden, "login_required", models.CodeLoginRequired)

# Client IP Extraction

GetClientIP checks Client-IP, X-Client-IP, X-Forwarded-For (first hop) and X-Real-IP
before falling back to RemoteAddr. The result feeds auth.VoterIdentity.
*/
package middleware
