// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/oobort/picpoll-lite/auth"
	"github.com/oobort/picpoll-lite/models"
)

func TestWithLogging_PreservesResponse(t *testing.T) {
	// Test that logging doesn't interfere with various response codes
	testCases := []struct {
		name       string
		statusCode int
		body       string
	}{
		{"OK", http.StatusOK, "ok"},
		{"Created", http.StatusCreated, `{"id":1}`},
		{"BadRequest", http.StatusBadRequest, `{"error":"bad request"}`},
		{"NotFound", http.StatusNotFound, "not found"},
		{"Unavailable", http.StatusServiceUnavailable, "error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := WithLogging(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				w.Write([]byte(tc.body))
			})

			req := httptest.NewRequest("POST", "/vote-game/v1/vote", nil)
			w := httptest.NewRecorder()

			handler(w, req)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if w.Body.String() != tc.body {
				t.Errorf("Expected body '%s', got '%s'", tc.body, w.Body.String())
			}
		})
	}
}

func TestWithRequestID(t *testing.T) {
	var seen string
	handler := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	t.Run("mints an id", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

		got := w.Header().Get(RequestIDHeader)
		if _, err := uuid.Parse(got); err != nil {
			t.Fatalf("Expected a UUID request id, got %q", got)
		}
		if seen != got {
			t.Errorf("context id %q does not match header %q", seen, got)
		}
	})

	t.Run("reuses a valid incoming id", func(t *testing.T) {
		id := uuid.NewString()
		req := httptest.NewRequest("GET", "/health", nil)
		req.Header.Set(RequestIDHeader, id)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Header().Get(RequestIDHeader) != id || seen != id {
			t.Errorf("Expected id %q to be propagated, got header %q ctx %q", id, w.Header().Get(RequestIDHeader), seen)
		}
	})

	t.Run("replaces a malformed id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health", nil)
		req.Header.Set(RequestIDHeader, "<script>")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Header().Get(RequestIDHeader) == "<script>" {
			t.Error("Expected malformed id to be replaced")
		}
	})
}

func TestWithSession(t *testing.T) {
	const secret = "session-secret"
	token, err := auth.IssueSession("user-7", secret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	var got Session
	handler := WithSession(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SessionFrom(r.Context())
	}))

	testCases := []struct {
		name     string
		target   string
		header   string
		wantAuth bool
	}{
		{"bearer header", "/vote-game/v1/vote", "Bearer " + token, true},
		{"lowercase scheme", "/vote-game/v1/vote", "bearer " + token, true},
		{"query parameter", "/vote-game/v1/vote?token=" + token, "", true},
		{"no token", "/vote-game/v1/vote", "", false},
		{"bad token", "/vote-game/v1/vote", "Bearer nope", false},
		{"other scheme", "/vote-game/v1/vote", "Basic abc", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", tc.target, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if got.Authenticated != tc.wantAuth {
				t.Errorf("Authenticated = %v, want %v", got.Authenticated, tc.wantAuth)
			}
			if tc.wantAuth && got.Subject != "user-7" {
				t.Errorf("Subject = %q, want user-7", got.Subject)
			}
		})
	}

	t.Run("no secret configured", func(t *testing.T) {
		h := WithSession("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = SessionFrom(r.Context())
		}))
		req := httptest.NewRequest("POST", "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		h.ServeHTTP(httptest.NewRecorder(), req)
		if got.Authenticated {
			t.Error("Expected anonymous session when no secret is configured")
		}
	})
}

func TestJSONResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		data       interface{}
		expected   string
	}{
		{
			name:       "simple struct",
			statusCode: http.StatusOK,
			data:       map[string]string{"message": "hello"},
			expected:   `{"message":"hello"}`,
		},
		{
			name:       "stats snapshot",
			statusCode: http.StatusOK,
			data:       models.StatsSnapshot{Counts: []int{1, 1}, Percent: []float64{50, 50}, Total: 2, Labels: []string{"A", "B"}},
			expected:   `{"counts":[1,1],"percent":[50,50],"total":2,"labels":["A","B"]}`,
		},
		{
			name:       "error response without code",
			statusCode: http.StatusBadRequest,
			data:       models.ErrorResponse{Error: "Bad Request", Message: "missing field"},
			expected:   `{"error":"Bad Request","message":"missing field"}`,
		},
		{
			name:       "array data",
			statusCode: http.StatusOK,
			data:       []string{"a", "b", "c"},
			expected:   `["a","b","c"]`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			JSONResponse(w, tc.statusCode, tc.data)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
			}

			// Check body (trim newline added by Encode)
			body := strings.TrimSpace(w.Body.String())
			if body != tc.expected {
				t.Errorf("Expected body '%s', got '%s'", tc.expected, body)
			}
		})
	}
}

func TestErrorResponseCode(t *testing.T) {
	testCases := []struct {
		name          string
		statusCode    int
		message       string
		code          string
		expectedError string
	}{
		{"bad request", http.StatusBadRequest, "choice is required", "", "Bad Request"},
		{"login required", http.StatusForbidden, "login_required", models.CodeLoginRequired, "Forbidden"},
		{"not found", http.StatusNotFound, "Item not found", models.CodeNotFound, "Not Found"},
		{"unavailable", http.StatusServiceUnavailable, "DB error", models.CodeUnavailable, "Service Unavailable"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			ErrorResponseCode(w, tc.statusCode, tc.message, tc.code)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp.Error != tc.expectedError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectedError, resp.Error)
			}
			if resp.Message != tc.message {
				t.Errorf("Expected message '%s', got '%s'", tc.message, resp.Message)
			}
			if resp.Code != tc.code {
				t.Errorf("Expected code '%s', got '%s'", tc.code, resp.Code)
			}
		})
	}
}

func TestParseJSONBody(t *testing.T) {
	t.Run("valid JSON with string numbers", func(t *testing.T) {
		body := `{"image_id":"42","choice":1,"regions":"us,ca"}`
		req := httptest.NewRequest("POST", "/", strings.NewReader(body))

		var parsed models.VoteRequest
		if err := ParseJSONBody(req, &parsed); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if !parsed.ImageID.Valid || parsed.ImageID.Value != 42 {
			t.Errorf("Expected image_id 42, got %+v", parsed.ImageID)
		}
		if !parsed.Choice.Valid || parsed.Choice.Value != 1 {
			t.Errorf("Expected choice 1, got %+v", parsed.Choice)
		}
		if len(parsed.Regions) != 2 {
			t.Errorf("Expected 2 regions, got %v", parsed.Regions)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{invalid json}`))

		var parsed models.VoteRequest
		if err := ParseJSONBody(req, &parsed); err == nil {
			t.Error("Expected error for invalid JSON")
		}
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(""))

		var parsed models.VoteRequest
		if err := ParseJSONBody(req, &parsed); err == nil {
			t.Error("Expected error for empty body")
		}
	})
}

func TestCORS(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("handled"))
	})

	corsHandler := CORS(nextHandler)

	t.Run("preflight OPTIONS request", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/vote-game/v1/vote", nil)
		req.Header.Set("Origin", "https://blog.example")
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		// Should return 200 OK without calling next handler
		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
		if w.Body.String() != "" {
			t.Errorf("Expected empty body for preflight, got '%s'", w.Body.String())
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "https://blog.example" {
			t.Error("Expected Access-Control-Allow-Origin to match request origin")
		}

		allowed := w.Header().Get("Access-Control-Allow-Headers")
		for _, h := range []string{"Content-Type", "Authorization", "X-Admin-Key"} {
			if !strings.Contains(allowed, h) {
				t.Errorf("Expected %s in allowed headers", h)
			}
		}
	})

	t.Run("request without origin defaults to wildcard", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/vote-game/v1/images", nil)
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Body.String() != "handled" {
			t.Error("Expected next handler to be called")
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("Expected Access-Control-Allow-Origin to default to '*'")
		}
	})
}

func TestGetClientIP(t *testing.T) {
	testCases := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{"Client-IP wins", map[string]string{"Client-IP": "4.4.4.4", "X-Client-IP": "1.1.1.1", "X-Forwarded-For": "2.2.2.2"}, "3.3.3.3:1", "4.4.4.4"},
		{"Client-IP first entry", map[string]string{"Client-IP": " 5.5.5.5 , 6.6.6.6"}, "3.3.3.3:1", "5.5.5.5"},
		{"X-Client-IP wins", map[string]string{"X-Client-IP": "1.1.1.1", "X-Forwarded-For": "2.2.2.2"}, "3.3.3.3:1", "1.1.1.1"},
		{"first forwarded hop", map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.1"}, "3.3.3.3:1", "203.0.113.1"},
		{"X-Real-IP", map[string]string{"X-Real-IP": "198.51.100.7"}, "3.3.3.3:1", "198.51.100.7"},
		{"remote addr with port", nil, "192.0.2.10:54321", "192.0.2.10"},
		{"ipv6 remote addr", nil, "[2001:db8::1]:443", "2001:db8::1"},
		{"remote addr without port", nil, "192.0.2.10", "192.0.2.10"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			if got := GetClientIP(req); got != tc.expected {
				t.Errorf("GetClientIP() = %q, want %q", got, tc.expected)
			}
		})
	}
}
