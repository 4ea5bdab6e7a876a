// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/oobort/picpoll-lite/auth"
	"github.com/oobort/picpoll-lite/cliparse"
	"github.com/oobort/picpoll-lite/db"
)

const (
	TestVoterSalt     = "test-voter-salt"
	TestAdminKey      = "test-admin-key"
	TestSessionSecret = "test-session-secret"
)

// SetupTestDB opens a fresh SQLite database in a temp dir with the full schema.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "picpoll.db")
	conn, _, err := db.Open(context.Background(), db.TypeSQLite, path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          3318,
		DatabaseURL:   ":memory:",
		DatabaseType:  db.TypeSQLite,
		VoterSalt:     TestVoterSalt,
		AdminKey:      TestAdminKey,
		SessionSecret: TestSessionSecret,
		Store:         cliparse.StoreSQL,
		LogFormat:     cliparse.LogText,
	}
}

// CreateTestItem inserts an item with an image and the given categories.
func CreateTestItem(t *testing.T, conn *sql.DB, id int64, title string, categories ...string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO item (id, title, image_url, excerpt, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id, title, "https://img.example/"+title+".jpg", "excerpt for "+title, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test item: %v", err)
	}

	for _, c := range categories {
		if _, err := conn.Exec(`INSERT INTO item_category (item_id, category) VALUES ($1, $2)`, id, c); err != nil {
			t.Fatalf("Failed to create test category: %v", err)
		}
	}
}

// CastTestVote writes a vote row directly, bypassing the service. voter is
// the client IP the HTTP layer would have seen.
func CastTestVote(t *testing.T, conn *sql.DB, itemID int64, voter string, choice int, region string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO vote (item_id, voter_identity, choice, region_code, user_agent, created_at)
		VALUES ($1, $2, $3, $4, '', $5)
		ON CONFLICT (item_id, voter_identity) DO UPDATE SET
			choice = excluded.choice,
			region_code = excluded.region_code
	`, itemID, auth.VoterIdentity(voter, TestVoterSalt), choice, region, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test vote: %v", err)
	}
}

// SetTestAdjustment writes an overall (region == "") or regional offset.
func SetTestAdjustment(t *testing.T, conn *sql.DB, itemID int64, region string, option, adj int) {
	t.Helper()

	var err error
	if region == "" {
		_, err = conn.Exec(`
			INSERT INTO adjustment (item_id, option_index, adj) VALUES ($1, $2, $3)
		`, itemID, option, adj)
	} else {
		_, err = conn.Exec(`
			INSERT INTO region_adjustment (region_code, item_id, option_index, adj) VALUES ($1, $2, $3, $4)
		`, region, itemID, option, adj)
	}
	if err != nil {
		t.Fatalf("Failed to create test adjustment: %v", err)
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

// AssertPercentSum checks that non-empty percentages add up to 100 within
// rounding tolerance. The sum is rounded to one decimal first so float
// error in values like 33.3*3 does not count against it.
func AssertPercentSum(t *testing.T, percent []float64) {
	t.Helper()
	sum := 0.0
	for _, p := range percent {
		sum += p
	}
	sum = math.Round(sum*10) / 10
	if sum < 99.9 || sum > 100.1 {
		t.Errorf("percent sum = %.2f, want within [99.9, 100.1] (%v)", sum, percent)
	}
}
