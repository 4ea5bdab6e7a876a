// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/oobort/picpoll-lite/adjust"
	"github.com/oobort/picpoll-lite/catalog"
	"github.com/oobort/picpoll-lite/cliparse"
	"github.com/oobort/picpoll-lite/db"
	"github.com/oobort/picpoll-lite/ledger"
	"github.com/oobort/picpoll-lite/middleware"
	"github.com/oobort/picpoll-lite/settings"
	"github.com/oobort/picpoll-lite/testutil"
	"github.com/oobort/picpoll-lite/voting"
)

type testEnv struct {
	db       *sql.DB
	cfg      cliparse.Config
	settings *settings.Provider
	svc      *voting.Service
	voting   *VotingHandler
	images   *ImageHandler
	ajax     *AjaxHandler
	admin    *AdminHandler
}

func twoLabelSnapshot() settings.Snapshot {
	snap := settings.Default()
	snap.OptionLabels = []string{"A", "B"}
	return snap
}

func newTestEnv(t *testing.T, snap settings.Snapshot) *testEnv {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	provider := settings.NewStatic(snap)
	items := catalog.NewStore(conn, db.TypeSQLite)
	svc := voting.NewService(ledger.NewSQLLedger(conn), adjust.NewSQLStore(conn), items, provider)

	images := NewImageHandler(items)
	votingHandler := NewVotingHandler(svc, cfg)
	return &testEnv{
		db:       conn,
		cfg:      cfg,
		settings: provider,
		svc:      svc,
		voting:   votingHandler,
		images:   images,
		ajax:     NewAjaxHandler(images, votingHandler),
		admin:    NewAdminHandler(svc, cfg),
	}
}

// serve runs h behind the session middleware, as the router does.
func (e *testEnv) serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	middleware.WithSession(e.cfg.SessionSecret)(h).ServeHTTP(w, req)
	return w
}

func formRequest(method, target, body string, headers map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func countVotes(t *testing.T, conn *sql.DB, itemID int64) int {
	t.Helper()
	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM vote WHERE item_id = $1`, itemID).Scan(&n); err != nil {
		t.Fatalf("Failed to count votes: %v", err)
	}
	return n
}
