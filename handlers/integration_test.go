// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"reflect"
	"testing"

	"github.com/oobort/picpoll-lite/models"
	"github.com/oobort/picpoll-lite/testutil"
)

// TestFullVotingWorkflow tests the complete lifecycle of an item:
// 1. Admin adds the item
// 2. Visitors list images
// 3. Visitors vote (3:1)
// 4. One visitor changes their mind
// 5. Admin applies an adjustment
// 6. Stats reflect everything
// 7. Admin deletes the item
func TestFullVotingWorkflow(t *testing.T) {
	env := newTestEnv(t, twoLabelSnapshot())

	// Step 1: Add an item
	req := testutil.MakeRequest("PUT", "/vote-game/v1/admin/items/42",
		models.PutItemRequest{Title: "Sunset", ImageURL: "https://img.example/sunset.jpg", Categories: []string{"nature"}},
		adminHeaders())
	req.SetPathValue("image_id", "42")
	w := env.serve(env.admin.RequireAdmin(env.admin.PutItem), req)
	if w.Code != http.StatusOK {
		t.Fatalf("Step 1 - Put item failed: %d - %s", w.Code, w.Body.String())
	}

	// Step 2: List images
	w = env.serve(env.images.List, testutil.MakeRequest("GET", "/vote-game/v1/images?category=nature", nil, nil))
	var images []models.ImageResponse
	testutil.AssertJSON(t, w, &images)
	if len(images) != 1 || images[0].ID != 42 {
		t.Fatalf("Step 2 - images = %+v", images)
	}

	// Step 3: Four visitors vote
	voters := []struct {
		ip     string
		choice int
		region string
	}{
		{"10.0.0.1", 0, "US"},
		{"10.0.0.2", 0, "US"},
		{"10.0.0.3", 0, "JP"},
		{"10.0.0.4", 1, "JP"},
	}
	for _, v := range voters {
		req := testutil.MakeRequest("POST", "/vote-game/v1/vote",
			map[string]interface{}{"image_id": 42, "choice": v.choice, "country": v.region},
			map[string]string{"X-Client-IP": v.ip})
		w := env.serve(env.voting.Vote, req)
		if w.Code != http.StatusOK {
			t.Fatalf("Step 3 - vote from %s failed: %d - %s", v.ip, w.Code, w.Body.String())
		}
	}

	stats := func(query string) models.Standings {
		t.Helper()
		req := testutil.MakeRequest("GET", "/vote-game/v1/stats/42"+query, nil, nil)
		req.SetPathValue("image_id", "42")
		w := env.serve(env.voting.Stats, req)
		if w.Code != http.StatusOK {
			t.Fatalf("stats failed: %d - %s", w.Code, w.Body.String())
		}
		var s models.Standings
		testutil.AssertJSON(t, w, &s)
		return s
	}

	s := stats("")
	if !reflect.DeepEqual(s.Overall.Counts, []int{3, 1}) || !reflect.DeepEqual(s.Overall.Percent, []float64{75, 25}) {
		t.Fatalf("Step 3 - overall = %+v", s.Overall)
	}

	// Step 4: JP voter switches to A
	req = testutil.MakeRequest("POST", "/vote-game/v1/vote",
		map[string]interface{}{"image_id": 42, "choice": 0, "country": "JP"},
		map[string]string{"X-Client-IP": "10.0.0.4"})
	if w := env.serve(env.voting.Vote, req); w.Code != http.StatusOK {
		t.Fatalf("Step 4 - re-vote failed: %d - %s", w.Code, w.Body.String())
	}
	s = stats("?regions=JP")
	if !reflect.DeepEqual(s.Overall.Counts, []int{4, 0}) || s.Overall.Total != 4 {
		t.Fatalf("Step 4 - overall = %+v", s.Overall)
	}
	if !reflect.DeepEqual(s.Regions["JP"].Counts, []int{2, 0}) {
		t.Fatalf("Step 4 - JP = %+v", s.Regions["JP"])
	}

	// Step 5: Adjust option B up by 4 overall
	req = testutil.MakeRequest("PUT", "/vote-game/v1/admin/items/42/adjustments",
		map[string]interface{}{"option": 1, "adj": 4}, adminHeaders())
	req.SetPathValue("image_id", "42")
	if w := env.serve(env.admin.RequireAdmin(env.admin.PutAdjustment), req); w.Code != http.StatusOK {
		t.Fatalf("Step 5 - adjustment failed: %d - %s", w.Code, w.Body.String())
	}

	// Step 6: Stats
	s = stats("?regions=US,JP")
	if !reflect.DeepEqual(s.Overall.Counts, []int{4, 4}) || s.Overall.Total != 8 {
		t.Errorf("Step 6 - overall = %+v", s.Overall)
	}
	testutil.AssertPercentSum(t, s.Overall.Percent)
	if !reflect.DeepEqual(s.Regions["US"].Counts, []int{2, 0}) {
		t.Errorf("Step 6 - US = %+v", s.Regions["US"])
	}

	// Step 7: Delete
	req = testutil.MakeRequest("DELETE", "/vote-game/v1/admin/items/42", nil, adminHeaders())
	req.SetPathValue("image_id", "42")
	if w := env.serve(env.admin.RequireAdmin(env.admin.DeleteItem), req); w.Code != http.StatusNoContent {
		t.Fatalf("Step 7 - delete failed: %d - %s", w.Code, w.Body.String())
	}
	if n := countVotes(t, env.db, 42); n != 0 {
		t.Errorf("Step 7 - %d votes left", n)
	}
}

// TestSettingsChangeTakesEffect verifies that a replaced snapshot applies
// to the next request without a restart
func TestSettingsChangeTakesEffect(t *testing.T) {
	env := newTestEnv(t, twoLabelSnapshot())
	testutil.CreateTestItem(t, env.db, 42, "sunset")

	vote := func(choice int) int {
		req := testutil.MakeRequest("POST", "/vote-game/v1/vote",
			map[string]interface{}{"image_id": 42, "choice": choice},
			map[string]string{"X-Client-IP": "10.9.9.9"})
		return env.serve(env.voting.Vote, req).Code
	}

	if code := vote(2); code != http.StatusBadRequest {
		t.Fatalf("choice 2 with two labels: status %d, want 400", code)
	}

	snap := twoLabelSnapshot()
	snap.OptionLabels = []string{"A", "B", "C"}
	if err := env.settings.Replace(snap); err != nil {
		t.Fatal(err)
	}

	if code := vote(2); code != http.StatusOK {
		t.Fatalf("choice 2 with three labels: status %d, want 200", code)
	}

	w := env.serve(env.voting.Config, testutil.MakeRequest("GET", "/vote-game/v1/config", nil, nil))
	var cfg models.WidgetConfig
	testutil.AssertJSON(t, w, &cfg)
	if len(cfg.OptionLabels) != 3 {
		t.Errorf("OptionLabels = %v, want 3 labels", cfg.OptionLabels)
	}
}
