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

func TestAjaxDispatch_Errors(t *testing.T) {
	env := newTestEnv(t, twoLabelSnapshot())
	testutil.CreateTestItem(t, env.db, 42, "sunset")

	tests := []struct {
		name           string
		req            *http.Request
		expectedStatus int
	}{
		{
			name:           "missing action",
			req:            testutil.MakeRequest("GET", "/ajax", nil, nil),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown action",
			req:            testutil.MakeRequest("GET", "/ajax?action=vg_delete", nil, nil),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "vote over GET",
			req:            testutil.MakeRequest("GET", "/ajax?action=vg_vote&image_id=42&choice=0", nil, nil),
			expectedStatus: http.StatusMethodNotAllowed,
		},
		{
			name:           "malformed JSON",
			req:            formRequestJSON("{not json"),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed image_id in JSON",
			req:            testutil.MakeRequest("POST", "/ajax", map[string]interface{}{"action": "vg_stats", "image_id": "x1"}, nil),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "stats for unknown item",
			req:            testutil.MakeRequest("GET", "/ajax?action=vg_stats&image_id=404", nil, nil),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "vote out of range",
			req:            formRequest("POST", "/ajax", "action=vg_vote&image_id=42&choice=2", nil),
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.serve(env.ajax.Dispatch, tt.req)
			testutil.AssertStatus(t, w, tt.expectedStatus)

			var errResp models.ErrorResponse
			testutil.AssertJSON(t, w, &errResp)
			if errResp.Message == "" {
				t.Error("Expected an error message")
			}
		})
	}

	if n := countVotes(t, env.db, 42); n != 0 {
		t.Errorf("failed requests wrote %d votes", n)
	}
}

func formRequestJSON(body string) *http.Request {
	req := formRequest("POST", "/ajax", body, nil)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	return req
}

// The fallback endpoint must answer exactly like the primary routes.
func TestAjaxDispatch_Parity(t *testing.T) {
	primary := newTestEnv(t, twoLabelSnapshot())
	fallback := newTestEnv(t, twoLabelSnapshot())
	for _, env := range []*testEnv{primary, fallback} {
		testutil.CreateTestItem(t, env.db, 42, "sunset", "nature")
		testutil.CreateTestItem(t, env.db, 43, "harbor", "travel")
		testutil.CastTestVote(t, env.db, 42, "10.1.1.1", 1, "JP")
		testutil.SetTestAdjustment(t, env.db, 42, "", 0, 2)
	}

	t.Run("vote", func(t *testing.T) {
		headers := map[string]string{"X-Client-IP": "192.0.2.50"}
		pw := primary.serve(primary.voting.Vote,
			formRequest("POST", "/vote-game/v1/vote", "image_id=42&choice=0&country=jp&regions=JP,US", headers))
		fw := fallback.serve(fallback.ajax.Dispatch,
			formRequest("POST", "/ajax", "action=vg_vote&image_id=42&choice=0&country=jp&regions=JP,US", headers))

		testutil.AssertStatus(t, pw, http.StatusOK)
		testutil.AssertStatus(t, fw, http.StatusOK)
		if pw.Body.String() != fw.Body.String() {
			t.Errorf("bodies differ:\nprimary:  %s\nfallback: %s", pw.Body.String(), fw.Body.String())
		}
	})

	t.Run("vote as JSON", func(t *testing.T) {
		fw := fallback.serve(fallback.ajax.Dispatch, testutil.MakeRequest("POST", "/ajax",
			map[string]interface{}{"action": "vg_vote", "image_id": "43", "choice": 1},
			map[string]string{"X-Client-IP": "192.0.2.51"}))
		testutil.AssertStatus(t, fw, http.StatusOK)

		var resp models.Standings
		testutil.AssertJSON(t, fw, &resp)
		if !reflect.DeepEqual(resp.Overall.Counts, []int{0, 1}) {
			t.Errorf("Counts = %v, want [0 1]", resp.Overall.Counts)
		}
	})

	t.Run("stats", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/vote-game/v1/stats/42?regions=JP", nil, nil)
		req.SetPathValue("image_id", "42")
		pw := primary.serve(primary.voting.Stats, req)
		fw := fallback.serve(fallback.ajax.Dispatch,
			testutil.MakeRequest("GET", "/ajax?action=vg_stats&image_id=42&regions[]=JP", nil, nil))

		testutil.AssertStatus(t, pw, http.StatusOK)
		testutil.AssertStatus(t, fw, http.StatusOK)
		if pw.Body.String() != fw.Body.String() {
			t.Errorf("bodies differ:\nprimary:  %s\nfallback: %s", pw.Body.String(), fw.Body.String())
		}
	})

	t.Run("stats via JSON body", func(t *testing.T) {
		fw := fallback.serve(fallback.ajax.Dispatch, testutil.MakeRequest("POST", "/ajax",
			map[string]interface{}{"action": "vg_stats", "image_id": 42, "regions": []string{"JP"}}, nil))
		testutil.AssertStatus(t, fw, http.StatusOK)

		var resp models.Standings
		testutil.AssertJSON(t, fw, &resp)
		if _, ok := resp.Regions["JP"]; !ok {
			t.Errorf("Regions = %v, want JP", resp.Regions)
		}
	})

	t.Run("images", func(t *testing.T) {
		pw := primary.serve(primary.images.List,
			testutil.MakeRequest("GET", "/vote-game/v1/images?random=0&category=travel", nil, nil))
		fw := fallback.serve(fallback.ajax.Dispatch,
			testutil.MakeRequest("GET", "/ajax?action=vg_images&random=0&category=travel", nil, nil))

		testutil.AssertStatus(t, pw, http.StatusOK)
		testutil.AssertStatus(t, fw, http.StatusOK)
		if pw.Body.String() != fw.Body.String() {
			t.Errorf("bodies differ:\nprimary:  %s\nfallback: %s", pw.Body.String(), fw.Body.String())
		}
	})
}
