package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Region detection modes
const (
	RegionModePrompt = "prompt"
	RegionModeHeader = "header"
)

// Error codes
const (
	CodeInvalidRequest = "invalid_request"
	CodeLoginRequired  = "login_required"
	CodeNotFound       = "not_found"
	CodeUnavailable    = "unavailable"
)

// Request types

// FlexInt accepts a JSON number or a numeric string, and remembers whether
// the field was present at all.
type FlexInt struct {
	Value int64
	Set   bool
	Valid bool
}

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	f.Set = true
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		f.Set = false
		return nil
	}
	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			f.Set = false
			return nil
		}
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// Malformed values are reported by validation, not by the decoder.
		f.Valid = false
		return nil
	}
	f.Value = n
	f.Valid = true
	return nil
}

// ParseFlexInt builds a FlexInt from a form or query value.
func ParseFlexInt(raw string) FlexInt {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return FlexInt{}
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return FlexInt{Set: true}
	}
	return FlexInt{Value: n, Set: true, Valid: true}
}

// CSV is a comma-separated list that may also arrive as a JSON array.
type CSV []string

func (c *CSV) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("regions: %w", err)
		}
		*c = CSV(items)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("regions: %w", err)
	}
	*c = SplitCSV(s)
	return nil
}

// SplitCSV splits a comma-separated value, dropping blank entries.
func SplitCSV(s string) CSV {
	var out CSV
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type VoteRequest struct {
	ImageID FlexInt `json:"image_id"`
	Choice  FlexInt `json:"choice"`
	Country string  `json:"country"`
	Regions CSV     `json:"regions"`
}

type PutItemRequest struct {
	Title      string   `json:"title"`
	ImageURL   string   `json:"url"`
	Excerpt    string   `json:"excerpt"`
	Categories []string `json:"categories"`
}

type PutAdjustmentRequest struct {
	Option *int   `json:"option"`
	Adj    *int   `json:"adj"`
	Region string `json:"region"`
}

// Response types

// StatsSnapshot is the derived view of one item in one scope.
type StatsSnapshot struct {
	Counts  []int     `json:"counts"`
	Percent []float64 `json:"percent"`
	Total   int       `json:"total"`
	Labels  []string  `json:"labels"`
}

// Standings is returned by both the vote and the stats endpoints.
type Standings struct {
	Overall StatsSnapshot            `json:"overall"`
	Regions map[string]StatsSnapshot `json:"regions"`
}

type ImageResponse struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Excerpt string `json:"excerpt"`
}

type RegionLabel struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// WidgetConfig is what the embeddable widget needs to render options.
type WidgetConfig struct {
	OptionLabels []string      `json:"option_labels"`
	Regions      []RegionLabel `json:"regions"`
	MinSample    int           `json:"min_sample"`
	HideEveryone int           `json:"hide_everyone"`
	RegionMode   string        `json:"region_mode"`
}

// ItemResults backs the admin results & adjustments view.
type ItemResults struct {
	Item        Item                      `json:"item"`
	RawCounts   []int                     `json:"raw_counts"`
	Adjustments map[int]int               `json:"adjustments"`
	Regional    map[string]RegionalDetail `json:"regional"`
	Standings   Standings                 `json:"standings"`
	VoteRows    int                       `json:"vote_rows"`
}

type RegionalDetail struct {
	RawCounts   []int       `json:"raw_counts"`
	Adjustments map[int]int `json:"adjustments"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// Domain types

type Item struct {
	ID         int64     `json:"id" db:"id"`
	Title      string    `json:"title" db:"title"`
	ImageURL   string    `json:"url" db:"image_url"`
	Excerpt    string    `json:"excerpt" db:"excerpt"`
	Categories []string  `json:"categories" db:"-"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type Vote struct {
	ItemID        int64     `json:"item_id"`
	Choice        int       `json:"choice"`
	VoterIdentity string    `json:"-"` // Never expose in JSON
	RegionCode    string    `json:"region_code"`
	UserAgent     string    `json:"-"` // Never expose in JSON
	CreatedAt     time.Time `json:"created_at"`
}

// ChoiceCount is one grouped row of the vote ledger.
type ChoiceCount struct {
	Choice int
	Count  int
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}
