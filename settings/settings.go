// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package settings

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oobort/picpoll-lite/models"
)

var ErrNoLabels = errors.New("at least one option label is required")

const (
	DefaultOptionLabel  = "Vote Option 1"
	DefaultRegionHeader = "CF-IPCountry"
)

// Region is one entry of the ordered region list shown to voters.
type Region struct {
	Code  string `yaml:"code"`
	Label string `yaml:"label"`
}

// Snapshot is an immutable view of the current configuration.
// Callers receive copies; nothing in the core reads configuration ambiently.
type Snapshot struct {
	OptionLabels []string
	Regions      []Region
	MinSample    int
	HideOverall  bool
	RegionMode   string
	RegionHeader string
	RequireLogin bool
}

// optionLabel accepts either a plain string or {text: "..."}.
type optionLabel struct {
	Text string
}

func (o *optionLabel) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		o.Text = node.Value
		return nil
	}
	var obj struct {
		Text string `yaml:"text"`
	}
	if err := node.Decode(&obj); err != nil {
		return err
	}
	o.Text = obj.Text
	return nil
}

type file struct {
	OptionLabels []optionLabel `yaml:"option_labels"`
	Regions      []Region      `yaml:"regions"`
	MinSample    int           `yaml:"min_sample"`
	HideOverall  bool          `yaml:"hide_overall"`
	RegionMode   string        `yaml:"region_mode"`
	RegionHeader string        `yaml:"region_header"`
	RequireLogin bool          `yaml:"require_login"`
}

// Default returns the snapshot used when no settings file is configured.
func Default() Snapshot {
	return Snapshot{
		OptionLabels: []string{DefaultOptionLabel},
		Regions:      defaultRegions(),
		RegionMode:   models.RegionModePrompt,
		RegionHeader: DefaultRegionHeader,
	}
}

func defaultRegions() []Region {
	return []Region{
		{Code: "US", Label: "United States"},
		{Code: "CA", Label: "Canada"},
		{Code: "UK", Label: "United Kingdom"},
		{Code: "JP", Label: "Japan"},
	}
}

// Load reads a YAML settings file.
func Load(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read settings: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML settings and fills defaults for anything missing.
func Parse(data []byte) (Snapshot, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse settings: %w", err)
	}

	snap := Default()

	labels := make([]string, 0, len(f.OptionLabels))
	for _, l := range f.OptionLabels {
		if t := strings.TrimSpace(l.Text); t != "" {
			labels = append(labels, t)
		}
	}
	if len(labels) > 0 {
		snap.OptionLabels = labels
	}

	if len(f.Regions) > 0 {
		regions := make([]Region, 0, len(f.Regions))
		seen := make(map[string]bool)
		for _, r := range f.Regions {
			code := strings.ToUpper(strings.TrimSpace(r.Code))
			label := strings.TrimSpace(r.Label)
			if code == "" || label == "" || seen[code] {
				continue
			}
			seen[code] = true
			regions = append(regions, Region{Code: code, Label: label})
		}
		snap.Regions = regions
	}

	if f.MinSample < 0 {
		return Snapshot{}, errors.New("min_sample must not be negative")
	}
	snap.MinSample = f.MinSample
	snap.HideOverall = f.HideOverall
	snap.RequireLogin = f.RequireLogin

	switch mode := strings.ToLower(strings.TrimSpace(f.RegionMode)); mode {
	case "":
	case models.RegionModePrompt, models.RegionModeHeader:
		snap.RegionMode = mode
	case "cloudflare":
		snap.RegionMode = models.RegionModeHeader
	default:
		return Snapshot{}, fmt.Errorf("unknown region_mode %q", f.RegionMode)
	}
	if h := strings.TrimSpace(f.RegionHeader); h != "" {
		snap.RegionHeader = h
	}

	return snap, snap.Validate()
}

// Validate checks the invariants the aggregator relies on.
func (s Snapshot) Validate() error {
	if len(s.OptionLabels) == 0 {
		return ErrNoLabels
	}
	return nil
}

// RegionMap returns code -> label.
func (s Snapshot) RegionMap() map[string]string {
	m := make(map[string]string, len(s.Regions))
	for _, r := range s.Regions {
		m[r.Code] = r.Label
	}
	return m
}

// WidgetConfig is the subset of settings the embeddable widget reads.
func (s Snapshot) WidgetConfig() models.WidgetConfig {
	regions := make([]models.RegionLabel, len(s.Regions))
	for i, r := range s.Regions {
		regions[i] = models.RegionLabel{Code: r.Code, Label: r.Label}
	}
	hide := 0
	if s.HideOverall {
		hide = 1
	}
	return models.WidgetConfig{
		OptionLabels: append([]string(nil), s.OptionLabels...),
		Regions:      regions,
		MinSample:    s.MinSample,
		HideEveryone: hide,
		RegionMode:   s.RegionMode,
	}
}

func (s Snapshot) clone() Snapshot {
	s.OptionLabels = append([]string(nil), s.OptionLabels...)
	s.Regions = append([]Region(nil), s.Regions...)
	return s
}
