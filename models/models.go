package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownUsageLabel is returned when a usage label is not one of the known values.
var ErrUnknownUsageLabel = errors.New("unknown usage label")

// Article is a candidate source retrieved for a script.
type Article struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	URL         string `json:"url" yaml:"url"`
	PublishedAt string `json:"published_at" yaml:"published_at"`
	OriginQuery string `json:"origin_query,omitempty" yaml:"origin_query,omitempty"`
	Source      string `json:"source,omitempty" yaml:"source,omitempty"`

	RelevanceScore int        `json:"relevance_score,omitempty" yaml:"relevance_score,omitempty"`
	ScriptPosition int        `json:"script_position,omitempty" yaml:"script_position,omitempty"`
	UsageLabel     UsageLabel `json:"usage_label,omitempty" yaml:"usage_label,omitempty"`
	UsageNote      string     `json:"usage_note,omitempty" yaml:"usage_note,omitempty"`
	ResultNumber   int        `json:"result_number,omitempty" yaml:"result_number,omitempty"`
}

// UsageLabel is an advisory copyright/usage classification.
type UsageLabel string

const (
	UsagePublicDomain    UsageLabel = "Public Domain"
	UsageFairUseLikely   UsageLabel = "Fair Use Likely"
	UsageLicenseRequired UsageLabel = "License Likely Required"
)

// Valid reports whether l is one of the known labels.
func (l UsageLabel) Valid() bool {
	switch l {
	case UsagePublicDomain, UsageFairUseLikely, UsageLicenseRequired:
		return true
	}
	return false
}

// ParseUsageLabel maps a classifier label onto a UsageLabel, ignoring case and
// surrounding whitespace. "License Required" is accepted as a short form.
func ParseUsageLabel(s string) (UsageLabel, error) {
	switch strings.ToLower(strings.Join(strings.Fields(s), " ")) {
	case "public domain":
		return UsagePublicDomain, nil
	case "fair use likely":
		return UsageFairUseLikely, nil
	case "license likely required", "license required":
		return UsageLicenseRequired, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownUsageLabel, s)
}

// Rights is one legal-estimation verdict.
type Rights struct {
	Label UsageLabel `json:"label"`
	Note  string     `json:"note"`
}
