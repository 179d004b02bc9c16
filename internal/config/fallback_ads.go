package config

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed fallback_ads.yaml
var fallbackAdsYAML []byte

// Creative is the house creative shown when no paid ad matches a slot.
type Creative struct {
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description" json:"description,omitempty"`
	WebsiteURL  string  `yaml:"website_url" json:"website_url"`
	ImageURL    *string `yaml:"image_url" json:"image_url,omitempty"`
	Width       *int    `yaml:"width" json:"width,omitempty"`
	Height      *int    `yaml:"height" json:"height,omitempty"`
}

// FallbackCreatives maps placement names to their house creative.
type FallbackCreatives map[string]Creative

// For returns the creative for a placement, or the Agent card when the
// placement has none configured.
func (f FallbackCreatives) For(placement string) Creative {
	if c, ok := f[placement]; ok {
		return c
	}
	return f["Agent"]
}

func LoadFallbackCreatives() (FallbackCreatives, error) {
	return ParseFallbackCreatives(fallbackAdsYAML)
}

func ParseFallbackCreatives(data []byte) (FallbackCreatives, error) {
	var out FallbackCreatives
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse fallback creatives: %w", err)
	}
	if _, ok := out["Agent"]; !ok {
		return nil, fmt.Errorf("fallback creatives: Agent entry is required")
	}
	return out, nil
}
