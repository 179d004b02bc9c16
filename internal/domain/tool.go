package domain

import (
	"fmt"
	"strings"
	"time"
)

type ToolStatus string

const (
	ToolDraft     ToolStatus = "Draft"
	ToolPublished ToolStatus = "Published"
	ToolScheduled ToolStatus = "Scheduled"
)

type ToolTier string

const (
	TierFree     ToolTier = "Free"
	TierFeatured ToolTier = "Featured"
	TierPremium  ToolTier = "Premium"
)

// Rank orders tiers for sorting: Premium > Featured > Free.
func (t ToolTier) Rank() int {
	switch t {
	case TierPremium:
		return 2
	case TierFeatured:
		return 1
	default:
		return 0
	}
}

type PricingType string

const (
	PricingFree     PricingType = "Free"
	PricingFreemium PricingType = "Freemium"
	PricingPaid     PricingType = "Paid"
)

type Tool struct {
	Model
	Slug           string      `json:"slug" gorm:"uniqueIndex;size:191;not null"`
	Name           string      `json:"name" gorm:"not null"`
	Tagline        string      `json:"tagline"`
	Description    string      `json:"description"`
	Content        string      `json:"content,omitempty" gorm:"type:text"`
	WebsiteURL     string      `json:"website_url"`
	FaviconURL     string      `json:"favicon_url,omitempty"`
	ScreenshotURL  string      `json:"screenshot_url,omitempty"`
	SubmitterEmail string      `json:"-"`
	Status         ToolStatus  `json:"status" gorm:"index;size:16;not null;default:Draft"`
	Tier           ToolTier    `json:"tier" gorm:"size:16;not null;default:Free"`
	PricingType    PricingType `json:"pricing_type" gorm:"size:16;not null;default:Free"`
	PublishedAt    *time.Time  `json:"published_at,omitempty" gorm:"index"`
	Impressions    int64       `json:"impressions" gorm:"not null;default:0"`
	Views          int64       `json:"views" gorm:"not null;default:0"`
	Clicks         int64       `json:"clicks" gorm:"not null;default:0"`

	Categories []Category `json:"categories,omitempty" gorm:"many2many:tool_categories"`
	Topics     []Topic    `json:"topics,omitempty" gorm:"many2many:tool_topics"`
}

func (t *Tool) CategoryNames() []string {
	names := make([]string, 0, len(t.Categories))
	for _, c := range t.Categories {
		names = append(names, c.Name)
	}
	return names
}

func ParseToolTier(s string) (ToolTier, error) {
	switch ToolTier(s) {
	case TierFree, TierFeatured, TierPremium:
		return ToolTier(s), nil
	}
	return "", fmt.Errorf("invalid tool tier %q", s)
}

func ParsePricingType(s string) (PricingType, error) {
	for _, p := range []PricingType{PricingFree, PricingFreemium, PricingPaid} {
		if strings.EqualFold(string(p), s) {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid pricing type %q", s)
}
