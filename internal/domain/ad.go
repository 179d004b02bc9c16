package domain

import (
	"fmt"
	"time"
)

type AdType string

const (
	AdHomepage     AdType = "Homepage"
	AdToolPage     AdType = "ToolPage"
	AdBlogPost     AdType = "BlogPost"
	AdCategoryPage AdType = "CategoryPage"
	AdBanner       AdType = "Banner"
)

type AdPlacement string

const (
	PlacementAgent            AdPlacement = "Agent"
	PlacementFloatingTop      AdPlacement = "FloatingTop"
	PlacementHorizontalTop    AdPlacement = "HorizontalTop"
	PlacementHorizontalMiddle AdPlacement = "HorizontalMiddle"
	PlacementHorizontalBottom AdPlacement = "HorizontalBottom"
	PlacementVerticalLeft     AdPlacement = "VerticalLeft"
	PlacementVerticalRight    AdPlacement = "VerticalRight"
)

var AdPlacements = []AdPlacement{
	PlacementAgent,
	PlacementFloatingTop,
	PlacementHorizontalTop,
	PlacementHorizontalMiddle,
	PlacementHorizontalBottom,
	PlacementVerticalLeft,
	PlacementVerticalRight,
}

// IsCard reports whether the placement renders as a text card without image
// geometry. Every other placement is a banner.
func (p AdPlacement) IsCard() bool {
	return p == PlacementAgent
}

type Ad struct {
	Model
	Name        string      `json:"name" gorm:"not null"`
	Description string      `json:"description"`
	WebsiteURL  string      `json:"website_url" gorm:"not null"`
	FaviconURL  string      `json:"favicon_url,omitempty"`
	ImageURL    *string     `json:"image_url,omitempty"`
	Width       *int        `json:"width,omitempty"`
	Height      *int        `json:"height,omitempty"`
	Type        AdType      `json:"type" gorm:"index;size:32;not null"`
	Placement   AdPlacement `json:"placement" gorm:"index;size:32;not null"`
	StartsAt    time.Time   `json:"starts_at" gorm:"index;not null"`
	EndsAt      time.Time   `json:"ends_at" gorm:"index;not null"`

	Categories []Category `json:"categories,omitempty" gorm:"many2many:ad_categories"`
}

// ActiveAt reports whether t falls in the half-open window [StartsAt, EndsAt).
func (a *Ad) ActiveAt(t time.Time) bool {
	return !t.Before(a.StartsAt) && t.Before(a.EndsAt)
}

func (a *Ad) TargetsCategory(slug string) bool {
	for _, c := range a.Categories {
		if c.Slug == slug {
			return true
		}
	}
	return false
}

func ParseAdType(s string) (AdType, error) {
	switch AdType(s) {
	case AdHomepage, AdToolPage, AdBlogPost, AdCategoryPage, AdBanner:
		return AdType(s), nil
	}
	return "", fmt.Errorf("invalid ad type %q", s)
}

func ParseAdPlacement(s string) (AdPlacement, error) {
	for _, p := range AdPlacements {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid ad placement %q", s)
}
