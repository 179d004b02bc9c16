package ads

import (
	"time"

	"github.com/go-playground/validator/v10"

	"plaiful/internal/config"
	"plaiful/internal/domain"
	pkgvalidator "plaiful/internal/pkg/validator"
)

func init() {
	pkgvalidator.RegisterStructValidation(validatePlacementGeometry, AdRequest{})
}

// AdRequest is the admin create/update payload.
type AdRequest struct {
	Name        string    `json:"name" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=2000"`
	WebsiteURL  string    `json:"website_url" validate:"required,url"`
	FaviconURL  string    `json:"favicon_url" validate:"omitempty,url"`
	ImageURL    *string   `json:"image_url" validate:"omitempty,url"`
	Width       *int      `json:"width" validate:"omitempty,gt=0"`
	Height      *int      `json:"height" validate:"omitempty,gt=0"`
	Type        string    `json:"type" validate:"required,oneof=Homepage ToolPage BlogPost CategoryPage Banner"`
	Placement   string    `json:"placement" validate:"required,oneof=Agent FloatingTop HorizontalTop HorizontalMiddle HorizontalBottom VerticalLeft VerticalRight"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
	Categories  []string  `json:"categories" validate:"dive,required"`
}

// validatePlacementGeometry requires banner placements to carry a complete
// image geometry. Cards need none.
func validatePlacementGeometry(sl validator.StructLevel) {
	req := sl.Current().Interface().(AdRequest)
	if domain.AdPlacement(req.Placement).IsCard() {
		return
	}
	if req.ImageURL == nil || *req.ImageURL == "" {
		sl.ReportError(req.ImageURL, "image_url", "ImageURL", "required_for_banner", req.Placement)
	}
	if req.Width == nil {
		sl.ReportError(req.Width, "width", "Width", "required_for_banner", req.Placement)
	}
	if req.Height == nil {
		sl.ReportError(req.Height, "height", "Height", "required_for_banner", req.Placement)
	}
}

// apply copies the request onto ad. Card placements drop any image geometry.
func (r AdRequest) apply(ad *domain.Ad, categories []domain.Category) {
	ad.Name = r.Name
	ad.Description = r.Description
	ad.WebsiteURL = r.WebsiteURL
	ad.FaviconURL = r.FaviconURL
	ad.Type = domain.AdType(r.Type)
	ad.Placement = domain.AdPlacement(r.Placement)
	ad.StartsAt = r.StartsAt.UTC()
	ad.EndsAt = r.EndsAt.UTC()
	ad.Categories = categories

	if ad.Placement.IsCard() {
		ad.ImageURL, ad.Width, ad.Height = nil, nil, nil
		return
	}
	ad.ImageURL, ad.Width, ad.Height = r.ImageURL, r.Width, r.Height
}

// Slot is one resolved placement: the active ad or, when none is running,
// the configured fallback creative.
type Slot struct {
	Ad       *domain.Ad       `json:"ad"`
	Fallback *config.Creative `json:"fallback,omitempty"`
}

type HomePageAds struct {
	Agent            Slot `json:"agent"`
	FloatingTop      Slot `json:"floating_top"`
	HorizontalTop    Slot `json:"horizontal_top"`
	HorizontalBottom Slot `json:"horizontal_bottom"`
}

type AdListResponse struct {
	Ads     []domain.Ad `json:"ads"`
	Total   int64       `json:"total"`
	Page    int         `json:"page"`
	PerPage int         `json:"per_page"`
}
