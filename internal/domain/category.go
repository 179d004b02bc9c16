package domain

type Category struct {
	Model
	Slug  string  `json:"slug" gorm:"uniqueIndex;size:191;not null"`
	Name  string  `json:"name" gorm:"not null"`
	Label *string `json:"label,omitempty"`

	// ToolCount is filled by listing queries and never written.
	ToolCount int64 `json:"tool_count" gorm:"->;-:migration"`
}

// DisplayName prefers the optional label.
func (c Category) DisplayName() string {
	if c.Label != nil && *c.Label != "" {
		return *c.Label
	}
	return c.Name
}

type Topic struct {
	Model
	Slug string `json:"slug" gorm:"uniqueIndex;size:191;not null"`
	Name string `json:"name" gorm:"not null"`
}
