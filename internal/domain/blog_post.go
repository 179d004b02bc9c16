package domain

import (
	"fmt"
	"time"
)

type PostStatus string

const (
	PostDraft     PostStatus = "Draft"
	PostScheduled PostStatus = "Scheduled"
	PostPublished PostStatus = "Published"
	PostArchived  PostStatus = "Archived"
)

type BlogPost struct {
	Model
	Slug        string     `json:"slug" gorm:"uniqueIndex;size:191;not null"`
	Title       string     `json:"title" gorm:"not null"`
	Description string     `json:"description"`
	Content     string     `json:"content" gorm:"type:text"`
	ImageURL    string     `json:"image_url,omitempty"`
	Status      PostStatus `json:"status" gorm:"index;size:16;not null;default:Draft"`
	PublishedAt *time.Time `json:"published_at,omitempty" gorm:"index"`
}

func ParsePostStatus(s string) (PostStatus, error) {
	switch PostStatus(s) {
	case PostDraft, PostScheduled, PostPublished, PostArchived:
		return PostStatus(s), nil
	}
	return "", fmt.Errorf("invalid post status %q", s)
}

type Subscriber struct {
	Model
	Email string `json:"email" gorm:"uniqueIndex;size:191;not null"`
}
