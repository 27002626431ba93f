package entity

import "time"

// TagDescriptor identifies a tag in an entry payload. Tags are resolved by
// name within the owner's scope, created on first use.
type TagDescriptor struct {
	Name string `json:"name" binding:"required"`
}

// Tag is the tag representation returned to clients.
type Tag struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug,omitempty"`
	UsageCount int64     `json:"usage_count,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

type TagListResponse struct {
	Tags []Tag `json:"tags"`
}

type TagDetailResponse struct {
	Tag Tag `json:"tag"`
}

// Photo pairs a stored photo path with its public URL.
type Photo struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}
