// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// PostStatus is the observable visibility state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// Post is a blog entry. Slug is derived from Title and is unique.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Content   string    `json:"content"`
	Excerpt   *string   `json:"excerpt"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Virtual fields populated by the service layer.
	Categories  []CategoryRef `json:"categories"`
	ContentHTML string        `json:"contentHtml,omitempty"`
}

// Status returns the post's draft/published state.
func (p *Post) Status() PostStatus {
	if p.Published {
		return PostStatusPublished
	}
	return PostStatusDraft
}
