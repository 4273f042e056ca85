// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Category groups posts under a shared, slug-addressable label.
// Posts reference categories through the post_categories association.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`

	// Virtual field populated by store methods.
	PostCount int `json:"postCount"`
}

// CategoryRef is the view of a category embedded in a post. Description is
// only filled for single-post reads.
type CategoryRef struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description *string `json:"description,omitempty"`
}

// DeleteResult acknowledges a successful delete.
type DeleteResult struct {
	Success bool  `json:"success"`
	ID      int64 `json:"id"`
}
