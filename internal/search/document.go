// Package search provides full-text search over public bucket items using
// Bleve. Only public items are kept in the index; private items are removed
// as soon as they are written.
package search

import (
	"github.com/bucketlistapp/bucketlist-server/internal/domain"
)

// ItemDocument is the indexed form of a public bucket item.
type ItemDocument struct {
	ID          string `json:"id"`
	ProfileID   string `json:"profile_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	CategoryID  int64  `json:"category_id"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`

	// Unix millis
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// ToMap converts the document to the field names used by the mapping.
func (d *ItemDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":          d.ID,
		"profile_id":  d.ProfileID,
		"title":       d.Title,
		"category_id": d.CategoryID,
		"priority":    d.Priority,
		"status":      d.Status,
		"created_at":  d.CreatedAt,
		"updated_at":  d.UpdatedAt,
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	return m
}

// ItemToDocument converts a bucket item to an ItemDocument.
func ItemToDocument(item *domain.BucketItem) *ItemDocument {
	doc := &ItemDocument{
		ID:         item.ID,
		ProfileID:  item.ProfileID,
		Title:      item.Title,
		CategoryID: item.CategoryID,
		Priority:   string(item.Priority),
		Status:     string(item.Status),
		CreatedAt:  item.CreatedAt.UnixMilli(),
		UpdatedAt:  item.UpdatedAt.UnixMilli(),
	}
	if item.Description != nil {
		doc.Description = *item.Description
	}
	return doc
}
