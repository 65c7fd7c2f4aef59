package domain

import "time"

// Category is a curated grouping for bucket items. Categories are read-only
// for the application and seeded by operators.
type Category struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	CreatedAt time.Time `json:"created_at" db:"-"`
}

// DefaultCategories is the seed set installed with a fresh schema.
var DefaultCategories = []Category{
	{ID: 1, Name: "旅行・観光", Color: "#3B82F6"},
	{ID: 2, Name: "スキル習得・学習", Color: "#10B981"},
	{ID: 3, Name: "体験・チャレンジ", Color: "#F59E0B"},
	{ID: 4, Name: "人間関係", Color: "#EC4899"},
	{ID: 5, Name: "健康・フィットネス", Color: "#EF4444"},
	{ID: 6, Name: "キャリア・仕事", Color: "#8B5CF6"},
	{ID: 7, Name: "創作・趣味", Color: "#06B6D4"},
	{ID: 8, Name: "その他", Color: "#6B7280"},
}
