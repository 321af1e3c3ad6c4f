// Package model contains domain entities and DTOs used across layers.
// I keep it lean and focused on data shapes without behavior.
package model

import "time"

// Article is a catalog entry. Tags live in their own table and are attached after a
// page of articles has been fetched.
type Article struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Author    string    `json:"author" db:"author"`
	Tags      []string  `json:"tags" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Headline is the light projection used by the headlines listing.
type Headline struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Comment belongs to an article. It is persisted through GORM, hence the gorm tags.
type Comment struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	ArticleID int64     `json:"article_id" gorm:"not null;index"`
	Author    string    `json:"author" gorm:"not null"`
	Body      string    `json:"body" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
