package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Feed is an RSS source collected by the article collector.
type Feed struct {
	ID            string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title         string     `gorm:"type:varchar(255);not null" json:"title"`
	URL           string     `gorm:"type:varchar(1024);not null" json:"url"`
	Category      string     `gorm:"type:varchar(100);index" json:"category"`
	Language      string     `gorm:"type:varchar(50)" json:"language"`
	IsActive      bool       `gorm:"not null;index" json:"is_active"`
	LastFetchedAt *time.Time `json:"last_fetched"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (f *Feed) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// Article is a news item collected from a feed.
type Article struct {
	ID          string                      `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title       string                      `gorm:"type:text;not null" json:"title"`
	Summary     string                      `gorm:"type:text" json:"summary"`
	Content     string                      `gorm:"type:text" json:"content"`
	URL         string                      `gorm:"type:varchar(1024);uniqueIndex;not null" json:"url"`
	Source      string                      `gorm:"type:varchar(255)" json:"source"`
	Category    string                      `gorm:"type:varchar(100);index" json:"category"`
	Language    string                      `gorm:"type:varchar(50)" json:"language"`
	PublishedAt time.Time                   `json:"published_date"`
	ImageURL    string                      `gorm:"type:varchar(1024)" json:"image_url,omitempty"`
	Keywords    datatypes.JSONSlice[string] `json:"keywords"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`
	SEOScore    int                         `json:"seo_score"`
	CreatedAt   time.Time                   `gorm:"index" json:"created_at"`
}

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
