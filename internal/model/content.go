package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GeneratedContent is an article written by a language model from collected sources.
type GeneratedContent struct {
	ID               string                      `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title            string                      `gorm:"type:text;not null" json:"title"`
	Content          string                      `gorm:"type:text" json:"content"`
	Summary          string                      `gorm:"type:text" json:"summary"`
	Language         string                      `gorm:"type:varchar(50);index" json:"language"`
	SourceArticleIDs datatypes.JSONSlice[string] `json:"original_articles"`
	Keywords         datatypes.JSONSlice[string] `json:"keywords"`
	Tags             datatypes.JSONSlice[string] `json:"tags"`
	SEOScore         int                         `json:"seo_score"`
	Tone             string                      `gorm:"type:varchar(50)" json:"tone"`
	WordCount        int                         `json:"word_count"`
	IsPublished      bool                        `gorm:"not null;index" json:"is_published"`
	SocialReady      bool                        `json:"social_media_ready"`
	WordPressReady   bool                        `json:"wordpress_ready"`
	// APIKeyUsed is the credential id that produced the text, or the fallback sentinel.
	APIKeyUsed string    `gorm:"type:varchar(64);index" json:"api_key_used"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (g *GeneratedContent) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}
