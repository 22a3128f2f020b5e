package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Provider tags understood by the generation layer.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

const maskedPlaceholder = "***masked***"

// Credential is an LLM provider API key managed by an administrator.
type Credential struct {
	ID           string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Provider     string     `gorm:"type:varchar(50);not null;index" json:"provider"`
	Model        string     `gorm:"type:varchar(255);not null" json:"model"`
	Secret       string     `gorm:"type:text;not null" json:"api_key"`
	Priority     int        `gorm:"not null;index" json:"priority"`
	DailyQuota   int        `gorm:"not null" json:"max_requests_per_day"`
	CurrentUsage int        `gorm:"default:0;not null" json:"current_usage"`
	IsActive     bool       `gorm:"not null;index" json:"is_active"`
	LastUsedAt   *time.Time `json:"last_used"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// BeforeCreate assigns an identifier when none was provided.
func (c *Credential) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Eligible reports whether the credential is active and strictly under its quota.
func (c *Credential) Eligible() bool {
	return c.IsActive && c.CurrentUsage < c.DailyQuota
}

// Masked returns a copy safe to hand to clients.
func (c Credential) Masked() Credential {
	c.Secret = MaskSecret(c.Secret)
	return c
}

// MaskSecret keeps the first 8 and last 4 characters of long secrets and hides short ones entirely.
func MaskSecret(secret string) string {
	if len(secret) > 12 {
		return secret[:8] + "..." + secret[len(secret)-4:]
	}
	return maskedPlaceholder
}
