package db

import (
	"context"
	"fmt"

	"techpulse/internal/model"
)

// FeedTotals counts feeds by state.
type FeedTotals struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
}

// ArticleTotals counts collected articles.
type ArticleTotals struct {
	Total      int64            `json:"total"`
	ByCategory map[string]int64 `json:"by_category"`
}

// ContentTotals counts generated content.
type ContentTotals struct {
	Total      int64            `json:"total"`
	Published  int64            `json:"published"`
	Draft      int64            `json:"draft"`
	ByLanguage map[string]int64 `json:"by_language"`
}

// Analytics is the platform-wide usage report.
type Analytics struct {
	Feeds             FeedTotals       `json:"feeds"`
	Articles          ArticleTotals    `json:"articles"`
	Content           ContentTotals    `json:"content"`
	Users             int64            `json:"users"`
	ActiveCredentials int64            `json:"active_api_keys"`
	UsageByCredential map[string]int64 `json:"api_key_usage"`
}

// ProviderUsage aggregates the credentials of one provider.
type ProviderUsage struct {
	Count      int64 `json:"count"`
	TotalUsage int64 `json:"total_usage"`
}

// CredentialTotals counts credentials by state and provider.
type CredentialTotals struct {
	Total      int64                    `json:"total"`
	Active     int64                    `json:"active"`
	ByProvider map[string]ProviderUsage `json:"by_provider"`
}

// UserTotals counts accounts.
type UserTotals struct {
	Total  int64 `json:"total"`
	Admins int64 `json:"admins"`
}

// AdminStats is the report shown on the admin dashboard.
type AdminStats struct {
	Credentials   CredentialTotals         `json:"api_keys"`
	Users         UserTotals               `json:"users"`
	RecentContent []model.GeneratedContent `json:"recent_activity"`
}

type groupCount struct {
	GroupKey string
	Count    int64
}

// Analytics gathers counts across feeds, articles, content, users and credentials.
func (s *service) Analytics(ctx context.Context) (*Analytics, error) {
	db := s.db.WithContext(ctx)
	out := &Analytics{
		Articles:          ArticleTotals{ByCategory: map[string]int64{}},
		Content:           ContentTotals{ByLanguage: map[string]int64{}},
		UsageByCredential: map[string]int64{},
	}

	if err := db.Model(&model.Feed{}).Count(&out.Feeds.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count feeds: %w", err)
	}
	if err := db.Model(&model.Feed{}).Where("is_active = ?", true).Count(&out.Feeds.Active).Error; err != nil {
		return nil, fmt.Errorf("failed to count active feeds: %w", err)
	}
	out.Feeds.Inactive = out.Feeds.Total - out.Feeds.Active

	if err := db.Model(&model.Article{}).Count(&out.Articles.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count articles: %w", err)
	}
	var byCategory []groupCount
	if err := db.Model(&model.Article{}).Select("category AS group_key, COUNT(*) AS count").Group("category").Scan(&byCategory).Error; err != nil {
		return nil, fmt.Errorf("failed to group articles: %w", err)
	}
	for _, g := range byCategory {
		out.Articles.ByCategory[g.GroupKey] = g.Count
	}

	if err := db.Model(&model.GeneratedContent{}).Count(&out.Content.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count content: %w", err)
	}
	if err := db.Model(&model.GeneratedContent{}).Where("is_published = ?", true).Count(&out.Content.Published).Error; err != nil {
		return nil, fmt.Errorf("failed to count published content: %w", err)
	}
	out.Content.Draft = out.Content.Total - out.Content.Published
	var byLanguage []groupCount
	if err := db.Model(&model.GeneratedContent{}).Select("language AS group_key, COUNT(*) AS count").Group("language").Scan(&byLanguage).Error; err != nil {
		return nil, fmt.Errorf("failed to group content: %w", err)
	}
	for _, g := range byLanguage {
		out.Content.ByLanguage[g.GroupKey] = g.Count
	}
	var byCredential []groupCount
	if err := db.Model(&model.GeneratedContent{}).Select("api_key_used AS group_key, COUNT(*) AS count").Group("api_key_used").Scan(&byCredential).Error; err != nil {
		return nil, fmt.Errorf("failed to group content by credential: %w", err)
	}
	for _, g := range byCredential {
		out.UsageByCredential[g.GroupKey] = g.Count
	}

	if err := db.Model(&model.User{}).Count(&out.Users).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := db.Model(&model.Credential{}).Where("is_active = ?", true).Count(&out.ActiveCredentials).Error; err != nil {
		return nil, fmt.Errorf("failed to count credentials: %w", err)
	}
	return out, nil
}

// AdminStats gathers credential and user totals plus the latest generated content.
func (s *service) AdminStats(ctx context.Context) (*AdminStats, error) {
	db := s.db.WithContext(ctx)
	out := &AdminStats{Credentials: CredentialTotals{ByProvider: map[string]ProviderUsage{}}}

	if err := db.Model(&model.Credential{}).Count(&out.Credentials.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count credentials: %w", err)
	}
	if err := db.Model(&model.Credential{}).Where("is_active = ?", true).Count(&out.Credentials.Active).Error; err != nil {
		return nil, fmt.Errorf("failed to count active credentials: %w", err)
	}
	var byProvider []struct {
		Provider   string
		Count      int64
		TotalUsage int64
	}
	err := db.Model(&model.Credential{}).
		Select("provider, COUNT(*) AS count, COALESCE(SUM(current_usage), 0) AS total_usage").
		Group("provider").Scan(&byProvider).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group credentials: %w", err)
	}
	for _, p := range byProvider {
		out.Credentials.ByProvider[p.Provider] = ProviderUsage{Count: p.Count, TotalUsage: p.TotalUsage}
	}

	if err := db.Model(&model.User{}).Count(&out.Users.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := db.Model(&model.User{}).Where("is_admin = ?", true).Count(&out.Users.Admins).Error; err != nil {
		return nil, fmt.Errorf("failed to count admins: %w", err)
	}
	if err := db.Order("created_at desc").Limit(5).Find(&out.RecentContent).Error; err != nil {
		return nil, fmt.Errorf("failed to load recent content: %w", err)
	}
	return out, nil
}
