package db

import (
	"context"
	"sync"
	"testing"
	"time"

	"techpulse/internal/config"
	"techpulse/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupTestDB creates a new in-memory SQLite database and returns a Service and the raw *gorm.DB.
func setupTestDB(t *testing.T) (Service, *gorm.DB) {
	service, err := NewService(config.DatabaseConfig{
		Type: "sqlite",
		DSN:  "file::memory:",
	})
	if err != nil {
		t.Fatalf("Failed to create test db service: %v", err)
	}
	return service, service.GetDB()
}

func TestNewService(t *testing.T) {
	service, err := NewService(config.DatabaseConfig{Type: "sqlite", DSN: "file::memory:"})
	assert.NoError(t, err)
	assert.NotNil(t, service)

	_, err = NewService(config.DatabaseConfig{Type: "unsupported"})
	assert.Error(t, err)
}

func TestFindActiveCredentials_Ordering(t *testing.T) {
	service, db := setupTestDB(t)
	base := time.Now().Add(-time.Hour)
	require.NoError(t, db.Create(&model.Credential{ID: "low", Provider: "gemini", Model: "m", Secret: "s", Priority: 1, DailyQuota: 10, IsActive: true, CreatedAt: base}).Error)
	require.NoError(t, db.Create(&model.Credential{ID: "busy", Provider: "gemini", Model: "m", Secret: "s", Priority: 5, DailyQuota: 10, CurrentUsage: 4, IsActive: true, CreatedAt: base}).Error)
	require.NoError(t, db.Create(&model.Credential{ID: "idle", Provider: "gemini", Model: "m", Secret: "s", Priority: 5, DailyQuota: 10, CurrentUsage: 1, IsActive: true, CreatedAt: base.Add(time.Minute)}).Error)
	require.NoError(t, db.Create(&model.Credential{ID: "off", Provider: "gemini", Model: "m", Secret: "s", Priority: 9, DailyQuota: 10, IsActive: false, CreatedAt: base}).Error)
	require.NoError(t, db.Create(&model.Credential{ID: "other", Provider: "openai", Model: "m", Secret: "s", Priority: 7, DailyQuota: 10, IsActive: true, CreatedAt: base}).Error)

	creds, err := service.FindActiveCredentials(context.Background(), "gemini")
	require.NoError(t, err)
	ids := make([]string, 0, len(creds))
	for _, c := range creds {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"idle", "busy", "low"}, ids)

	all, err := service.FindActiveCredentials(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "other", all[0].ID)
}

func TestIncrementCredentialUsage(t *testing.T) {
	service, db := setupTestDB(t)
	cred := model.Credential{Provider: "gemini", Model: "m", Secret: "s", Priority: 1, DailyQuota: 10, IsActive: true}
	require.NoError(t, db.Create(&cred).Error)
	assert.NotEmpty(t, cred.ID)

	at := time.Now().UTC().Truncate(time.Second)
	err := service.IncrementCredentialUsage(context.Background(), cred.ID, at)
	assert.NoError(t, err)

	var updated model.Credential
	db.First(&updated, "id = ?", cred.ID)
	assert.Equal(t, 1, updated.CurrentUsage)
	require.NotNil(t, updated.LastUsedAt)
	assert.True(t, updated.LastUsedAt.Equal(at))

	// Unknown ids are ignored.
	assert.NoError(t, service.IncrementCredentialUsage(context.Background(), "missing", at))
}

func TestIncrementCredentialUsage_Concurrent(t *testing.T) {
	service, db := setupTestDB(t)
	cred := model.Credential{Provider: "gemini", Model: "m", Secret: "s", Priority: 1, DailyQuota: 1000, IsActive: true}
	require.NoError(t, db.Create(&cred).Error)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, service.IncrementCredentialUsage(context.Background(), cred.ID, time.Now()))
		}()
	}
	wg.Wait()

	var updated model.Credential
	db.First(&updated, "id = ?", cred.ID)
	assert.Equal(t, n, updated.CurrentUsage)
}

func TestResetAllCredentialUsage(t *testing.T) {
	service, db := setupTestDB(t)
	db.Create(&model.Credential{ID: "a", Provider: "gemini", Model: "m", Secret: "s", DailyQuota: 10, CurrentUsage: 10, IsActive: true})
	db.Create(&model.Credential{ID: "b", Provider: "openai", Model: "m", Secret: "s", DailyQuota: 10, CurrentUsage: 5, IsActive: false})
	db.Create(&model.Credential{ID: "c", Provider: "anthropic", Model: "m", Secret: "s", DailyQuota: 10, CurrentUsage: 0, IsActive: true})

	affected, err := service.ResetAllCredentialUsage(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	var creds []model.Credential
	db.Find(&creds)
	for _, c := range creds {
		assert.Equal(t, 0, c.CurrentUsage)
	}

	// Idempotent
	affected, err = service.ResetAllCredentialUsage(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}

func TestCredentialCRUD(t *testing.T) {
	service, _ := setupTestDB(t)
	ctx := context.Background()

	cred := &model.Credential{Provider: "openai", Model: "gpt-4o", Secret: "sk-test-000000000000", Priority: 2, DailyQuota: 100, IsActive: true}
	require.NoError(t, service.CreateCredential(ctx, cred))

	got, err := service.GetCredential(ctx, cred.ID)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", got.Model)

	updated, err := service.UpdateCredential(ctx, cred.ID, map[string]any{"priority": 8, "is_active": false})
	require.NoError(t, err)
	assert.Equal(t, 8, updated.Priority)
	assert.False(t, updated.IsActive)

	list, err := service.ListCredentials(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = service.UpdateCredential(ctx, "missing", map[string]any{"priority": 1})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, service.DeleteCredential(ctx, cred.ID))
	assert.ErrorIs(t, service.DeleteCredential(ctx, cred.ID), ErrNotFound)
	_, err = service.GetCredential(ctx, cred.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUsers(t *testing.T) {
	service, _ := setupTestDB(t)
	ctx := context.Background()

	exists, err := service.AdminExists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, service.CreateUser(ctx, &model.User{Username: "admin", Email: "admin@example.com", PasswordHash: "x", IsAdmin: true, IsActive: true}))

	exists, err = service.AdminExists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = service.UserExists(ctx, "someone", "admin@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	user, err := service.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)

	_, err = service.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFeeds(t *testing.T) {
	service, _ := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, service.BatchCreateFeeds(ctx, []model.Feed{
		{Title: "One", URL: "https://one.example/rss", Category: "tech", IsActive: true},
		{Title: "Two", URL: "https://two.example/rss", Category: "ai", IsActive: false},
	}))
	require.NoError(t, service.BatchCreateFeeds(ctx, nil))

	count, err := service.CountFeeds(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	active, err := service.ListFeeds(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "One", active[0].Title)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, service.TouchFeedFetched(ctx, active[0].ID, at))
	all, err := service.ListFeeds(ctx, false)
	require.NoError(t, err)
	for _, f := range all {
		if f.ID == active[0].ID {
			require.NotNil(t, f.LastFetchedAt)
			assert.True(t, f.LastFetchedAt.Equal(at))
		}
	}

	require.NoError(t, service.DeleteFeed(ctx, active[0].ID))
	assert.ErrorIs(t, service.DeleteFeed(ctx, active[0].ID), ErrNotFound)
}

func TestFindArticlesForTopics(t *testing.T) {
	service, db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()
	yesterday := now.Add(-48 * time.Hour)

	db.Create(&model.Article{Title: "OpenAI ships a new model", Summary: "Big release", URL: "https://a.example/1", PublishedAt: now.Add(-time.Hour), Keywords: []string{"openai", "model"}})
	db.Create(&model.Article{Title: "Rust 2.0", Summary: "Systems programming news", URL: "https://a.example/2", PublishedAt: now.Add(-2 * time.Hour), Tags: []string{"programming"}})
	db.Create(&model.Article{Title: "Old gadget review", Summary: "Hardware", URL: "https://a.example/3", PublishedAt: yesterday, CreatedAt: yesterday})

	got, err := service.FindArticlesForTopics(ctx, []string{"OPENAI"}, time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://a.example/1", got[0].URL)

	got, err = service.FindArticlesForTopics(ctx, []string{"programming", "release"}, time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "https://a.example/1", got[0].URL, "newest first")

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	got, err = service.FindArticlesForTopics(ctx, nil, midnight, 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = service.FindArticlesForTopics(ctx, []string{"programming", "release"}, time.Time{}, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	exists, err := service.ArticleExistsByURL(ctx, "https://a.example/2")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSearch(t *testing.T) {
	service, db := setupTestDB(t)
	ctx := context.Background()

	db.Create(&model.Article{Title: "Cloud costs", Summary: "FinOps", URL: "https://b.example/1", PublishedAt: time.Now()})
	db.Create(&model.GeneratedContent{Title: "Weekly digest", Content: "All about cloud pricing", Language: "english"})
	db.Create(&model.GeneratedContent{Title: "Other", Content: "Nothing", Language: "hindi", Keywords: []string{"cloud"}})

	articles, err := service.SearchArticles(ctx, "cloud", 10)
	require.NoError(t, err)
	assert.Len(t, articles, 1)

	contents, err := service.SearchContent(ctx, "Cloud", 10)
	require.NoError(t, err)
	assert.Len(t, contents, 2)

	contents, err = service.SearchContent(ctx, "  ", 10)
	require.NoError(t, err)
	assert.Empty(t, contents)
}

func TestContent(t *testing.T) {
	service, _ := setupTestDB(t)
	ctx := context.Background()

	c := &model.GeneratedContent{Title: "T", Content: "body", Language: "bangla", APIKeyUsed: "emergent_fallback"}
	require.NoError(t, service.CreateContent(ctx, c))

	list, err := service.ListContent(ctx, "bangla", 20)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = service.ListContent(ctx, "english", 20)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, service.MarkContentPublished(ctx, c.ID))
	got, err := service.GetContent(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPublished)
	assert.ErrorIs(t, service.MarkContentPublished(ctx, "missing"), ErrNotFound)
}

func TestAnalyticsAndAdminStats(t *testing.T) {
	service, db := setupTestDB(t)
	ctx := context.Background()

	db.Create(&model.Feed{Title: "F", URL: "u", IsActive: true})
	db.Create(&model.Feed{Title: "G", URL: "v", IsActive: false})
	db.Create(&model.Article{Title: "A", URL: "https://c.example/1", Category: "ai"})
	db.Create(&model.Article{Title: "B", URL: "https://c.example/2", Category: "ai"})
	db.Create(&model.GeneratedContent{Title: "C", Language: "english", IsPublished: true, APIKeyUsed: "k1"})
	db.Create(&model.GeneratedContent{Title: "D", Language: "hindi", APIKeyUsed: "emergent_fallback"})
	db.Create(&model.User{Username: "u", Email: "u@example.com", PasswordHash: "x", IsAdmin: true, IsActive: true})
	db.Create(&model.Credential{Provider: "gemini", Model: "m", Secret: "s", DailyQuota: 5, CurrentUsage: 3, IsActive: true})
	db.Create(&model.Credential{Provider: "gemini", Model: "m", Secret: "s", DailyQuota: 5, CurrentUsage: 2, IsActive: false})

	a, err := service.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), a.Feeds.Total)
	assert.Equal(t, int64(1), a.Feeds.Inactive)
	assert.Equal(t, int64(2), a.Articles.ByCategory["ai"])
	assert.Equal(t, int64(1), a.Content.Published)
	assert.Equal(t, int64(1), a.Content.Draft)
	assert.Equal(t, int64(1), a.Content.ByLanguage["hindi"])
	assert.Equal(t, int64(1), a.UsageByCredential["emergent_fallback"])
	assert.Equal(t, int64(1), a.ActiveCredentials)

	s, err := service.AdminStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), s.Credentials.Total)
	assert.Equal(t, ProviderUsage{Count: 2, TotalUsage: 5}, s.Credentials.ByProvider["gemini"])
	assert.Equal(t, int64(1), s.Users.Admins)
	assert.Len(t, s.RecentContent, 2)
}
