package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"techpulse/internal/config"
	"techpulse/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a record addressed by id does not exist.
var ErrNotFound = errors.New("record not found")

// Service defines the interface for database operations.
type Service interface {
	// Credential operations
	FindActiveCredentials(ctx context.Context, provider string) ([]model.Credential, error)
	IncrementCredentialUsage(ctx context.Context, id string, at time.Time) error
	ResetAllCredentialUsage(ctx context.Context) (int64, error)
	CreateCredential(ctx context.Context, cred *model.Credential) error
	ListCredentials(ctx context.Context) ([]model.Credential, error)
	GetCredential(ctx context.Context, id string) (*model.Credential, error)
	UpdateCredential(ctx context.Context, id string, updates map[string]any) (*model.Credential, error)
	DeleteCredential(ctx context.Context, id string) error

	// User operations
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UserExists(ctx context.Context, username, email string) (bool, error)
	AdminExists(ctx context.Context) (bool, error)

	// Feed operations
	CreateFeed(ctx context.Context, feed *model.Feed) error
	BatchCreateFeeds(ctx context.Context, feeds []model.Feed) error
	ListFeeds(ctx context.Context, activeOnly bool) ([]model.Feed, error)
	CountFeeds(ctx context.Context) (int64, error)
	DeleteFeed(ctx context.Context, id string) error
	TouchFeedFetched(ctx context.Context, id string, at time.Time) error

	// Article operations
	CreateArticle(ctx context.Context, article *model.Article) error
	ArticleExistsByURL(ctx context.Context, url string) (bool, error)
	ListArticles(ctx context.Context, category string, limit int) ([]model.Article, error)
	FindArticlesForTopics(ctx context.Context, topics []string, since time.Time, limit int) ([]model.Article, error)
	SearchArticles(ctx context.Context, query string, limit int) ([]model.Article, error)

	// Generated content operations
	CreateContent(ctx context.Context, content *model.GeneratedContent) error
	ListContent(ctx context.Context, language string, limit int) ([]model.GeneratedContent, error)
	GetContent(ctx context.Context, id string) (*model.GeneratedContent, error)
	MarkContentPublished(ctx context.Context, id string) error
	SearchContent(ctx context.Context, query string, limit int) ([]model.GeneratedContent, error)

	// Reporting
	Analytics(ctx context.Context) (*Analytics, error)
	AdminStats(ctx context.Context) (*AdminStats, error)

	GetDB() *gorm.DB
}

type service struct {
	db *gorm.DB
}

// NewService creates a new database service.
func NewService(cfg config.DatabaseConfig) (Service, error) {
	db, err := Init(cfg)
	if err != nil {
		return nil, err
	}
	return &service{db: db}, nil
}

// Init initializes the database connection based on the provided configuration.
func Init(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Type {
	case DialectSQLite:
		dialector = sqlite.Open(cfg.DSN)
	case DialectPostgres:
		dialector = postgres.Open(cfg.DSN)
	case DialectMySQL:
		dialector = mysql.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Type == DialectSQLite {
		// SQLite serializes writers; one connection also keeps an in-memory database alive.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sql pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	err = db.AutoMigrate(&model.Credential{}, &model.User{}, &model.Feed{}, &model.Article{}, &model.GeneratedContent{})
	if err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	return db, nil
}

func (s *service) GetDB() *gorm.DB {
	return s.db
}

// FindActiveCredentials returns active credentials, best candidates first:
// priority descending, then usage ascending, then oldest first.
// An empty provider spans all providers.
func (s *service) FindActiveCredentials(ctx context.Context, provider string) ([]model.Credential, error) {
	var creds []model.Credential
	q := s.db.WithContext(ctx).Model(&model.Credential{}).Where("is_active = ?", true)
	if provider != "" {
		q = q.Where("provider = ?", provider)
	}
	result := q.Order("priority desc").Order("current_usage asc").Order("created_at asc").Find(&creds)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load active credentials: %w", result.Error)
	}
	return creds, nil
}

// IncrementCredentialUsage atomically increments the usage counter and stamps the last use.
func (s *service) IncrementCredentialUsage(ctx context.Context, id string, at time.Time) error {
	result := s.db.WithContext(ctx).Model(&model.Credential{}).Where("id = ?", id).UpdateColumns(map[string]any{
		"current_usage": gorm.Expr("current_usage + ?", 1),
		"last_used_at":  at,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to increment usage for credential %s: %w", id, result.Error)
	}
	// It's okay if RowsAffected is 0, the credential might have been deleted in the meantime.
	return nil
}

// ResetAllCredentialUsage sets every usage counter back to zero and reports how many rows changed.
func (s *service) ResetAllCredentialUsage(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Model(&model.Credential{}).Where("current_usage <> ?", 0).UpdateColumn("current_usage", 0)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to reset credential usage: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *service) CreateCredential(ctx context.Context, cred *model.Credential) error {
	return s.db.WithContext(ctx).Create(cred).Error
}

func (s *service) ListCredentials(ctx context.Context) ([]model.Credential, error) {
	var creds []model.Credential
	err := s.db.WithContext(ctx).Order("provider asc").Order("priority desc").Order("created_at asc").Find(&creds).Error
	return creds, err
}

func (s *service) GetCredential(ctx context.Context, id string) (*model.Credential, error) {
	var cred model.Credential
	if err := s.db.WithContext(ctx).First(&cred, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &cred, nil
}

// UpdateCredential applies a partial update. Keys are column names.
func (s *service) UpdateCredential(ctx context.Context, id string, updates map[string]any) (*model.Credential, error) {
	cred, err := s.GetCredential(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(cred).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update credential %s: %w", id, err)
		}
	}
	return s.GetCredential(ctx, id)
}

func (s *service) DeleteCredential(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&model.Credential{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *service) CreateUser(ctx context.Context, user *model.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *service) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *service) UserExists(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.User{}).Where("username = ? OR email = ?", username, email).Count(&count).Error
	return count > 0, err
}

func (s *service) AdminExists(ctx context.Context) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.User{}).Where("is_admin = ?", true).Count(&count).Error
	return count > 0, err
}

func (s *service) CreateFeed(ctx context.Context, feed *model.Feed) error {
	return s.db.WithContext(ctx).Create(feed).Error
}

// BatchCreateFeeds inserts all feeds in one transaction.
func (s *service) BatchCreateFeeds(ctx context.Context, feeds []model.Feed) error {
	if len(feeds) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&feeds).Error
	})
}

func (s *service) ListFeeds(ctx context.Context, activeOnly bool) ([]model.Feed, error) {
	var feeds []model.Feed
	q := s.db.WithContext(ctx).Order("created_at asc")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&feeds).Error
	return feeds, err
}

func (s *service) CountFeeds(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Feed{}).Count(&count).Error
	return count, err
}

func (s *service) DeleteFeed(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&model.Feed{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *service) TouchFeedFetched(ctx context.Context, id string, at time.Time) error {
	return s.db.WithContext(ctx).Model(&model.Feed{}).Where("id = ?", id).UpdateColumn("last_fetched_at", at).Error
}

func (s *service) CreateArticle(ctx context.Context, article *model.Article) error {
	return s.db.WithContext(ctx).Create(article).Error
}

func (s *service) ArticleExistsByURL(ctx context.Context, url string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Article{}).Where("url = ?", url).Count(&count).Error
	return count > 0, err
}

func (s *service) ListArticles(ctx context.Context, category string, limit int) ([]model.Article, error) {
	var articles []model.Article
	q := s.db.WithContext(ctx).Order("published_at desc").Limit(limit)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	err := q.Find(&articles).Error
	return articles, err
}

// FindArticlesForTopics returns the newest articles matching any topic.
// Without topics it returns articles collected since the given time.
func (s *service) FindArticlesForTopics(ctx context.Context, topics []string, since time.Time, limit int) ([]model.Article, error) {
	var articles []model.Article
	q := s.db.WithContext(ctx).Model(&model.Article{})
	if len(topics) == 0 {
		q = q.Where("created_at >= ?", since)
	} else {
		q = q.Where(s.matchAny(topics, "title", "summary"))
	}
	err := q.Order("published_at desc").Limit(limit).Find(&articles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find articles: %w", err)
	}
	return articles, nil
}

func (s *service) SearchArticles(ctx context.Context, query string, limit int) ([]model.Article, error) {
	var articles []model.Article
	err := s.db.WithContext(ctx).Where(s.matchAny([]string{query}, "title", "summary")).
		Order("published_at desc").Limit(limit).Find(&articles).Error
	return articles, err
}

func (s *service) CreateContent(ctx context.Context, content *model.GeneratedContent) error {
	return s.db.WithContext(ctx).Create(content).Error
}

func (s *service) ListContent(ctx context.Context, language string, limit int) ([]model.GeneratedContent, error) {
	var contents []model.GeneratedContent
	q := s.db.WithContext(ctx).Order("created_at desc").Limit(limit)
	if language != "" {
		q = q.Where("language = ?", language)
	}
	err := q.Find(&contents).Error
	return contents, err
}

func (s *service) GetContent(ctx context.Context, id string) (*model.GeneratedContent, error) {
	var content model.GeneratedContent
	if err := s.db.WithContext(ctx).First(&content, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &content, nil
}

func (s *service) MarkContentPublished(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Model(&model.GeneratedContent{}).Where("id = ?", id).UpdateColumn("is_published", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *service) SearchContent(ctx context.Context, query string, limit int) ([]model.GeneratedContent, error) {
	var contents []model.GeneratedContent
	err := s.db.WithContext(ctx).Where(s.matchAny([]string{query}, "title", "content")).
		Order("created_at desc").Limit(limit).Find(&contents).Error
	return contents, err
}

// matchAny builds an OR group: case-insensitive substring on the text columns,
// or exact membership in the keywords/tags arrays.
func (s *service) matchAny(terms []string, textColumns ...string) *gorm.DB {
	group := s.db.Session(&gorm.Session{NewDB: true})
	first := true
	or := func(expr string, arg any) {
		if first {
			group = group.Where(expr, arg)
			first = false
			return
		}
		group = group.Or(expr, arg)
	}
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		pattern := "%" + strings.ToLower(term) + "%"
		for _, col := range textColumns {
			or(CaseInsensitiveLikeExpr(s.db, col), pattern)
		}
		lower := strings.ToLower(term)
		or(JSONArrayContainsExpr(s.db, "keywords"), JSONArrayContainsValue(s.db, lower))
		or(JSONArrayContainsExpr(s.db, "tags"), JSONArrayContainsValue(s.db, lower))
	}
	if first {
		// No usable term: match nothing.
		group = group.Where("1 = 0")
	}
	return group
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
