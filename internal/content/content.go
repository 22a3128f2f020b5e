// Package content turns collected articles into generated, persisted content.
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"techpulse/internal/feeds"
	"techpulse/internal/keymanager"
	"techpulse/internal/model"

	"github.com/samber/lo"
)

const (
	maxKeywords     = 15
	maxTags         = 10
	summaryRunes    = 200
	seoScoreWithSEO = 100
	defaultArticles = 3
	maxArticles     = 20
)

// ErrNoArticles is returned when no collected article matches the request.
var ErrNoArticles = errors.New("no relevant articles found for the given topics")

// Request describes one generation.
type Request struct {
	Topics       []string `json:"topics"`
	Language     string   `json:"language"`
	Tone         string   `json:"tone"`
	Length       string   `json:"length"`
	IncludeSEO   *bool    `json:"include_seo"`
	ArticleCount int      `json:"article_count"`
}

// Normalize fills defaults and bounds the article count.
func (r *Request) Normalize() {
	if r.Language == "" {
		r.Language = keymanager.DefaultLanguage
	}
	if r.Tone == "" {
		r.Tone = "professional"
	}
	if r.Length == "" {
		r.Length = LengthMedium
	}
	if r.IncludeSEO == nil {
		r.IncludeSEO = lo.ToPtr(true)
	}
	if r.ArticleCount <= 0 {
		r.ArticleCount = defaultArticles
	}
	if r.ArticleCount > maxArticles {
		r.ArticleCount = maxArticles
	}
	r.Topics = lo.Compact(lo.Map(r.Topics, func(t string, _ int) string { return strings.TrimSpace(t) }))
}

// Store is the persistence the service needs.
type Store interface {
	FindArticlesForTopics(ctx context.Context, topics []string, since time.Time, limit int) ([]model.Article, error)
	CreateContent(ctx context.Context, content *model.GeneratedContent) error
}

// Generator is the part of the key manager used for generation.
type Generator interface {
	GenerateWithFailover(ctx context.Context, language, prompt string) (*keymanager.Result, error)
	RecordUsage(ctx context.Context, credentialID string)
}

type Service struct {
	store     Store
	generator Generator
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(store Store, generator Generator, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		generator: generator,
		logger:    logger.With("component", "content"),
		now:       time.Now,
	}
}

// Generate picks source articles, runs failover generation, records usage and persists the result.
func (s *Service) Generate(ctx context.Context, req Request) (*model.GeneratedContent, error) {
	req.Normalize()

	now := s.now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	articles, err := s.store.FindArticlesForTopics(ctx, req.Topics, midnight, req.ArticleCount)
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return nil, ErrNoArticles
	}

	result, err := s.generator.GenerateWithFailover(ctx, req.Language, BuildPrompt(req, articles))
	if err != nil {
		return nil, err
	}
	s.generator.RecordUsage(ctx, result.CredentialID)

	generated := buildContent(req, articles, result)
	if err := s.store.CreateContent(ctx, generated); err != nil {
		return nil, fmt.Errorf("failed to save generated content: %w", err)
	}
	s.logger.Info("Content generated",
		"content_id", generated.ID, "language", req.Language, "provider", result.Provider,
		"credential_id", result.CredentialID, "articles", len(articles), "words", generated.WordCount)
	return generated, nil
}

func buildContent(req Request, articles []model.Article, result *keymanager.Result) *model.GeneratedContent {
	title, body := splitTitle(result.Text)

	topicKeywords := lo.Map(req.Topics, func(t string, _ int) string { return strings.ToLower(t) })
	keywords := lo.Uniq(append(feeds.ExtractKeywords(result.Text), topicKeywords...))
	tags := feeds.ExtractTags(result.Text)

	seo := feeds.BaseSEOScore
	if *req.IncludeSEO {
		seo = seoScoreWithSEO
	}

	return &model.GeneratedContent{
		Title:            title,
		Content:          body,
		Summary:          summarize(body),
		Language:         req.Language,
		SourceArticleIDs: lo.Map(articles, func(a model.Article, _ int) string { return a.ID }),
		Keywords:         lo.Slice(keywords, 0, maxKeywords),
		Tags:             lo.Slice(tags, 0, maxTags),
		SEOScore:         seo,
		Tone:             req.Tone,
		WordCount:        len(strings.Fields(body)),
		SocialReady:      true,
		WordPressReady:   true,
		APIKeyUsed:       result.CredentialID,
	}
}

// splitTitle takes the first line, without heading marks, as the title.
func splitTitle(text string) (string, string) {
	first, rest, _ := strings.Cut(strings.TrimSpace(text), "\n")
	title := strings.TrimSpace(strings.ReplaceAll(first, "#", ""))
	return title, strings.TrimSpace(rest)
}

func summarize(body string) string {
	if utf8.RuneCountInString(body) <= summaryRunes {
		return body
	}
	return string([]rune(body)[:summaryRunes]) + "..."
}
