package feeds

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"techpulse/internal/metrics"
	"techpulse/internal/model"
)

// BaseSEOScore is assigned to every collected article.
const BaseSEOScore = 85

// ErrCollectionInProgress is returned when a collection run is already active.
var ErrCollectionInProgress = errors.New("article collection already in progress")

// Store is the persistence the collector needs.
type Store interface {
	ListFeeds(ctx context.Context, activeOnly bool) ([]model.Feed, error)
	ArticleExistsByURL(ctx context.Context, url string) (bool, error)
	CreateArticle(ctx context.Context, article *model.Article) error
	TouchFeedFetched(ctx context.Context, id string, at time.Time) error
}

// Source fetches the entries of one feed.
type Source interface {
	Fetch(ctx context.Context, url string) ([]Entry, error)
}

// Collector pulls new articles from every active feed. At most one run is active at a time.
type Collector struct {
	store   Store
	source  Source
	logger  *slog.Logger
	running atomic.Bool
	wg      sync.WaitGroup
	now     func() time.Time
}

func NewCollector(store Store, source Source, logger *slog.Logger) *Collector {
	return &Collector{
		store:  store,
		source: source,
		logger: logger.With("component", "collector"),
		now:    time.Now,
	}
}

// CollectAsync starts a run in its own goroutine and reports whether it was started.
// Completion is only observable through feed timestamps and new articles.
func (c *Collector) CollectAsync() bool {
	if !c.running.CompareAndSwap(false, true) {
		return false
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.running.Store(false)
		c.run(context.Background())
	}()
	return true
}

// Collect runs synchronously and returns the number of stored articles.
func (c *Collector) Collect(ctx context.Context) (int, error) {
	if !c.running.CompareAndSwap(false, true) {
		return 0, ErrCollectionInProgress
	}
	defer c.running.Store(false)
	return c.run(ctx)
}

// Running reports whether a run is active.
func (c *Collector) Running() bool {
	return c.running.Load()
}

// Wait blocks until background runs have finished.
func (c *Collector) Wait() {
	c.wg.Wait()
}

func (c *Collector) run(ctx context.Context) (int, error) {
	feeds, err := c.store.ListFeeds(ctx, true)
	if err != nil {
		c.logger.Error("Failed to list feeds", "error", err)
		return 0, err
	}

	total := 0
	for _, feed := range feeds {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		stored, err := c.collectFeed(ctx, feed)
		total += stored
		if err != nil {
			c.logger.Warn("Feed collection failed", "feed", feed.Title, "url", feed.URL, "error", err)
			continue
		}
		if err := c.store.TouchFeedFetched(ctx, feed.ID, c.now().UTC()); err != nil {
			c.logger.Error("Failed to update feed fetch time", "feed_id", feed.ID, "error", err)
		}
	}

	metrics.ArticlesCollected.Add(float64(total))
	c.logger.Info("Article collection finished", "feeds", len(feeds), "new_articles", total)
	return total, nil
}

func (c *Collector) collectFeed(ctx context.Context, feed model.Feed) (int, error) {
	entries, err := c.source.Fetch(ctx, feed.URL)
	if err != nil {
		return 0, err
	}

	stored := 0
	for _, entry := range entries {
		exists, err := c.store.ArticleExistsByURL(ctx, entry.URL)
		if err != nil {
			return stored, err
		}
		if exists {
			continue
		}

		text := entry.Summary + " " + entry.Title
		article := &model.Article{
			Title:       entry.Title,
			Summary:     entry.Summary,
			Content:     entry.Summary,
			URL:         entry.URL,
			Source:      feed.Title,
			Category:    feed.Category,
			Language:    feed.Language,
			PublishedAt: entry.PublishedAt,
			ImageURL:    entry.ImageURL,
			Keywords:    ExtractKeywords(text),
			Tags:        ExtractTags(text),
			SEOScore:    BaseSEOScore,
		}
		if err := c.store.CreateArticle(ctx, article); err != nil {
			c.logger.Warn("Failed to store article", "url", entry.URL, "error", err)
			continue
		}
		stored++
	}
	return stored, nil
}
