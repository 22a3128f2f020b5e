package feeds

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

const maxSummaryRunes = 500

// Entry is one parsed feed item.
type Entry struct {
	Title       string
	Summary     string
	URL         string
	ImageURL    string
	PublishedAt time.Time
}

// Fetcher downloads and parses RSS and Atom feeds.
type Fetcher struct {
	parser     *gofeed.Parser
	maxEntries int
	now        func() time.Time
}

// NewFetcher creates a fetcher bounded by timeout that keeps at most maxEntries items per feed.
func NewFetcher(timeout time.Duration, maxEntries int) *Fetcher {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	parser.UserAgent = "techpulse/1.0"
	return &Fetcher{parser: parser, maxEntries: maxEntries, now: time.Now}
}

// Fetch returns the first entries of the feed at url.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]Entry, error) {
	feed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %s: %w", url, err)
	}
	return f.entries(feed), nil
}

func (f *Fetcher) entries(feed *gofeed.Feed) []Entry {
	items := feed.Items
	if f.maxEntries > 0 && len(items) > f.maxEntries {
		items = items[:f.maxEntries]
	}
	out := make([]Entry, 0, len(items))
	for _, item := range items {
		if item == nil || item.Link == "" {
			continue
		}
		summary := item.Description
		if summary == "" {
			summary = item.Content
		}
		published := f.now().UTC()
		if item.PublishedParsed != nil {
			published = item.PublishedParsed.UTC()
		} else if item.UpdatedParsed != nil {
			published = item.UpdatedParsed.UTC()
		}
		out = append(out, Entry{
			Title:       strings.TrimSpace(item.Title),
			Summary:     truncateRunes(htmlToText(summary), maxSummaryRunes),
			URL:         item.Link,
			ImageURL:    itemImage(item),
			PublishedAt: published,
		})
	}
	return out
}

// itemImage prefers media:content, then the item image, then the first image enclosure.
func itemImage(item *gofeed.Item) string {
	if media, ok := item.Extensions["media"]; ok {
		for _, content := range media["content"] {
			if u := content.Attrs["url"]; u != "" {
				return u
			}
		}
	}
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}

func htmlToText(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	return strings.TrimSpace(doc.Text())
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
