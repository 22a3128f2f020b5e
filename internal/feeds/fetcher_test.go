package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
<channel>
  <title>Sample</title>
  <link>https://sample.example</link>
  <description>Sample feed</description>
  <item>
    <title>  First story  </title>
    <link>https://sample.example/1</link>
    <description><![CDATA[<p>Hello <b>world</b></p>]]></description>
    <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
    <media:content url="https://img.example/1.jpg" medium="image"/>
  </item>
  <item>
    <title>Second story</title>
    <link>https://sample.example/2</link>
    <description>Plain text</description>
    <enclosure url="https://img.example/2.mp3" type="audio/mpeg" length="1"/>
    <enclosure url="https://img.example/2.png" type="image/png" length="1"/>
  </item>
  <item>
    <title>Third story</title>
    <link>https://sample.example/3</link>
    <description>Third</description>
  </item>
</channel>
</rss>`

func TestFetcher_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer server.Close()

	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFetcher(5*time.Second, 2)
	f.now = func() time.Time { return fixed }

	entries, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "First story", entries[0].Title)
	assert.Equal(t, "Hello world", entries[0].Summary)
	assert.Equal(t, "https://sample.example/1", entries[0].URL)
	assert.Equal(t, "https://img.example/1.jpg", entries[0].ImageURL)
	assert.Equal(t, 2006, entries[0].PublishedAt.Year())

	assert.Equal(t, "https://img.example/2.png", entries[1].ImageURL)
	assert.Equal(t, fixed, entries[1].PublishedAt)
}

func TestFetcher_FetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	f := NewFetcher(time.Second, 10)
	_, err := f.Fetch(context.Background(), server.URL)
	assert.Error(t, err)
}

func TestHTMLToText(t *testing.T) {
	assert.Equal(t, "", htmlToText(""))
	assert.Equal(t, "Bold and link", htmlToText("<div><strong>Bold</strong> and <a href='#'>link</a></div>"))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 5))
	long := strings.Repeat("क", 600)
	assert.Equal(t, maxSummaryRunes, len([]rune(truncateRunes(long, maxSummaryRunes))))
}
