package feeds

import "techpulse/internal/model"

// DefaultFeeds is the catalogue seeded by the initialize endpoint.
var DefaultFeeds = []model.Feed{
	{Title: "TechCrunch", URL: "https://techcrunch.com/feed/", Category: "technology"},
	{Title: "Ars Technica", URL: "https://feeds.arstechnica.com/arstechnica/index", Category: "technology"},
	{Title: "Wired", URL: "https://www.wired.com/feed/rss", Category: "technology"},
	{Title: "The Verge", URL: "https://www.theverge.com/rss/index.xml", Category: "technology"},
	{Title: "Engadget", URL: "https://www.engadget.com/rss.xml", Category: "technology"},

	{Title: "MIT Technology Review AI", URL: "https://www.technologyreview.com/topic/artificial-intelligence/feed/", Category: "ai"},
	{Title: "OpenAI Blog", URL: "https://openai.com/blog/rss.xml", Category: "ai"},
	{Title: "Google AI Blog", URL: "https://ai.googleblog.com/feeds/posts/default", Category: "ai"},
	{Title: "DeepMind Blog", URL: "https://deepmind.com/blog/feed/basic/", Category: "ai"},
	{Title: "Towards Data Science", URL: "https://towardsdatascience.com/feed", Category: "ai"},

	{Title: "GitHub Blog", URL: "https://github.blog/feed/", Category: "programming"},
	{Title: "Stack Overflow Blog", URL: "https://stackoverflow.blog/feed/", Category: "programming"},
	{Title: "Dev.to", URL: "https://dev.to/feed", Category: "programming"},
	{Title: "HackerNews", URL: "https://hnrss.org/frontpage", Category: "programming"},

	{Title: "Y Combinator Blog", URL: "https://blog.ycombinator.com/feed", Category: "startup"},
	{Title: "Entrepreneur", URL: "https://www.entrepreneur.com/latest.rss", Category: "business"},
	{Title: "Fast Company", URL: "https://www.fastcompany.com/feed", Category: "business"},
	{Title: "Inc42", URL: "https://inc42.com/feed/", Category: "startup"},
	{Title: "YourStory", URL: "https://yourstory.com/feed", Category: "startup"},
	{Title: "The Ken", URL: "https://the-ken.com/feed/", Category: "business"},
}

// DefaultFeedModels returns fresh, active copies of DefaultFeeds ready for insertion.
func DefaultFeedModels() []model.Feed {
	out := make([]model.Feed, len(DefaultFeeds))
	for i, f := range DefaultFeeds {
		f.Language = "english"
		f.IsActive = true
		out[i] = f
	}
	return out
}
