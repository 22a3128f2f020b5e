package feeds

import (
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"
)

const maxKeywords = 10

var wordPattern = regexp.MustCompile(`\b[a-zA-Z]{4,}\b`)

var stopWords = lo.Associate(strings.Fields(`
	this that with have will from they been were said each which their time would there
	could more than into very what know just first also after back other many them these
	some like even most made only over think where being through much before right should
	still such between both under never while another without again come make then`),
	func(w string) (string, struct{}) { return w, struct{}{} })

var techTerms = []string{
	"ai", "artificial", "intelligence", "machine", "learning", "technology", "tech",
	"software", "hardware", "cloud", "data", "digital", "mobile", "app", "programming",
	"development", "startup", "innovation", "blockchain", "crypto", "cybersecurity", "gaming",
}

// ExtractKeywords returns the most frequent non-stop words of at least four letters,
// most frequent first, ties in order of first appearance.
func ExtractKeywords(text string) []string {
	words := lo.Filter(wordPattern.FindAllString(strings.ToLower(text), -1), func(w string, _ int) bool {
		_, stop := stopWords[w]
		return !stop
	})
	counts := lo.CountValues(words)
	ranked := lo.Uniq(words)
	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i]] > counts[ranked[j]]
	})
	if len(ranked) > maxKeywords {
		ranked = ranked[:maxKeywords]
	}
	return ranked
}

// ExtractTags returns the tech terms that occur anywhere in the text.
// Matching is by substring, so "ai" also matches inside longer words.
func ExtractTags(text string) []string {
	lower := strings.ToLower(text)
	return lo.Filter(techTerms, func(term string, _ int) bool {
		return strings.Contains(lower, term)
	})
}
