package content

import (
	"fmt"
	"strings"

	"techpulse/internal/model"
)

// Length tiers.
const (
	LengthShort  = "short"
	LengthMedium = "medium"
	LengthLong   = "long"
)

var lengthWords = map[string][3]string{
	"english": {"500 words", "1200 words", "2000 words"},
	"hindi":   {"500 शब्द", "1200 शब्द", "2000 शब्द"},
	"bangla":  {"৫০০ শব্দ", "১২০০ শব্দ", "২০০০ শব্দ"},
}

const englishPrompt = `Based on the following %d tech news articles, create a comprehensive, engaging and SEO-optimized article that:

1. Synthesizes the key information and trends
2. Provides unique insights and analysis
3. Uses a %s tone that sounds human-written
4. Is approximately %s
5. Includes relevant keywords naturally
6. Has a compelling title on the first line and a meta description

Source Articles:
%s

Write an article that combines these stories into a cohesive, insightful piece that would rank well on search engines and engage readers, in the voice of an experienced tech journalist.`

const hindiPrompt = `निम्नलिखित %d टेक न्यूज़ आर्टिकल्स के आधार पर एक व्यापक, आकर्षक और SEO-अनुकूलित आर्टिकल बनाएं जो:

1. मुख्य जानकारी और ट्रेंड्स को संयोजित करे
2. अनूठी अंतर्दृष्टि और विश्लेषण प्रदान करे
3. %s टोन का उपयोग करे जो मानव-लिखित लगे
4. लगभग %s का हो
5. प्राकृतिक रूप से संबंधित कीवर्ड शामिल करे

स्रोत आर्टिकल्स:
%s

पहली पंक्ति में शीर्षक लिखें, फिर एक सुसंगत, अंतर्दृष्टिपूर्ण आर्टिकल।`

const banglaPrompt = `নিম্নলিখিত %dটি টেক নিউজ আর্টিকেলের ভিত্তিতে একটি ব্যাপক, আকর্ষণীয় এবং SEO-অপ্টিমাইজড আর্টিকেল তৈরি করুন যা:

1. মূল তথ্য এবং ট্রেন্ডগুলি সংযুক্ত করে
2. অনন্য অন্তর্দৃষ্টি এবং বিশ্লেষণ প্রদান করে
3. %s টোন ব্যবহার করে যা মানুষের লেখা মনে হয়
4. প্রায় %s হয়
5. প্রাকৃতিকভাবে প্রাসঙ্গিক কীওয়ার্ড অন্তর্ভুক্ত করে

সোর্স আর্টিকেল:
%s

প্রথম লাইনে শিরোনাম লিখুন, তারপর একটি সুসংগত, অন্তর্দৃষ্টিপূর্ণ আর্টিকেল।`

var promptTemplates = map[string]string{
	"english": englishPrompt,
	"hindi":   hindiPrompt,
	"bangla":  banglaPrompt,
}

// BuildPrompt renders the generation prompt for the request language.
// Unknown languages use the English template.
func BuildPrompt(req Request, articles []model.Article) string {
	lang := req.Language
	tmpl, ok := promptTemplates[lang]
	if !ok {
		lang = "english"
		tmpl = englishPrompt
	}
	return fmt.Sprintf(tmpl, len(articles), req.Tone, targetLength(lang, req.Length), sourceBlock(articles))
}

func targetLength(language, length string) string {
	words := lengthWords[language]
	switch length {
	case LengthShort:
		return words[0]
	case LengthMedium:
		return words[1]
	default:
		return words[2]
	}
}

func sourceBlock(articles []model.Article) string {
	parts := make([]string, 0, len(articles))
	for _, a := range articles {
		parts = append(parts, fmt.Sprintf("Title: %s\nSummary: %s\nSource: %s", a.Title, a.Summary, a.Source))
	}
	return strings.Join(parts, "\n\n---\n\n")
}
