package keymanager

// DefaultLanguage is used when a request names a language without a persona.
const DefaultLanguage = "english"

var personas = map[string]string{
	"english": "You are a professional tech news writer who creates engaging, SEO-optimized, human-like articles. " +
		"Write in a conversational yet professional tone that reads as if a person wrote it. " +
		"Focus on trending topics, insights and practical implications.",
	"hindi": "आप एक पेशेवर टेक न्यूज़ लेखक हैं जो आकर्षक, SEO-अनुकूलित, मानव-जैसे लेख बनाते हैं। " +
		"एक बातचीत करने वाले लेकिन पेशेवर टोन में लिखें।",
	"bangla": "আপনি একজন পেশাদার টেক নিউজ লেখক যিনি আকর্ষণীয়, SEO-অপ্টিমাইজড, মানুষের মতো আর্টিকেল তৈরি করেন। " +
		"কথোপকথনের কিন্তু পেশাদার টোনে লিখুন।",
}

// Persona returns the system instruction for a language, falling back to English.
func Persona(language string) string {
	if p, ok := personas[language]; ok {
		return p
	}
	return personas[DefaultLanguage]
}
