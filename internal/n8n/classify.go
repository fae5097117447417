package n8n

import "strings"

// Language is the detected language of an utterance.
type Language string

const (
	LanguageBengali Language = "bengali"
	LanguageEnglish Language = "english"
)

// Intent is the detected appointment intent of an utterance.
type Intent string

const (
	IntentBookAppointment   Intent = "book_appointment"
	IntentModifyAppointment Intent = "modify_appointment"
	IntentCheckAppointment  Intent = "check_appointment"
	IntentGeneralInquiry    Intent = "general_inquiry"
)

// Bengali and English keywords for the three appointment intents. Matching
// is case-insensitive substring search, in priority order.
var (
	bookKeywords   = []string{"appointment", "book", "schedule", "time", "date", "nite chai", "korte chai"}
	modifyKeywords = []string{"cancel", "reschedule", "change", "cancel korte", "change korte"}
	checkKeywords  = []string{"confirm", "check", "status", "confirm ache", "check korte"}
)

// DetectLanguage classifies text as Bengali if it contains any character
// from the Bengali Unicode block, English otherwise.
func DetectLanguage(text string) Language {
	for _, r := range text {
		if r >= 0x0980 && r <= 0x09FF {
			return LanguageBengali
		}
	}
	return LanguageEnglish
}

// DetectIntent classifies an utterance against a small fixed vocabulary.
func DetectIntent(text string) Intent {
	lower := strings.ToLower(text)

	if containsAny(lower, bookKeywords) {
		return IntentBookAppointment
	}
	if containsAny(lower, modifyKeywords) {
		return IntentModifyAppointment
	}
	if containsAny(lower, checkKeywords) {
		return IntentCheckAppointment
	}
	return IntentGeneralInquiry
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
