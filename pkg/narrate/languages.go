package narrate

import (
	"strings"

	"golang.org/x/text/language"

	"leaflens/domain"
)

var supportedLanguages = map[string]string{}

func init() {
	for _, code := range []string{
		"af", "sq", "ar", "hy", "bn", "bs", "ca", "hr", "cs", "da", "nl", "en", "eo", "et", "tl", "fi", "fr",
		"de", "el", "gu", "hi", "hu", "is", "id", "it", "ja", "jw", "kn", "km", "ko", "la", "lv", "lt", "mk",
		"ml", "mr", "my", "ne", "no", "pl", "pt", "pa", "ro", "ru", "sr", "si", "sk", "sl", "es", "su", "sw",
		"sv", "ta", "te", "th", "tr", "uk", "ur", "vi", "cy", "zh-CN", "zh-TW", "zu",
	} {
		supportedLanguages[strings.ToLower(code)] = code
	}
}

// ResolveLanguage maps lang onto a supported speech language, falling back
// to English.
func ResolveLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	if code, ok := supportedLanguages[strings.ToLower(lang)]; ok {
		return code
	}

	tag, err := language.Parse(lang)
	if err != nil {
		return domain.DefaultLanguage
	}
	if code, ok := supportedLanguages[strings.ToLower(tag.String())]; ok {
		return code
	}
	base, _ := tag.Base()
	if code, ok := supportedLanguages[base.String()]; ok {
		return code
	}
	return domain.DefaultLanguage
}
