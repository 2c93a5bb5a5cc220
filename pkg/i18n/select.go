package i18n

import (
	"sort"

	"golang.org/x/text/language"
)

// SelectComment picks the comment text for lang. An exact key match wins;
// otherwise the language matcher picks the closest available variant (a
// request for "en-GB" finds "en"). Unrelated languages are never
// substituted. ok is false when no text fits.
func SelectComment(comments map[string]string, lang string) (chosen, text string, ok bool) {
	if text, ok := comments[lang]; ok {
		return lang, text, true
	}
	if len(comments) == 0 {
		return "", "", false
	}

	keys := make([]string, 0, len(comments))
	tags := make([]language.Tag, 0, len(comments))
	for key := range comments {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		tags = append(tags, language.Make(key))
	}

	_, index, confidence := language.NewMatcher(tags).Match(language.Make(lang))
	if confidence == language.No {
		return "", "", false
	}
	return keys[index], comments[keys[index]], true
}
