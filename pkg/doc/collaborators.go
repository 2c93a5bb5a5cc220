package doc

import "strings"

// ProseRenderer turns comment text in a language into rendered prose.
type ProseRenderer interface {
	RenderProse(lang, text string) string
}

// ProseFunc adapts a function to ProseRenderer.
type ProseFunc func(lang, text string) string

func (f ProseFunc) RenderProse(lang, text string) string {
	return f(lang, text)
}

// Localizer turns a label key into display text.
type Localizer interface {
	Localize(lang, key string) string
}

// LocalizeFunc adapts a function to Localizer.
type LocalizeFunc func(lang, key string) string

func (f LocalizeFunc) Localize(lang, key string) string {
	return f(lang, key)
}

// PlainProse collapses whitespace and otherwise leaves text as written.
var PlainProse = ProseFunc(func(_, text string) string {
	return strings.Join(strings.Fields(text), " ")
})
