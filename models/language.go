package models

import (
	"fmt"
	"sort"
	"strings"
)

// Language describes one supported broadcast target: the NLLB code the
// translator needs, the TTS model that can voice it, and the short tag
// rendered in the bilingual message.
type Language struct {
	Name     string // canonical upper-case name, e.g. "HAUSA"
	NLLBCode string // e.g. "hau_Latn"
	TTSModel string // e.g. "facebook/mms-tts-hau"
	Tag      string // two-letter display tag, e.g. "HA"
}

// DefaultLanguageName is used for recipients with no stored preference.
const DefaultLanguageName = "HAUSA"

var languages = map[string]Language{
	"HAUSA":  {Name: "HAUSA", NLLBCode: "hau_Latn", TTSModel: "facebook/mms-tts-hau", Tag: "HA"},
	"YORUBA": {Name: "YORUBA", NLLBCode: "yor_Latn", TTSModel: "facebook/mms-tts-yor", Tag: "YO"},
	"IGBO":   {Name: "IGBO", NLLBCode: "ibo_Latn", TTSModel: "facebook/mms-tts-ibo", Tag: "IG"},
}

// LanguageByName resolves a (case-insensitive) language name.
func LanguageByName(name string) (Language, bool) {
	lang, ok := languages[strings.ToUpper(strings.TrimSpace(name))]
	return lang, ok
}

// DefaultLanguage returns the system default target language.
func DefaultLanguage() Language {
	return languages[DefaultLanguageName]
}

// LanguageNames lists the recognized language names in stable order,
// for guidance replies like "Use HAUSA, YORUBA, or IGBO."
func LanguageNames() []string {
	names := make([]string, 0, len(languages))
	for name := range languages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LanguageGuidance is the rejection reply sent for unrecognized codes.
func LanguageGuidance() string {
	return fmt.Sprintf("Invalid language. Use %s.", strings.Join(LanguageNames(), ", "))
}
