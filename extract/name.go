package extract

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tbxark/apptagent/types"
)

// Name failure reasons.
const (
	ReasonNameTokens  = "please provide both a first and last name"
	ReasonNameCharset = "name may only contain letters, hyphens and apostrophes"
)

// Name validates a person's full name: at least two words of letters (hyphens
// and apostrophes allowed), total length inside the configured range. The
// normalized value has collapsed whitespace and title-cased words.
func Name(raw string, rules Rules) types.FieldValue {
	rules = rules.withDefaults()
	words := strings.Fields(raw)
	joined := strings.Join(words, " ")

	if n := utf8.RuneCountInString(joined); n < rules.NameLenMin || n > rules.NameLenMax {
		reason := fmt.Sprintf("name must be %d to %d characters", rules.NameLenMin, rules.NameLenMax)
		return types.Invalid(raw, reason)
	}
	if len(words) < 2 {
		return types.Invalid(raw, ReasonNameTokens)
	}
	for _, w := range words {
		if !validNameWord(w) {
			return types.Invalid(raw, ReasonNameCharset)
		}
	}

	for i, w := range words {
		words[i] = titleWord(w)
	}
	return types.ValidValue(raw, strings.Join(words, " "))
}

func validNameWord(w string) bool {
	for _, r := range w {
		if unicode.IsLetter(r) || r == '-' || r == '\'' {
			continue
		}
		return false
	}
	return true
}

// titleWord upper-cases the first letter of the word and of each hyphen- or
// apostrophe-separated part, lower-casing the rest: "o'neil-smith" becomes
// "O'Neil-Smith".
func titleWord(w string) string {
	out := make([]rune, 0, len(w))
	startOfPart := true
	for _, r := range w {
		switch {
		case r == '-' || r == '\'':
			out = append(out, r)
			startOfPart = true
		case startOfPart:
			out = append(out, unicode.ToUpper(r))
			startOfPart = false
		default:
			out = append(out, unicode.ToLower(r))
		}
	}
	return string(out)
}
