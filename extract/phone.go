package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tbxark/apptagent/types"
)

// ReasonPhoneChars is the failure reason for non-digit phone input.
const ReasonPhoneChars = "phone number may only contain digits and separators"

// phoneSeparatorRe strips the formatting characters callers commonly type:
// spaces, hyphens, parentheses, dots.
var phoneSeparatorRe = regexp.MustCompile(`[\s\-().]+`)

// Phone validates a phone number after stripping separators. An optional
// leading + is kept in the normalized value; the remaining digits must fall
// inside the configured digit range.
func Phone(raw string, rules Rules) types.FieldValue {
	rules = rules.withDefaults()
	cleaned := phoneSeparatorRe.ReplaceAllString(strings.TrimSpace(raw), "")

	plus := ""
	if strings.HasPrefix(cleaned, "+") {
		plus = "+"
		cleaned = cleaned[1:]
	}
	if cleaned == "" || !allDigits(cleaned) {
		return types.Invalid(raw, ReasonPhoneChars)
	}
	if len(cleaned) < rules.PhoneDigitMin || len(cleaned) > rules.PhoneDigitMax {
		reason := fmt.Sprintf("phone number must have %d to %d digits", rules.PhoneDigitMin, rules.PhoneDigitMax)
		return types.Invalid(raw, reason)
	}
	return types.ValidValue(raw, plus+cleaned)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
