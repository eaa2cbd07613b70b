package extract

import (
	"regexp"
	"strings"

	"github.com/tbxark/apptagent/types"
)

// ReasonEmail is the failure reason for malformed email input.
const ReasonEmail = "not a valid email address"

// emailRe requires a local part, an @, and a domain with at least one dot.
// Anchored, so embedded whitespace fails the match.
var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Email validates an email address and normalizes it to lower case.
func Email(raw string) types.FieldValue {
	trimmed := strings.TrimSpace(raw)
	if !emailRe.MatchString(trimmed) {
		return types.Invalid(raw, ReasonEmail)
	}
	return types.ValidValue(raw, strings.ToLower(trimmed))
}
