package types

import "time"

const dateLayout = "2006-01-02"

// FormatDateLong renders a normalized YYYY-MM-DD date for display,
// e.g. "Friday, March 14, 2026". Unparseable input is returned as-is.
func FormatDateLong(normalized string) string {
	t, err := time.Parse(dateLayout, normalized)
	if err != nil {
		return normalized
	}
	return t.Format("Monday, January 2, 2006")
}

// DisplayName renders a field name for user-facing text, e.g. "email" stays
// "email" while "preferred_date" becomes "preferred date".
func DisplayName(field string) string {
	out := make([]rune, 0, len(field))
	for _, r := range field {
		if r == '_' || r == '-' {
			out = append(out, ' ')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
