// Package extract turns raw user input into normalized field values. Every
// extractor is a pure function of its input and the reference time: same
// input, same output, no panics. Failures come back as invalid FieldValues
// carrying a reason, never as errors.
package extract

import (
	"time"

	"github.com/tbxark/apptagent/types"
)

// Rules carries the configurable bounds extractors enforce. Zero values fall
// back to the defaults.
type Rules struct {
	PhoneDigitMin int
	PhoneDigitMax int
	NameLenMin    int
	NameLenMax    int
}

// DefaultRules returns the documented default bounds: phone 7-15 digits,
// name 2-60 characters.
func DefaultRules() Rules {
	return Rules{
		PhoneDigitMin: 7,
		PhoneDigitMax: 15,
		NameLenMin:    2,
		NameLenMax:    60,
	}
}

func (r Rules) withDefaults() Rules {
	def := DefaultRules()
	if r.PhoneDigitMin <= 0 {
		r.PhoneDigitMin = def.PhoneDigitMin
	}
	if r.PhoneDigitMax <= 0 {
		r.PhoneDigitMax = def.PhoneDigitMax
	}
	if r.NameLenMin <= 0 {
		r.NameLenMin = def.NameLenMin
	}
	if r.NameLenMax <= 0 {
		r.NameLenMax = def.NameLenMax
	}
	return r
}

// Extract dispatches raw input to the extractor for the given field type.
// The reference time only matters for date fields. Unknown field types yield
// an invalid value rather than an error.
func Extract(typ types.FieldType, raw string, ref time.Time, rules Rules) types.FieldValue {
	switch typ {
	case types.FieldName:
		return Name(raw, rules)
	case types.FieldEmail:
		return Email(raw)
	case types.FieldPhone:
		return Phone(raw, rules)
	case types.FieldDate:
		return Date(raw, ref)
	default:
		return types.Invalid(raw, "unsupported field type "+string(typ))
	}
}
