// Package form implements the booking form state machine: an ordered set of
// field specs collected one focused field at a time, a confirmation step, and
// the terminal confirmed/cancelled states.
package form

import (
	"time"

	"github.com/tbxark/apptagent/types"
)

// Record is one form-filling attempt. Field order is declaration order and
// drives focus selection. Values holds the latest FieldValue per field; an
// extraction replaces the stored value, it never mutates it.
type Record struct {
	Fields    []types.FieldSpec           `json:"fields"`
	Values    map[string]types.FieldValue `json:"values"`
	Status    types.Status                `json:"status"`
	Focus     string                      `json:"focus,omitempty"`
	Retries   map[string]int              `json:"retries,omitempty"`
	CreatedAt time.Time                   `json:"created_at"`
}

// NewRecord starts a collecting record over the given fields with focus on
// the first required field.
func NewRecord(fields []types.FieldSpec, at time.Time) *Record {
	r := &Record{
		Fields:    fields,
		Values:    make(map[string]types.FieldValue, len(fields)),
		Status:    types.StatusCollecting,
		Retries:   make(map[string]int),
		CreatedAt: at,
	}
	r.Focus = r.nextFocus()
	return r
}

// Spec returns the field spec with the given name.
func (r *Record) Spec(name string) (types.FieldSpec, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return types.FieldSpec{}, false
}

// Value returns the stored value for a field, if any.
func (r *Record) Value(name string) (types.FieldValue, bool) {
	v, ok := r.Values[name]
	return v, ok
}

// Normalized returns the normalized value of a field, empty if missing or
// invalid.
func (r *Record) Normalized(name string) string {
	v, ok := r.Values[name]
	if !ok || !v.Valid {
		return ""
	}
	return v.Normalized
}

// MissingRequired lists required fields lacking a valid value, in declaration
// order.
func (r *Record) MissingRequired() []types.FieldSpec {
	var missing []types.FieldSpec
	for _, f := range r.Fields {
		if !f.Required {
			continue
		}
		if v, ok := r.Values[f.Name]; !ok || !v.Valid {
			missing = append(missing, f)
		}
	}
	return missing
}

// Complete reports whether every required field holds a valid value.
func (r *Record) Complete() bool {
	return len(r.MissingRequired()) == 0
}

// nextFocus picks the first required field in declaration order lacking a
// valid value; empty when none remain.
func (r *Record) nextFocus() string {
	missing := r.MissingRequired()
	if len(missing) == 0 {
		return ""
	}
	return missing[0].Name
}

func (r *Record) clearField(name string) {
	delete(r.Values, name)
	delete(r.Retries, name)
}

func (r *Record) clearAll() {
	r.Values = make(map[string]types.FieldValue, len(r.Fields))
	r.Retries = make(map[string]int)
}
