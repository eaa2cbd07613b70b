// Package sink persists confirmed appointments and serves the operator
// surface: lookup, listing, search, and audited amendments.
package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tbxark/apptagent/extract"
	"github.com/tbxark/apptagent/form"
	"github.com/tbxark/apptagent/patch"
)

// ErrNotFound is returned when an appointment ID does not exist.
var ErrNotFound = errors.New("appointment not found")

// Appointment is one confirmed booking. Date is the normalized YYYY-MM-DD
// call date.
type Appointment struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Sink receives confirmed bookings. Store must be atomic: either the
// appointment is durably recorded and nil is returned, or nothing changed
// and an error is returned. The caller relies on that to keep "confirmed
// implies delivered" true.
type Sink interface {
	Store(ctx context.Context, appt *Appointment) error
}

// Store is the full appointment repository.
type Store interface {
	Sink
	// Get returns nil, nil when the ID is unknown.
	Get(ctx context.Context, id string) (*Appointment, error)
	List(ctx context.Context) ([]*Appointment, error)
	Search(ctx context.Context, query string) ([]*Appointment, error)
	// Amend applies RFC 6902 operations limited to AmendablePaths and
	// re-normalizes the result.
	Amend(ctx context.Context, id string, ops []patch.Operation) (*Appointment, error)
	Close() error
}

// AmendablePaths is the allowed-path set for operator amendments. Identity
// and timestamps are not amendable.
func AmendablePaths() map[string]bool {
	return patch.AllowSet("/name", "/email", "/phone", "/date")
}

// FromRecord builds an appointment from a completed form record.
func FromRecord(rec *form.Record, sessionID string, at time.Time) (*Appointment, error) {
	if rec == nil || !rec.Complete() {
		return nil, errors.New("record is not complete")
	}
	return &Appointment{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Name:      rec.Normalized(form.FieldName),
		Email:     rec.Normalized(form.FieldEmail),
		Phone:     rec.Normalized(form.FieldPhone),
		Date:      rec.Normalized(form.FieldDate),
		CreatedAt: at,
		UpdatedAt: at,
	}, nil
}

func validateStored(appt *Appointment) error {
	if appt == nil {
		return errors.New("nil appointment")
	}
	if appt.ID == "" {
		return errors.New("appointment has no ID")
	}
	if appt.Name == "" || appt.Email == "" || appt.Phone == "" || appt.Date == "" {
		return errors.New("appointment has empty fields")
	}
	return nil
}

// normalizeAmended re-runs the extractors on an amended appointment so
// operator edits obey the same rules as user input. Values are replaced with
// their normalized forms.
func normalizeAmended(appt *Appointment) error {
	rules := extract.DefaultRules()

	v := extract.Name(appt.Name, rules)
	if !v.Valid {
		return fmt.Errorf("amended name rejected: %s", v.Reason)
	}
	appt.Name = v.Normalized

	v = extract.Email(appt.Email)
	if !v.Valid {
		return fmt.Errorf("amended email rejected: %s", v.Reason)
	}
	appt.Email = v.Normalized

	v = extract.Phone(appt.Phone, rules)
	if !v.Valid {
		return fmt.Errorf("amended phone rejected: %s", v.Reason)
	}
	appt.Phone = v.Normalized

	if _, err := time.Parse("2006-01-02", appt.Date); err != nil {
		return fmt.Errorf("amended date rejected: %q is not a YYYY-MM-DD date", appt.Date)
	}
	return nil
}
