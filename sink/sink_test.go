package sink

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tbxark/apptagent/form"
	"github.com/tbxark/apptagent/patch"
)

var sinkRef = time.Date(2026, 3, 11, 9, 30, 0, 0, time.UTC)

// Both stores must behave identically through the Store interface, so every
// test runs against each backend.
func withStores(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) {
		s := NewMemory()
		defer s.Close()
		fn(t, s)
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := NewSQLite(filepath.Join(t.TempDir(), "appointments.db"))
		if err != nil {
			t.Fatalf("NewSQLite: %v", err)
		}
		defer s.Close()
		fn(t, s)
	})
}

func testAppointment(id string) *Appointment {
	return &Appointment{
		ID:        id,
		SessionID: "s1",
		Name:      "John Smith",
		Email:     "john@smith.com",
		Phone:     "+15551234567",
		Date:      "2026-03-13",
		CreatedAt: sinkRef,
		UpdatedAt: sinkRef,
	}
}

func TestFromRecord(t *testing.T) {
	eng := form.NewEngine()
	rec, _ := eng.Start(form.BookingFields(), sinkRef)
	if _, err := FromRecord(rec, "s1", sinkRef); err == nil {
		t.Error("incomplete record should not convert")
	}

	for _, input := range []string{"john smith", "John@Smith.com", "(555) 123-4567", "next friday"} {
		if _, err := eng.Submit(rec, input, sinkRef); err != nil {
			t.Fatalf("Submit(%q): %v", input, err)
		}
	}

	appt, err := FromRecord(rec, "s1", sinkRef)
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if appt.ID == "" {
		t.Error("appointment should get an ID")
	}
	if appt.Name != "John Smith" || appt.Email != "john@smith.com" ||
		appt.Phone != "5551234567" || appt.Date != "2026-03-13" {
		t.Errorf("normalized values wrong: %+v", appt)
	}
	if appt.SessionID != "s1" || !appt.CreatedAt.Equal(sinkRef) {
		t.Errorf("metadata wrong: %+v", appt)
	}
}

func TestStoreAndGet(t *testing.T) {
	withStores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		appt := testAppointment("a1")
		if err := s.Store(ctx, appt); err != nil {
			t.Fatalf("Store: %v", err)
		}

		got, err := s.Get(ctx, "a1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got == nil {
			t.Fatal("stored appointment not found")
		}
		if got.Name != "John Smith" || got.Email != "john@smith.com" ||
			got.Phone != "+15551234567" || got.Date != "2026-03-13" || got.SessionID != "s1" {
			t.Errorf("got %+v", got)
		}
		if !got.CreatedAt.Equal(sinkRef) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, sinkRef)
		}

		missing, err := s.Get(ctx, "nope")
		if err != nil {
			t.Fatalf("Get missing: %v", err)
		}
		if missing != nil {
			t.Errorf("unknown ID should return nil, got %+v", missing)
		}
	})
}

func TestStoreAssignsID(t *testing.T) {
	withStores(t, func(t *testing.T, s Store) {
		appt := testAppointment("")
		if err := s.Store(context.Background(), appt); err != nil {
			t.Fatalf("Store: %v", err)
		}
		if appt.ID == "" {
			t.Error("Store should assign an ID when missing")
		}
	})
}

func TestStoreRejectsEmptyFields(t *testing.T) {
	withStores(t, func(t *testing.T, s Store) {
		appt := testAppointment("a1")
		appt.Email = ""
		if err := s.Store(context.Background(), appt); err == nil {
			t.Error("empty email should be rejected")
		}
	})
}

func TestListOrdersByDate(t *testing.T) {
	withStores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		later := testAppointment("a-later")
		later.Date = "2026-03-20"
		earlier := testAppointment("a-earlier")
		earlier.Date = "2026-03-12"
		if err := s.Store(ctx, later); err != nil {
			t.Fatal(err)
		}
		if err := s.Store(ctx, earlier); err != nil {
			t.Fatal(err)
		}

		got, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("listed %d, want 2", len(got))
		}
		if got[0].ID != "a-earlier" || got[1].ID != "a-later" {
			t.Errorf("wrong order: %s, %s", got[0].ID, got[1].ID)
		}
	})
}

func TestSearch(t *testing.T) {
	withStores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		smith := testAppointment("a1")
		doe := testAppointment("a2")
		doe.Name = "Jane Doe"
		doe.Email = "jane@doe.org"
		doe.Phone = "+15559876543"
		if err := s.Store(ctx, smith); err != nil {
			t.Fatal(err)
		}
		if err := s.Store(ctx, doe); err != nil {
			t.Fatal(err)
		}

		got, err := s.Search(ctx, "smith")
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(got) != 1 || got[0].ID != "a1" {
			t.Errorf("Search(smith) = %+v", got)
		}

		got, err = s.Search(ctx, "doe.org")
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(got) != 1 || got[0].ID != "a2" {
			t.Errorf("Search(doe.org) = %+v", got)
		}

		got, err = s.Search(ctx, "zzz")
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("Search(zzz) = %+v", got)
		}
	})
}

func TestAmend(t *testing.T) {
	withStores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.Store(ctx, testAppointment("a1")); err != nil {
			t.Fatal(err)
		}

		got, err := s.Amend(ctx, "a1", []patch.Operation{
			{Op: patch.OperationReplace, Path: "/email", Value: "John.NEW@Smith.com"},
			{Op: patch.OperationReplace, Path: "/date", Value: "2026-04-01"},
		})
		if err != nil {
			t.Fatalf("Amend: %v", err)
		}
		if got.Email != "john.new@smith.com" {
			t.Errorf("amended email should be normalized, got %q", got.Email)
		}
		if got.Date != "2026-04-01" || got.Name != "John Smith" {
			t.Errorf("got %+v", got)
		}
		if got.ID != "a1" || got.SessionID != "s1" || !got.CreatedAt.Equal(sinkRef) {
			t.Errorf("identity fields must survive amendment: %+v", got)
		}

		stored, _ := s.Get(ctx, "a1")
		if stored.Email != "john.new@smith.com" {
			t.Errorf("amendment not persisted: %+v", stored)
		}
	})
}

func TestAmendRejectsForbiddenPath(t *testing.T) {
	withStores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.Store(ctx, testAppointment("a1")); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Amend(ctx, "a1", []patch.Operation{
			{Op: patch.OperationReplace, Path: "/id", Value: "evil"},
		}); err == nil {
			t.Error("amending /id should be rejected")
		}
		if _, err := s.Amend(ctx, "a1", []patch.Operation{
			{Op: patch.OperationReplace, Path: "/session_id", Value: "other"},
		}); err == nil {
			t.Error("amending /session_id should be rejected")
		}
	})
}

func TestAmendRejectsInvalidValue(t *testing.T) {
	withStores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.Store(ctx, testAppointment("a1")); err != nil {
			t.Fatal(err)
		}

		if _, err := s.Amend(ctx, "a1", []patch.Operation{
			{Op: patch.OperationReplace, Path: "/email", Value: "not-an-email"},
		}); err == nil {
			t.Error("invalid amended email should be rejected")
		}
		if _, err := s.Amend(ctx, "a1", []patch.Operation{
			{Op: patch.OperationReplace, Path: "/date", Value: "soonish"},
		}); err == nil {
			t.Error("invalid amended date should be rejected")
		}

		stored, _ := s.Get(ctx, "a1")
		if stored.Email != "john@smith.com" || stored.Date != "2026-03-13" {
			t.Errorf("failed amendment must not change the record: %+v", stored)
		}
	})
}

func TestAmendUnknownID(t *testing.T) {
	withStores(t, func(t *testing.T, s Store) {
		_, err := s.Amend(context.Background(), "nope", []patch.Operation{
			{Op: patch.OperationReplace, Path: "/email", Value: "a@b.com"},
		})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}
