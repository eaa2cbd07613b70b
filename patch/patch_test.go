package patch

import (
	"reflect"
	"strings"
	"testing"
)

type amendable struct {
	Name  string            `json:"name"`
	Email string            `json:"email"`
	Phone string            `json:"phone,omitempty"`
	Meta  map[string]string `json:"meta,omitempty"`
}

func TestApplyReplace(t *testing.T) {
	cur := amendable{Name: "John Smith", Email: "john@smith.com"}
	got, err := Apply(cur, []Operation{
		{Op: OperationReplace, Path: "/email", Value: "john.smith@corp.com"},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.Email != "john.smith@corp.com" || got.Name != "John Smith" {
		t.Errorf("got %+v", got)
	}
}

func TestApplyEmptyOpsIsNoop(t *testing.T) {
	cur := amendable{Name: "John Smith"}
	got, err := Apply(cur, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !reflect.DeepEqual(got, cur) {
		t.Errorf("got %+v, want unchanged", got)
	}
}

func TestApplyNormalizesReplaceOnMissingPath(t *testing.T) {
	// phone is omitempty, so it is absent from the marshaled document and a
	// strict replace would fail.
	cur := amendable{Name: "John Smith", Email: "john@smith.com"}
	got, err := Apply(cur, []Operation{
		{Op: OperationReplace, Path: "/phone", Value: "+15551234567"},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.Phone != "+15551234567" {
		t.Errorf("got %+v", got)
	}
}

func TestApplyDropsRemoveOnMissingPath(t *testing.T) {
	cur := amendable{Name: "John Smith", Email: "john@smith.com"}
	got, err := Apply(cur, []Operation{
		{Op: OperationRemove, Path: "/phone"},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.Name != "John Smith" {
		t.Errorf("got %+v", got)
	}
}

func TestApplyTypeMismatch(t *testing.T) {
	cur := amendable{Name: "John Smith"}
	if _, err := Apply(cur, []Operation{
		{Op: OperationReplace, Path: "/name", Value: map[string]int{"x": 1}},
	}); err == nil {
		t.Error("patching a string field to an object should error")
	}
}

func TestValidateOperations(t *testing.T) {
	allowed := AllowSet("/name", "/email", "/phone", "/date")

	ok := []Operation{
		{Op: OperationReplace, Path: "/name", Value: "Jane Doe"},
		{Op: OperationReplace, Path: "/date", Value: "2026-04-01"},
	}
	if err := ValidateOperations(ok, allowed); err != nil {
		t.Errorf("allowed paths rejected: %v", err)
	}

	bad := []Operation{
		{Op: OperationReplace, Path: "/name", Value: "Jane Doe"},
		{Op: OperationReplace, Path: "/status", Value: "confirmed"},
	}
	err := ValidateOperations(bad, allowed)
	if err == nil {
		t.Fatal("forbidden path accepted")
	}
	if want := "operation 1"; !strings.Contains(err.Error(), want) {
		t.Errorf("error should name the offending operation: %v", err)
	}
}

func TestValidateWildcardPaths(t *testing.T) {
	allowed := AllowSet("/slots/*/note")
	if err := ValidateOperations([]Operation{
		{Op: OperationReplace, Path: "/slots/2/note", Value: "moved"},
	}, allowed); err != nil {
		t.Errorf("wildcard index should match: %v", err)
	}
	if err := ValidateOperations([]Operation{
		{Op: OperationReplace, Path: "/slots/2/date", Value: "x"},
	}, allowed); err == nil {
		t.Error("non-matching leaf should be rejected")
	}
}

func TestValidateEmptyAllowSetAcceptsAll(t *testing.T) {
	if err := ValidateOperations([]Operation{
		{Op: OperationRemove, Path: "/anything"},
	}, nil); err != nil {
		t.Errorf("empty allow set should accept: %v", err)
	}
}

func TestDiffProducesMinimalOps(t *testing.T) {
	from := amendable{Name: "John Smith", Email: "john@smith.com", Phone: "+15551234567"}
	to := amendable{Name: "John Smith", Email: "john.smith@corp.com", Phone: "+15551234567"}

	ops, err := Diff(from, to)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	want := []Operation{{Op: OperationReplace, Path: "/email", Value: "john.smith@corp.com"}}
	if !reflect.DeepEqual(ops, want) {
		t.Errorf("ops = %+v, want %+v", ops, want)
	}
}

func TestDiffAddAndRemove(t *testing.T) {
	from := amendable{Name: "John Smith", Email: "a@b.com", Meta: map[string]string{"src": "web"}}
	to := amendable{Name: "John Smith", Email: "a@b.com", Phone: "+15551234567"}

	ops, err := Diff(from, to)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	var sawAdd, sawRemove bool
	for _, op := range ops {
		if op.Op == OperationAdd && op.Path == "/phone" {
			sawAdd = true
		}
		if op.Op == OperationRemove && op.Path == "/meta" {
			sawRemove = true
		}
	}
	if !sawAdd || !sawRemove {
		t.Errorf("ops = %+v, want add /phone and remove /meta", ops)
	}
}

func TestDiffThenApplyRoundTrips(t *testing.T) {
	from := amendable{Name: "John Smith", Email: "john@smith.com", Phone: "+15551234567"}
	to := amendable{Name: "Jane Doe", Email: "jane@doe.com"}

	ops, err := Diff(from, to)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	got, err := Apply(from, ops)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !reflect.DeepEqual(got, to) {
		t.Errorf("got %+v, want %+v", got, to)
	}
}
