package validate

import (
	"errors"
	"strings"
	"testing"

	"miragepos/infrastructure/apperr"
)

type sample struct {
	Name string  `validate:"required"`
	Qty  int64   `validate:"gt=0"`
	Kind string  `validate:"omitempty,oneof=fixed percent"`
	Cost float64 `validate:"gte=0"`
}

func TestStructReportsValidation(t *testing.T) {
	err := Struct(sample{Qty: 0, Kind: "bogus", Cost: -1})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, want := range []string{"Name is required", "Qty must be at least 0", "Kind must be one of", "Cost must be at least 0"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %q", want, err.Error())
		}
	}
}

func TestStructAcceptsValid(t *testing.T) {
	if err := Struct(sample{Name: "x", Qty: 1, Kind: "percent"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
