package validate

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type payload struct {
	Name  string `json:"name" validate:"required,notblank"`
	Email string `json:"email" validate:"omitempty,email"`
	Qty   int    `json:"quantity" validate:"gte=1"`
}

func TestCheck(t *testing.T) {
	if err := Check(payload{Name: "Mug", Qty: 1}); err != nil {
		t.Fatalf("expected a valid payload, got %s", err)
	}

	err := Check(payload{Name: "   ", Email: "nope", Qty: 0})

	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected field errors, got %v", err)
	}

	exp := FieldErrors{
		"name":     "name must not be blank",
		"email":    "email must be a valid email address",
		"quantity": "quantity must be 1 or greater",
	}
	if diff := cmp.Diff(exp, fe); diff != "" {
		t.Fatalf("unexpected errors (-want +got):\n%s", diff)
	}

	if got := fe.Error(); got != "email must be a valid email address; name must not be blank; quantity must be 1 or greater" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestCheckID(t *testing.T) {
	if err := CheckID(GenerateID()); err != nil {
		t.Fatalf("expected a generated id to be valid, got %s", err)
	}
	if err := CheckID("42"); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}
