package domain

import (
	"errors"
	"testing"
)

func TestValidateMatchRequest(t *testing.T) {
	if err := ValidateMatchRequest("frontend developer", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := ValidateMatchRequest("   ", 3)
	if !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}

	err = ValidateMatchRequest("backend", 0)
	if !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
	err = ValidateMatchRequest("backend", -1)
	if !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
}

func TestValidateID(t *testing.T) {
	if err := ValidateID("2b4f6d8e-1111-4222-8333-abcdefabcdef"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, bad := range []string{"", "../etc/passwd", "a/b", `a\b`} {
		if err := ValidateID(bad); !errors.Is(err, ErrInvalidID) {
			t.Errorf("ValidateID(%q): expected ErrInvalidID, got %v", bad, err)
		}
	}
}

func TestValidateProfile(t *testing.T) {
	p := ConsultantProfile{
		ID:           "id-1",
		Name:         "Dana Keller",
		Skills:       []string{"Go", "Kubernetes"},
		Availability: Available,
	}
	if err := ValidateProfile(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p.Name = "  "
	if err := ValidateProfile(p); !errors.Is(err, ErrMissingName) {
		t.Errorf("expected ErrMissingName, got %v", err)
	}

	p.Name = "Dana Keller"
	p.Availability = "on-vacation"
	if err := ValidateProfile(p); !errors.Is(err, ErrInvalidAvailability) {
		t.Errorf("expected ErrInvalidAvailability, got %v", err)
	}
}

func TestNormalizeProfile(t *testing.T) {
	p := NormalizeProfile(ConsultantProfile{
		ID:     "id-1",
		Name:   "  Dana Keller ",
		Skills: []string{" Go", "go", "React", "", "React "},
	})

	if p.Name != "Dana Keller" {
		t.Errorf("name not trimmed: %q", p.Name)
	}
	if p.Availability != Available {
		t.Errorf("expected default availability, got %q", p.Availability)
	}
	if len(p.Skills) != 2 || p.Skills[0] != "Go" || p.Skills[1] != "React" {
		t.Errorf("skills not deduplicated: %v", p.Skills)
	}
}

func TestValidationErrorUnwrap(t *testing.T) {
	err := NewValidationError("query", "", ErrEmptyQuery)
	if !errors.Is(err, ErrEmptyQuery) {
		t.Error("ValidationError should unwrap to its sentinel")
	}
	if err.Error() == "" {
		t.Error("empty error string")
	}
}
