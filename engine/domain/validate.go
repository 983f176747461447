package domain

import (
	"fmt"
	"strings"
)

// Consultant IDs are UUIDs; anything containing a path separator or a
// parent reference is rejected before it can reach the document store.
func idSuspicious(id string) bool {
	return id == "" ||
		strings.ContainsAny(id, `/\`) ||
		strings.Contains(id, "..")
}

// ValidateID checks a consultant identifier.
func ValidateID(id string) error {
	if idSuspicious(id) {
		return NewValidationError("id", id, ErrInvalidID)
	}
	return nil
}

// ValidateMatchRequest checks a single-query match request.
func ValidateMatchRequest(query string, limit int) error {
	if strings.TrimSpace(query) == "" {
		return NewValidationError("query", query, ErrEmptyQuery)
	}
	if limit <= 0 {
		return NewValidationError("limit", fmt.Sprintf("%d", limit), ErrInvalidLimit)
	}
	return nil
}

// ValidateProfile checks a consultant profile before it is stored.
func ValidateProfile(p ConsultantProfile) error {
	if err := ValidateID(p.ID); err != nil {
		return err
	}
	if strings.TrimSpace(p.Name) == "" {
		return NewValidationError("name", p.Name, ErrMissingName)
	}
	if p.Availability != "" && !ValidAvailabilities[p.Availability] {
		return NewValidationError("availability", string(p.Availability), ErrInvalidAvailability)
	}
	return nil
}

// NormalizeProfile fills defaults and trims whitespace on a profile.
// Skills are deduplicated preserving order.
func NormalizeProfile(p ConsultantProfile) ConsultantProfile {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Experience = strings.TrimSpace(p.Experience)
	p.Education = strings.TrimSpace(p.Education)
	if p.Availability == "" {
		p.Availability = Available
	}

	seen := make(map[string]bool, len(p.Skills))
	skills := make([]string, 0, len(p.Skills))
	for _, s := range p.Skills {
		s = strings.TrimSpace(s)
		if s == "" || seen[strings.ToLower(s)] {
			continue
		}
		seen[strings.ToLower(s)] = true
		skills = append(skills, s)
	}
	p.Skills = skills
	return p
}
