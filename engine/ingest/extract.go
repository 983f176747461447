package ingest

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/StafflyAI/staffly-mvp/engine/domain"
	"github.com/StafflyAI/staffly-mvp/pkg/llm"
)

// pdfText extracts the plain text of a PDF document.
func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("ingest: open pdf: %w", err)
	}
	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("ingest: read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("ingest: read pdf text: %w", err)
	}
	text := strings.TrimSpace(buf.String())
	if text == "" {
		return "", fmt.Errorf("ingest: %w: pdf has no extractable text", domain.ErrEmptyResume)
	}
	return text, nil
}

// Placeholder name pools for resumes where extraction finds no name.
// The trailing asterisk marks the name as generated.
var (
	placeholderFirst = []string{"Alex", "Sam", "Jordan", "Casey", "Morgan", "Taylor", "Riley", "Jamie"}
	placeholderLast  = []string{"Smith", "Johnson", "Lee", "Brown", "Garcia", "Miller", "Davis", "Wilson"}
)

// placeholderName derives a stable generated name from the upload ID.
func placeholderName(id string) string {
	h := fnv.New32a()
	h.Write([]byte(id))
	sum := h.Sum32()
	first := placeholderFirst[sum%uint32(len(placeholderFirst))]
	last := placeholderLast[(sum/uint32(len(placeholderFirst)))%uint32(len(placeholderLast))]
	return first + " " + last + "*"
}

// profileFromExtraction converts an extraction result into a stored
// consultant profile, filling in a placeholder name if needed.
func profileFromExtraction(id string, ex llm.ExtractedProfile) domain.ConsultantProfile {
	p := domain.ConsultantProfile{
		ID:         id,
		Name:       ex.Name,
		Email:      ex.Email,
		Phone:      ex.Phone,
		Skills:     ex.Skills,
		Experience: ex.Experience,
		Education:  ex.Education,
	}
	if strings.TrimSpace(p.Name) == "" {
		p.Name = placeholderName(id)
	}
	return domain.NormalizeProfile(p)
}

// profileText builds the text a profile is embedded under: the fields
// a role query would semantically match against.
func profileText(p domain.ConsultantProfile) string {
	var b strings.Builder
	b.WriteString(p.Name)
	if len(p.Skills) > 0 {
		b.WriteString("\nSkills: ")
		b.WriteString(strings.Join(p.Skills, ", "))
	}
	if p.Experience != "" {
		b.WriteString("\nExperience: ")
		b.WriteString(p.Experience)
	}
	if p.Education != "" {
		b.WriteString("\nEducation: ")
		b.WriteString(p.Education)
	}
	return b.String()
}
