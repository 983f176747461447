// Package domain defines core domain types, constants, and validation for the
// Staffly matching pipeline. It acts as the validation gate at pipeline entry points.
package domain

// Availability describes whether a consultant can take on new work.
type Availability string

const (
	Available   Availability = "available"
	Busy        Availability = "busy"
	Unavailable Availability = "unavailable"
)

// ValidAvailabilities is the set of recognised availability states.
var ValidAvailabilities = map[Availability]bool{
	Available: true, Busy: true, Unavailable: true,
}

// ConsultantProfile is a consultant as stored in the vector backend.
// The ID is assigned once at ingestion and never reused.
type ConsultantProfile struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	Phone        string       `json:"phone"`
	Skills       []string     `json:"skills"`
	Availability Availability `json:"availability"`
	Experience   string       `json:"experience"`
	Education    string       `json:"education"`
}

// Candidate is a profile prepared for presentation: scored against one
// query and annotated with the ID of a stored resume, if any. MatchScore
// is derived per query and never written back to the backend.
type Candidate struct {
	ConsultantProfile
	MatchScore float64 `json:"matchScore"`
	ResumeID   string  `json:"resumeId,omitempty"`
}

// RoleSpec describes one kind of candidate to search for within a batch.
// Produced by the conversation extractor or supplied directly by a caller.
type RoleSpec struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Query          string   `json:"query"`
	RequiredSkills []string `json:"requiredSkills"`
}

// RoleMatch pairs a RoleSpec with its ranked candidates, highest score
// first. Candidates is always non-nil, possibly empty.
type RoleMatch struct {
	Role       RoleSpec    `json:"role"`
	Candidates []Candidate `json:"candidates"`
}

// ChatMessage is one turn of a conversation transcript.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Chat message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
