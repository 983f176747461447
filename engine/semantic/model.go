package semantic

import "github.com/StafflyAI/staffly-mvp/engine/domain"

// Hit is a single vector search result: a stored profile plus the raw
// similarity metric reported by the backend. Scored is false for hits
// obtained without a vector search (scroll/fallback reads) or when the
// backend omitted the metric.
type Hit struct {
	Profile domain.ConsultantProfile
	Score   float64
	Scored  bool
}

// ProfileRecord is a profile plus its embedding, ready to upsert.
type ProfileRecord struct {
	Profile   domain.ConsultantProfile
	Embedding []float32
}
