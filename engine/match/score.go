package match

import (
	"math"

	"github.com/StafflyAI/staffly-mvp/engine/semantic"
)

// MetricMode identifies the similarity convention the backend is
// configured with. Exactly one convention is in effect per deployment.
type MetricMode string

const (
	// ModeCertainty: higher raw values mean more similar, roughly [0,1].
	ModeCertainty MetricMode = "certainty"
	// ModeDistance: cosine distance, 0 means identical, larger means
	// less similar.
	ModeDistance MetricMode = "distance"
)

// Normalizer converts raw similarity metrics into presentation scores
// in [0,100], comparable within one query's result pool.
type Normalizer struct {
	// Mode is the metric convention in effect.
	Mode MetricMode
	// Cap bounds certainty-mode scores. Perfect similarity scores are
	// misleadingly rare and must not be presented as 100% confidence.
	Cap float64
	// MinCertainty substitutes for a missing or unparseable raw metric.
	MinCertainty float64
	// PoolNormalize rescales certainty scores across the result pool
	// instead of applying the hard cap.
	PoolNormalize bool
}

// Scores computes a match score for every hit in the pool. The whole
// pool must be passed at once: pool normalization depends on the pool's
// min and max, and truncating before scoring would bias the ranking.
func (n Normalizer) Scores(hits []semantic.Hit) []float64 {
	raws := make([]float64, len(hits))
	for i, h := range hits {
		raws[i] = n.raw(h)
	}

	if n.Mode == ModeDistance {
		out := make([]float64, len(raws))
		for i, d := range raws {
			out[i] = DistanceScore(d)
		}
		return out
	}

	if n.PoolNormalize {
		return PoolScores(raws)
	}

	out := make([]float64, len(raws))
	for i, c := range raws {
		out[i] = CertaintyScore(c, n.Cap)
	}
	return out
}

// raw returns the usable raw metric for a hit, substituting the
// minimum acceptable threshold when the backend omitted the metric.
func (n Normalizer) raw(h semantic.Hit) float64 {
	if !h.Scored || math.IsNaN(h.Score) || math.IsInf(h.Score, 0) {
		return n.MinCertainty
	}
	return h.Score
}

// CertaintyScore maps a certainty in [0,1] to a capped percentage.
func CertaintyScore(c, cap float64) float64 {
	return math.Min(round1(c*100), cap)
}

// DistanceScore maps a cosine distance to a percentage: similarity is
// clamp(1-d, 0, 1). Monotonically non-increasing in d.
func DistanceScore(d float64) float64 {
	sim := 1 - d
	if sim < 0 {
		sim = 0
	} else if sim > 1 {
		sim = 1
	}
	return round1(sim * 100)
}

// PoolScores rescales a pool of certainties to [0,100] relative to the
// pool's own min and max. A degenerate pool (all values equal) falls
// back to the plain percentage so every member isn't forced to 0 or 100.
func PoolScores(cs []float64) []float64 {
	if len(cs) == 0 {
		return nil
	}
	lo, hi := cs[0], cs[0]
	for _, c := range cs[1:] {
		lo = math.Min(lo, c)
		hi = math.Max(hi, c)
	}

	out := make([]float64, len(cs))
	if hi > lo {
		for i, c := range cs {
			out[i] = round1(100 * (c - lo) / (hi - lo))
		}
		return out
	}
	for i, c := range cs {
		out[i] = round1(c * 100)
	}
	return out
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
