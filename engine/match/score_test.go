package match

import (
	"math"
	"testing"

	"github.com/StafflyAI/staffly-mvp/engine/semantic"
)

func TestCertaintyScoreRange(t *testing.T) {
	for c := 0.0; c <= 1.0; c += 0.01 {
		s := CertaintyScore(c, 90.0)
		if s < 0 || s > 90.0 {
			t.Fatalf("CertaintyScore(%v) = %v, want [0, 90]", c, s)
		}
	}
}

func TestCertaintyScoreCap(t *testing.T) {
	if got := CertaintyScore(0.95, 90.0); got != 90.0 {
		t.Errorf("certainty 0.95 should cap at 90.0, got %v", got)
	}
	if got := CertaintyScore(1.0, 90.0); got != 90.0 {
		t.Errorf("certainty 1.0 should cap at 90.0, got %v", got)
	}
	if got := CertaintyScore(0.754, 90.0); got != 75.4 {
		t.Errorf("expected one-decimal rounding 75.4, got %v", got)
	}
}

func TestDistanceScoreMonotone(t *testing.T) {
	prev := math.Inf(1)
	for d := 0.0; d <= 2.0; d += 0.01 {
		s := DistanceScore(d)
		if s < 0 || s > 100 {
			t.Fatalf("DistanceScore(%v) = %v, want [0, 100]", d, s)
		}
		if s > prev {
			t.Fatalf("DistanceScore not monotone at d=%v: %v > %v", d, s, prev)
		}
		prev = s
	}
	if DistanceScore(0) != 100 {
		t.Errorf("identical vectors should score 100, got %v", DistanceScore(0))
	}
	if DistanceScore(2) != 0 {
		t.Errorf("opposite vectors should score 0, got %v", DistanceScore(2))
	}
}

func TestPoolScoresDistinct(t *testing.T) {
	scores := PoolScores([]float64{0.9, 0.5, 0.5, 0.2})
	if scores[0] != 100 {
		t.Errorf("pool max should score 100, got %v", scores[0])
	}
	if scores[3] != 0 {
		t.Errorf("pool min should score 0, got %v", scores[3])
	}
	if scores[1] != scores[2] {
		t.Errorf("equal certainties should score equally: %v vs %v", scores[1], scores[2])
	}
}

func TestPoolScoresDegenerate(t *testing.T) {
	// All equal: plain percentage, not forced to 0 or 100.
	scores := PoolScores([]float64{0.7, 0.7, 0.7})
	for _, s := range scores {
		if s != 70.0 {
			t.Errorf("degenerate pool member should score 70.0, got %v", s)
		}
	}

	if got := PoolScores(nil); got != nil {
		t.Errorf("empty pool should yield nil, got %v", got)
	}
}

func TestNormalizerMissingMetric(t *testing.T) {
	n := Normalizer{Mode: ModeCertainty, Cap: 90.0, MinCertainty: 0.2}
	hits := []semantic.Hit{
		{Score: 0.8, Scored: true},
		{Scored: false}, // metric absent: treated as the threshold
		{Score: math.NaN(), Scored: true},
	}
	scores := n.Scores(hits)
	if scores[0] != 80.0 {
		t.Errorf("scored hit: want 80.0, got %v", scores[0])
	}
	if scores[1] != 20.0 || scores[2] != 20.0 {
		t.Errorf("missing metric should score as threshold (20.0), got %v, %v", scores[1], scores[2])
	}
}

func TestNormalizerPoolMode(t *testing.T) {
	n := Normalizer{Mode: ModeCertainty, Cap: 90.0, MinCertainty: 0.3, PoolNormalize: true}
	// Pool after thresholding at 0.3: [0.9, 0.5, 0.5].
	scores := n.Scores([]semantic.Hit{
		{Score: 0.9, Scored: true},
		{Score: 0.5, Scored: true},
		{Score: 0.5, Scored: true},
	})
	want := []float64{100, 0, 0}
	for i := range want {
		if scores[i] != want[i] {
			t.Errorf("pool scores[%d] = %v, want %v", i, scores[i], want[i])
		}
	}
}

func TestNormalizerDistanceMode(t *testing.T) {
	n := Normalizer{Mode: ModeDistance, MinCertainty: 0.2}
	scores := n.Scores([]semantic.Hit{
		{Score: 0.1, Scored: true},
		{Score: 1.5, Scored: true},
	})
	if scores[0] != 90.0 {
		t.Errorf("distance 0.1: want 90.0, got %v", scores[0])
	}
	if scores[1] != 0.0 {
		t.Errorf("distance 1.5: want 0.0, got %v", scores[1])
	}
}
