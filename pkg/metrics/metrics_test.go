package metrics

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestCounterAndGauge(t *testing.T) {
	r := New()
	c := r.Counter("requests_total", "Total requests")
	c.Inc()
	c.Add(2)
	if c.Value() != 3 {
		t.Errorf("counter: want 3, got %d", c.Value())
	}

	g := r.Gauge("queue_depth", "Current queue depth")
	g.Set(10)
	g.Inc()
	g.Dec()
	if g.Value() != 10 {
		t.Errorf("gauge: want 10, got %d", g.Value())
	}
}

func TestCounterIsShared(t *testing.T) {
	r := New()
	a := r.Counter("hits", "")
	b := r.Counter("hits", "")
	a.Inc()
	if b.Value() != 1 {
		t.Error("same name must return the same counter")
	}
}

func TestWithLabels(t *testing.T) {
	if got := WithLabels("hits", "path", "/match"); got != `hits{path="/match"}` {
		t.Errorf("WithLabels: %s", got)
	}
	if got := WithLabels("hits"); got != "hits" {
		t.Errorf("no labels should return the bare name: %s", got)
	}
	if got := WithLabels("hits", "odd"); got != "hits" {
		t.Errorf("odd label pairs should be ignored: %s", got)
	}
}

func TestRender(t *testing.T) {
	r := New()
	r.Counter("requests_total", "Total requests").Add(5)
	r.Counter(WithLabels("requests_total", "code", "500"), "").Inc()
	r.Gauge("up", "Service up").Set(1)
	r.Histogram("latency_seconds", "Request latency", []float64{0.1, 1}).Observe(0.05)

	out := r.Render()
	for _, want := range []string{
		"# TYPE requests_total counter",
		"requests_total 5",
		`requests_total{code="500"} 1`,
		"# TYPE up gauge",
		"up 1",
		"# TYPE latency_seconds histogram",
		`latency_seconds_bucket{le="0.1"} 1`,
		`latency_seconds_bucket{le="+Inf"} 1`,
		"latency_seconds_count 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("render output missing %q:\n%s", want, out)
		}
	}
}

func TestHistogramCumulativeBuckets(t *testing.T) {
	r := New()
	h := r.Histogram("d", "", []float64{1, 2, 5})
	for _, v := range []float64{0.5, 1.5, 1.7, 4, 100} {
		h.Observe(v)
	}
	out := r.Render()
	for _, want := range []string{
		`d_bucket{le="1"} 1`,
		`d_bucket{le="2"} 3`,
		`d_bucket{le="5"} 4`,
		`d_bucket{le="+Inf"} 5`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestHandler(t *testing.T) {
	r := New()
	r.Counter("x_total", "").Inc()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type: %s", ct)
	}
	if !strings.Contains(rec.Body.String(), "x_total 1") {
		t.Errorf("body missing metric:\n%s", rec.Body.String())
	}
}

func TestConcurrentAccess(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Counter("c", "").Inc()
				r.Histogram("h", "", nil).Observe(0.1)
				_ = r.Render()
			}
		}()
	}
	wg.Wait()
	if got := r.Counter("c", "").Value(); got != 800 {
		t.Errorf("counter after concurrent increments: %d", got)
	}
}
