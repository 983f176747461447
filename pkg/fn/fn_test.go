package fn

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func TestResult(t *testing.T) {
	ok := Ok(42)
	if !ok.IsOk() || ok.IsErr() {
		t.Error("Ok result misreports state")
	}
	if v, err := ok.Unwrap(); v != 42 || err != nil {
		t.Errorf("Unwrap: got %v, %v", v, err)
	}

	boom := errors.New("boom")
	bad := Err[int](boom)
	if bad.IsOk() || !bad.IsErr() {
		t.Error("Err result misreports state")
	}
	if v := bad.UnwrapOr(7); v != 7 {
		t.Errorf("UnwrapOr: got %v", v)
	}

	if r := FromPair(1, nil); r.IsErr() {
		t.Error("FromPair with nil error should be Ok")
	}
	if r := FromPair(0, boom); r.IsOk() {
		t.Error("FromPair with error should be Err")
	}
}

func TestMapResult(t *testing.T) {
	doubled := MapResult(Ok(3), func(v int) int { return v * 2 })
	if v, _ := doubled.Unwrap(); v != 6 {
		t.Errorf("MapResult: got %v", v)
	}
	failed := MapResult(Err[int](errors.New("x")), func(v int) int { return v * 2 })
	if failed.IsOk() {
		t.Error("MapResult must propagate errors")
	}
}

func TestCollect(t *testing.T) {
	all, err := Collect([]Result[int]{Ok(1), Ok(2), Ok(3)}).Unwrap()
	if err != nil || !reflect.DeepEqual(all, []int{1, 2, 3}) {
		t.Errorf("Collect: got %v, %v", all, err)
	}

	boom := errors.New("boom")
	if _, err := Collect([]Result[int]{Ok(1), Err[int](boom)}).Unwrap(); !errors.Is(err, boom) {
		t.Errorf("Collect should return the first error, got %v", err)
	}
}

func TestThenShortCircuits(t *testing.T) {
	boom := errors.New("boom")
	first := func(_ context.Context, v int) Result[int] { return Err[int](boom) }
	var secondRan bool
	second := func(_ context.Context, v int) Result[string] {
		secondRan = true
		return Ok(fmt.Sprint(v))
	}

	r := Then(first, second)(context.Background(), 1)
	if _, err := r.Unwrap(); !errors.Is(err, boom) {
		t.Errorf("expected first stage error, got %v", err)
	}
	if secondRan {
		t.Error("second stage must not run after a failure")
	}
}

func TestThenChains(t *testing.T) {
	double := func(_ context.Context, v int) Result[int] { return Ok(v * 2) }
	str := func(_ context.Context, v int) Result[string] { return Ok(fmt.Sprint(v)) }

	v, err := Then(double, str)(context.Background(), 21).Unwrap()
	if err != nil || v != "42" {
		t.Errorf("got %q, %v", v, err)
	}
}

func TestParMapPreservesOrder(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}
	out := ParMap(items, 8, func(v int) int { return v * v })
	for i, v := range out {
		if v != i*i {
			t.Fatalf("out[%d] = %d, want %d", i, v, i*i)
		}
	}
}

func TestParMapBoundsConcurrency(t *testing.T) {
	var current, peak int64
	items := make([]int, 50)
	ParMap(items, 4, func(int) int {
		n := atomic.AddInt64(&current, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt64(&current, -1)
		return 0
	})
	if peak > 4 {
		t.Errorf("concurrency exceeded bound: peak %d", peak)
	}
}

func TestParMapResultAligned(t *testing.T) {
	out := ParMapResult([]int{1, 2, 3}, 2, func(v int) Result[int] {
		if v == 2 {
			return Err[int](errors.New("two"))
		}
		return Ok(v * 10)
	})
	if len(out) != 3 {
		t.Fatalf("expected 3 results, got %d", len(out))
	}
	if v, _ := out[0].Unwrap(); v != 10 {
		t.Errorf("out[0]: got %v", v)
	}
	if out[1].IsOk() {
		t.Error("out[1] should carry the error")
	}
	if v, _ := out[2].Unwrap(); v != 30 {
		t.Errorf("out[2]: got %v", v)
	}
}

func TestSliceHelpers(t *testing.T) {
	if got := Map([]int{1, 2, 3}, func(v int) int { return v + 1 }); !reflect.DeepEqual(got, []int{2, 3, 4}) {
		t.Errorf("Map: %v", got)
	}
	if got := Filter([]int{1, 2, 3, 4}, func(v int) bool { return v%2 == 0 }); !reflect.DeepEqual(got, []int{2, 4}) {
		t.Errorf("Filter: %v", got)
	}
	if got := Unique([]string{"a", "b", "a", "c", "b"}); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Unique: %v", got)
	}
}

func TestChunk(t *testing.T) {
	got := Chunk([]int{1, 2, 3, 4, 5}, 2)
	want := [][]int{{1, 2}, {3, 4}, {5}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Chunk: %v", got)
	}
	if Chunk([]int{1}, 0) != nil {
		t.Error("Chunk with n <= 0 should be nil")
	}
}

func TestRetryEventuallySucceeds(t *testing.T) {
	attempts := 0
	opts := RetryOpts{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 5 * time.Millisecond}
	r := Retry(context.Background(), opts, func(_ context.Context) Result[int] {
		attempts++
		if attempts < 3 {
			return Err[int](errors.New("flaky"))
		}
		return Ok(99)
	})
	if v, err := r.Unwrap(); err != nil || v != 99 {
		t.Errorf("got %v, %v", v, err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryExhausts(t *testing.T) {
	boom := errors.New("persistent")
	opts := RetryOpts{MaxAttempts: 2, InitialWait: time.Millisecond, MaxWait: time.Millisecond}
	r := Retry(context.Background(), opts, func(_ context.Context) Result[int] {
		return Err[int](boom)
	})
	if _, err := r.Unwrap(); !errors.Is(err, boom) {
		t.Errorf("expected final error, got %v", err)
	}
}

func TestRetryHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	opts := RetryOpts{MaxAttempts: 5, InitialWait: time.Hour, MaxWait: time.Hour}
	r := Retry(ctx, opts, func(_ context.Context) Result[int] {
		return Err[int](errors.New("flaky"))
	})
	if _, err := r.Unwrap(); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
