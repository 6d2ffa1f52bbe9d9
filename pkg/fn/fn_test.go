package fn

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
)

func TestResultOkErr(t *testing.T) {
	r := Ok(42)
	if !r.IsOk() || r.IsErr() {
		t.Fatal("Ok should be ok")
	}
	v, err := r.Unwrap()
	if v != 42 || err != nil {
		t.Fatal("wrong unwrap")
	}

	e := Err[int](errors.New("fail"))
	if e.IsOk() || !e.IsErr() {
		t.Fatal("Err should be err")
	}
	if e.UnwrapOr(9) != 9 {
		t.Fatal("UnwrapOr should return fallback")
	}
}

func TestFromPair(t *testing.T) {
	if FromPair(1, nil).IsErr() {
		t.Fatal("nil error should be ok")
	}
	if FromPair(0, errors.New("x")).IsOk() {
		t.Fatal("non-nil error should be err")
	}
}

func TestCollect(t *testing.T) {
	all := []Result[int]{Ok(1), Ok(2), Ok(3)}
	vals, err := Collect(all).Unwrap()
	if err != nil || len(vals) != 3 || vals[1] != 2 {
		t.Fatalf("Collect ok failed: %v %v", vals, err)
	}

	mixed := []Result[int]{Ok(1), Err[int](errors.New("boom")), Ok(3)}
	if Collect(mixed).IsOk() {
		t.Fatal("Collect should fail on first error")
	}
}

func TestSuccessesPreservesOrder(t *testing.T) {
	results := []Result[string]{
		Ok("a"),
		Err[string](errors.New("x")),
		Ok("b"),
		Err[string](errors.New("y")),
		Ok("c"),
	}
	got := Successes(results)
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("wrong successes: %v", got)
	}
}

func TestParMapResultSettlesAll(t *testing.T) {
	items := []int{0, 1, 2, 3, 4}
	var calls atomic.Int32
	out := ParMapResult(items, 2, func(n int) Result[string] {
		calls.Add(1)
		if n%2 == 1 {
			return Errf[string]("odd %d", n)
		}
		return Ok(strconv.Itoa(n))
	})
	if calls.Load() != 5 {
		t.Fatalf("expected all 5 tasks to run, got %d", calls.Load())
	}
	if len(out) != 5 {
		t.Fatalf("expected 5 results, got %d", len(out))
	}
	// Order of results matches input order regardless of scheduling.
	for i, r := range out {
		if i%2 == 0 && r.IsErr() {
			t.Errorf("result %d should be ok", i)
		}
		if i%2 == 1 && r.IsOk() {
			t.Errorf("result %d should be err", i)
		}
	}
	if v, _ := out[4].Unwrap(); v != "4" {
		t.Errorf("result 4 = %q", v)
	}
}

func TestParMapEmpty(t *testing.T) {
	out := ParMap(nil, 4, func(n int) int { return n })
	if len(out) != 0 {
		t.Fatal("empty input should yield empty output")
	}
}

func TestThenShortCircuits(t *testing.T) {
	first := func(_ context.Context, n int) Result[int] {
		return Err[int](errors.New("stop"))
	}
	var called bool
	second := func(_ context.Context, n int) Result[int] {
		called = true
		return Ok(n)
	}
	r := Then(first, second)(context.Background(), 1)
	if r.IsOk() || called {
		t.Fatal("second stage should not run after failure")
	}
}

func TestMapStage(t *testing.T) {
	double := MapStage(func(n int) int { return n * 2 })
	v, err := double(context.Background(), 21).Unwrap()
	if err != nil || v != 42 {
		t.Fatalf("MapStage = %d, %v", v, err)
	}
}
