package batch

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"
)

func TestRunKeepsOrder(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5, 6}
	got, err := Run(context.Background(), items, 3, 0, func(_ context.Context, n int) (string, error) {
		return strconv.Itoa(n * 10), nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(got))
	}
	for i, s := range got {
		if want := strconv.Itoa(i * 10); s != want {
			t.Errorf("result[%d] = %q, want %q", i, s, want)
		}
	}
}

func TestRunBatchBoundaries(t *testing.T) {
	var mu sync.Mutex
	var processed []int

	items := []int{0, 1, 2, 3, 4}
	_, err := Run(context.Background(), items, 2, time.Millisecond, func(_ context.Context, n int) (int, error) {
		mu.Lock()
		processed = append(processed, n)
		mu.Unlock()
		return n, nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// 5 items at size 2 means the final batch holds one item.
	if len(processed) != 5 {
		t.Errorf("expected all 5 items processed, got %d", len(processed))
	}
}

func TestRunPropagatesError(t *testing.T) {
	boom := errors.New("quota exhausted")
	_, err := Run(context.Background(), []int{1, 2, 3}, 2, 0, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped quota error, got %v", err)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, []int{1, 2, 3, 4}, 1, time.Hour, func(context.Context, int) (int, error) {
		return 0, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunEmptyInput(t *testing.T) {
	got, err := Run(context.Background(), nil, 5, 0, func(context.Context, int) (int, error) {
		t.Error("fn should not run for empty input")
		return 0, nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty results, got %d", len(got))
	}
}

func TestRunZeroSizeDefaultsToOne(t *testing.T) {
	got, err := Run(context.Background(), []int{7, 8}, 0, 0, func(_ context.Context, n int) (int, error) {
		return n + 1, nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got[0] != 8 || got[1] != 9 {
		t.Errorf("unexpected results %v", got)
	}
}
