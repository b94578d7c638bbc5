package capture

import (
	"context"
	"testing"
	"time"
)

// fakeList simulates a virtualized list that reveals a fixed increment per
// scroll until it runs out of items.
type fakeList struct {
	rendered  int
	total     int
	increment int
	scrolls   int
}

func (f *fakeList) count(context.Context) (int, error) { return f.rendered, nil }

func (f *fakeList) scroll(context.Context) error {
	f.scrolls++
	f.rendered += f.increment
	if f.rendered > f.total {
		f.rendered = f.total
	}
	return nil
}

func TestConverge_ReachesTarget(t *testing.T) {
	list := &fakeList{rendered: 10, total: 100, increment: 10}

	n, err := converge(context.Background(), 35, time.Millisecond, list.count, list.scroll)
	if err != nil {
		t.Fatalf("converge: %v", err)
	}
	if n < 35 {
		t.Fatalf("expected at least 35 rendered, got %d", n)
	}
	if list.scrolls != 3 {
		t.Fatalf("expected 3 scrolls, got %d", list.scrolls)
	}
}

func TestConverge_HaltsWhenGrowthStops(t *testing.T) {
	// Only 25 items exist; the target is unreachable. The loop must stop
	// within one extra iteration after the count stalls.
	list := &fakeList{rendered: 10, total: 25, increment: 10}

	n, err := converge(context.Background(), 1000, time.Millisecond, list.count, list.scroll)
	if err != nil {
		t.Fatalf("converge: %v", err)
	}
	if n != 25 {
		t.Fatalf("expected 25 rendered, got %d", n)
	}
	// 10 -> 20 -> 25 -> 25 (stall detected): three productive-or-stalling scrolls.
	if list.scrolls != 3 {
		t.Fatalf("expected 3 scrolls, got %d", list.scrolls)
	}
}

func TestConverge_TargetAlreadyRendered(t *testing.T) {
	list := &fakeList{rendered: 50, total: 50, increment: 10}

	n, err := converge(context.Background(), 20, time.Millisecond, list.count, list.scroll)
	if err != nil {
		t.Fatalf("converge: %v", err)
	}
	if n != 50 {
		t.Fatalf("expected 50, got %d", n)
	}
	if list.scrolls != 0 {
		t.Fatalf("expected no scrolls, got %d", list.scrolls)
	}
}

func TestConverge_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	list := &fakeList{rendered: 0, total: 100, increment: 1}
	if _, err := converge(ctx, 100, time.Minute, list.count, list.scroll); err == nil {
		t.Fatal("expected context error")
	}
}
