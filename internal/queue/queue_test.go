package queue

import (
	"context"
	"testing"
	"time"
)

func TestPushUpToCapacity(t *testing.T) {
	q := New[int](3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := q.Push(ctx, i); err != nil {
			t.Fatalf("Push(%d): %v", i, err)
		}
	}

	if got := q.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}
	if q.TryPush(99) {
		t.Fatalf("TryPush on full queue succeeded, want false")
	}
}

func TestPushSuspendsUntilSlotFrees(t *testing.T) {
	q := New[int](1)
	ctx := context.Background()

	if err := q.Push(ctx, 1); err != nil {
		t.Fatal(err)
	}

	pushed := make(chan error, 1)
	go func() {
		pushed <- q.Push(ctx, 2)
	}()

	select {
	case <-pushed:
		t.Fatal("Push returned before a slot was freed")
	case <-time.After(50 * time.Millisecond):
	}

	q.Retain(func(item int) bool { return item != 1 })

	select {
	case err := <-pushed:
		if err != nil {
			t.Fatalf("Push after free: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Push never unblocked after Retain freed a slot")
	}

	if got := q.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}
}

func TestPushCancelledByContext(t *testing.T) {
	q := New[int](1)
	if err := q.Push(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- q.Push(ctx, 2)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Fatalf("Push error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Push never returned after context cancellation")
	}

	if got := q.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1 (cancelled push must not append)", got)
	}
}

func TestPushEvictOldestNeverSuspends(t *testing.T) {
	q := New[int](2)
	q.PushEvictOldest(1)
	q.PushEvictOldest(2)
	q.PushEvictOldest(3)

	var got []int
	q.Operate(func(items []int) { got = append(got, items...) })

	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("items = %v, want [2 3]", got)
	}
}

func TestRetainDropsMatching(t *testing.T) {
	q := New[int](5)
	ctx := context.Background()
	for _, v := range []int{1, 2, 3, 4} {
		if err := q.Push(ctx, v); err != nil {
			t.Fatal(err)
		}
	}

	q.Retain(func(item int) bool { return item%2 == 0 })

	var got []int
	q.Operate(func(items []int) {
		got = append(got, items...)
	})

	if len(got) != 2 || got[0] != 2 || got[1] != 4 {
		t.Fatalf("Retain result = %v, want [2 4]", got)
	}
}
