package watch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// urlSource is a mutable token guarded by a mutex.
type urlSource struct {
	mu  sync.Mutex
	url string
}

func (s *urlSource) set(u string) {
	s.mu.Lock()
	s.url = u
	s.mu.Unlock()
}

func (s *urlSource) detect(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url, nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within 2s")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestOnChange_FiresOncePerChange(t *testing.T) {
	src := &urlSource{url: "https://music.youtube.com/watch?v=a"}
	w := New(src.detect, Options{Interval: 10 * time.Millisecond})

	type change struct{ old, cur string }
	var mu sync.Mutex
	var got []change

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.OnChange(ctx, func(_ context.Context, old, cur string) error {
			mu.Lock()
			got = append(got, change{old, cur})
			mu.Unlock()
			return nil
		})
	}()

	waitFor(t, func() bool { return w.Current() == "https://music.youtube.com/watch?v=a" })
	src.set("https://music.youtube.com/watch?v=b")
	waitFor(t, func() bool { return w.Current() == "https://music.youtube.com/watch?v=b" })
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("got %d changes, want 1: %v", len(got), got)
	}
	if got[0].old != "https://music.youtube.com/watch?v=a" || got[0].cur != "https://music.youtube.com/watch?v=b" {
		t.Fatalf("change = %+v", got[0])
	}
}

func TestPoke_ChecksImmediately(t *testing.T) {
	src := &urlSource{url: "a"}
	w := New(src.detect, Options{Interval: time.Hour})
	w.Seed("a")

	var fired atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.OnChange(ctx, func(context.Context, string, string) error {
		fired.Add(1)
		return nil
	})

	src.set("b")
	w.Poke()
	waitFor(t, func() bool { return fired.Load() == 1 })
	if w.Current() != "b" {
		t.Fatalf("current = %q, want b", w.Current())
	}
}

func TestOnChange_ActionErrorRetries(t *testing.T) {
	src := &urlSource{url: "a"}
	w := New(src.detect, Options{Interval: 5 * time.Millisecond})
	w.Seed("a")

	var calls atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.OnChange(ctx, func(context.Context, string, string) error {
		if calls.Add(1) == 1 {
			return errors.New("not yet")
		}
		return nil
	})

	src.set("b")
	waitFor(t, func() bool { return w.Current() == "b" })
	if calls.Load() < 2 {
		t.Fatalf("calls = %d, want retry after failure", calls.Load())
	}
	if w.Stats().Errors < 1 {
		t.Fatal("error not counted")
	}
}
