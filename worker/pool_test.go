package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"snipocr/screenshot"
)

func newTestPool(size int, recognize func(context.Context, screenshot.Region) (string, error)) *Pool {
	p := &Pool{jobs: make(chan job, 1), recognize: recognize}
	p.start(size)
	return p
}

func TestPoolRunsJobAndInvokesCallback(t *testing.T) {
	p := newTestPool(1, func(_ context.Context, r screenshot.Region) (string, error) {
		return "text", nil
	})
	defer p.Close()

	done := make(chan string, 1)
	ok := p.Submit(context.Background(), screenshot.Region{Width: 10, Height: 10}, func(text string, err error) {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		done <- text
	})
	if !ok {
		t.Fatal("submit should succeed")
	}
	select {
	case text := <-done:
		if text != "text" {
			t.Errorf("callback text = %q", text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback never invoked")
	}
}

func TestPoolSubmitDropWhenBusy(t *testing.T) {
	block := make(chan struct{})
	var calls atomic.Int32
	p := newTestPool(1, func(context.Context, screenshot.Region) (string, error) {
		calls.Add(1)
		<-block
		return "", nil
	})
	defer p.Close()

	ctx := context.Background()
	r := screenshot.Region{Width: 1, Height: 1}

	// First submit occupies the worker, second fills the 1-slot queue,
	// third must drop.
	if !p.Submit(ctx, r, func(string, error) {}) {
		t.Fatal("first submit should succeed")
	}
	ok2 := p.Submit(ctx, r, func(string, error) {})
	ok3 := p.Submit(ctx, r, func(string, error) {})
	if ok2 && ok3 {
		t.Fatal("expected at least one submit to drop due to full queue")
	}
	close(block)
}
