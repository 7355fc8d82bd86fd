package usp

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestThreadServiceLifecycle(t *testing.T) {
	svc := NewThreadService()

	if err := svc.Post(func() {}); err != ErrServiceNotInitialized {
		t.Errorf("expected ErrServiceNotInitialized before Init, got %v", err)
	}

	if err := svc.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := svc.Init(); err != nil {
		t.Errorf("second Init should be a no-op, got %v", err)
	}

	done := make(chan struct{})
	if err := svc.Post(func() { close(done) }); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}

	svc.Term()
	svc.Term() // idempotent

	if err := svc.Post(func() {}); err != ErrServiceTerminated {
		t.Errorf("expected ErrServiceTerminated after Term, got %v", err)
	}
}

func TestThreadServiceTermDrainsQueuedWork(t *testing.T) {
	svc := NewThreadService()
	if err := svc.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	var ran int64
	const total = 200
	for i := 0; i < total; i++ {
		if err := svc.Post(func() { atomic.AddInt64(&ran, 1) }); err != nil {
			t.Fatalf("Post %d failed: %v", i, err)
		}
	}

	svc.Term()

	if got := atomic.LoadInt64(&ran); got != total {
		t.Errorf("expected %d tasks drained by Term, got %d", total, got)
	}
}

func TestThreadServicePanicIsolation(t *testing.T) {
	svc := NewThreadService()
	if err := svc.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer svc.Term()

	done := make(chan struct{})
	if err := svc.Post(func() { panic("faulty callback") }); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if err := svc.Post(func() { close(done) }); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not survive panicking task")
	}
}

func TestStrandPreservesOrder(t *testing.T) {
	svc := &ThreadService{Workers: 4}
	if err := svc.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer svc.Term()

	st := newStrand(svc)

	var mu sync.Mutex
	var order []int
	const total = 500
	for i := 0; i < total; i++ {
		i := i
		if err := st.post(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}); err != nil {
			t.Fatalf("post %d failed: %v", i, err)
		}
	}

	deadline := time.After(5 * time.Second)
	for {
		mu.Lock()
		n := len(order)
		mu.Unlock()
		if n == total {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out: %d of %d tasks ran", n, total)
		default:
			time.Sleep(time.Millisecond)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for i, v := range order {
		if v != i {
			t.Fatalf("order[%d] = %d, strand reordered tasks", i, v)
		}
	}
}

func TestStrandSurvivesPanickingTask(t *testing.T) {
	svc := NewThreadService()
	if err := svc.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer svc.Term()

	st := newStrand(svc)
	done := make(chan struct{})

	if err := st.post(func() { panic("boom") }); err != nil {
		t.Fatalf("post failed: %v", err)
	}
	if err := st.post(func() { close(done) }); err != nil {
		t.Fatalf("post failed: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("strand stalled after panicking task")
	}
}

func TestStrandsRunIndependently(t *testing.T) {
	svc := &ThreadService{Workers: 2}
	if err := svc.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer svc.Term()

	a := newStrand(svc)
	b := newStrand(svc)

	release := make(chan struct{})
	bRan := make(chan struct{})

	if err := a.post(func() { <-release }); err != nil {
		t.Fatalf("post failed: %v", err)
	}
	if err := b.post(func() { close(bRan) }); err != nil {
		t.Fatalf("post failed: %v", err)
	}

	// Strand b must make progress while strand a is blocked.
	select {
	case <-bRan:
	case <-time.After(time.Second):
		t.Fatal("independent strand was blocked")
	}
	close(release)
}
