package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	evdom "hookline/internal/services/events/domain"
)

// fakeWriter implements evdom.WriterPort and records batches
type fakeWriter struct {
	mu      sync.Mutex
	batches [][]evdom.Event
	singles []evdom.Event

	// failNext, when set, is returned by the next StoreBatch together
	// with partial results marking the first failNextSettled rows settled
	failNext        error
	failNextSettled int

	block chan struct{} // when non nil, StoreBatch waits on it
}

func (f *fakeWriter) StoreOne(_ context.Context, e evdom.Event) (evdom.StoreResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.singles = append(f.singles, e)
	return evdom.StoreResult{EventHash: e.EventHash, Outcome: evdom.OutcomeStored}, nil
}

func (f *fakeWriter) Reattempt(ctx context.Context, e evdom.Event) (evdom.StoreResult, error) {
	return f.StoreOne(ctx, e)
}

func (f *fakeWriter) StoreBatch(_ context.Context, xs []evdom.Event) (evdom.BatchResult, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := append([]evdom.Event(nil), xs...)
	f.batches = append(f.batches, cp)

	if err := f.failNext; err != nil {
		f.failNext = nil
		res := evdom.BatchResult{}
		for i := 0; i < f.failNextSettled && i < len(xs); i++ {
			res.Results = append(res.Results, evdom.StoreResult{
				EventHash: xs[i].EventHash,
				Outcome:   evdom.OutcomeStored,
			})
		}
		return res, err
	}

	res := evdom.BatchResult{}
	for _, e := range xs {
		res.Results = append(res.Results, evdom.StoreResult{
			EventHash: e.EventHash,
			Outcome:   evdom.OutcomeStored,
		})
	}
	res.Tally()
	return res, nil
}

func (f *fakeWriter) ArchiveBefore(context.Context, time.Time) (int64, error) { return 0, nil }

func (f *fakeWriter) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func (f *fakeWriter) batch(i int) []evdom.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.batches[i]
}

func ev(hash string) evdom.Event {
	return evdom.Event{Source: "github", EventType: "push", EventHash: hash}
}

func TestQueueFlushesAtSize(t *testing.T) {
	w := &fakeWriter{}
	q := NewBatchQueue(w, 3, time.Hour)
	ctx := context.Background()

	q.Enqueue(ctx, ev("a"))
	q.Enqueue(ctx, ev("b"))
	if w.batchCount() != 0 {
		t.Fatalf("flushed before size threshold")
	}

	q.Enqueue(ctx, ev("c"))
	if w.batchCount() != 1 {
		t.Fatalf("batches = %d, want 1", w.batchCount())
	}
	if got := w.batch(0); len(got) != 3 || got[0].EventHash != "a" || got[2].EventHash != "c" {
		t.Fatalf("batch content wrong: %+v", got)
	}
	if q.Len() != 0 {
		t.Fatalf("queue not empty after flush: %d", q.Len())
	}
}

func TestQueueFlushesOnInterval(t *testing.T) {
	w := &fakeWriter{}
	q := NewBatchQueue(w, 100, 30*time.Millisecond)

	q.Enqueue(context.Background(), ev("a"))

	deadline := time.Now().Add(2 * time.Second)
	for w.batchCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("interval flush never fired")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := w.batch(0); len(got) != 1 || got[0].EventHash != "a" {
		t.Fatalf("batch content wrong: %+v", got)
	}
}

func TestQueueRequeuesOnlyUnstored(t *testing.T) {
	w := &fakeWriter{failNext: errors.New("db down"), failNextSettled: 1}
	q := NewBatchQueue(w, 2, time.Hour)
	ctx := context.Background()

	q.Enqueue(ctx, ev("a"))
	q.Enqueue(ctx, ev("b")) // flush fails; "a" settled, "b" requeued

	if q.Len() != 1 {
		t.Fatalf("queue len = %d, want 1", q.Len())
	}

	q.Flush(ctx)
	if w.batchCount() != 2 {
		t.Fatalf("batches = %d, want 2", w.batchCount())
	}
	if got := w.batch(1); len(got) != 1 || got[0].EventHash != "b" {
		t.Fatalf("requeued batch wrong: %+v", got)
	}
	if q.Len() != 0 {
		t.Fatalf("queue not empty after retry flush")
	}
}

func TestQueueEnqueueDuringFlushLandsInFreshBatch(t *testing.T) {
	w := &fakeWriter{block: make(chan struct{})}
	q := NewBatchQueue(w, 2, time.Hour)
	ctx := context.Background()

	q.Enqueue(ctx, ev("a"))

	done := make(chan struct{})
	go func() {
		q.Enqueue(ctx, ev("b")) // hits size, flush blocks in the writer
		close(done)
	}()

	// wait for the flush to have swapped the slice
	deadline := time.Now().Add(2 * time.Second)
	for q.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("flush never started")
		}
		time.Sleep(time.Millisecond)
	}

	q.mu.Lock()
	q.items = append(q.items, ev("c")) // concurrent enqueue, no recursive flush
	q.mu.Unlock()

	close(w.block)
	<-done

	if got := w.batch(0); len(got) != 2 {
		t.Fatalf("in flight batch grew: %+v", got)
	}
	if q.Len() != 1 {
		t.Fatalf("fresh batch len = %d, want 1", q.Len())
	}
}

func TestQueueDrainFlushesPartial(t *testing.T) {
	w := &fakeWriter{}
	q := NewBatchQueue(w, 100, time.Hour)
	ctx := context.Background()

	q.Enqueue(ctx, ev("a"))
	q.Enqueue(ctx, ev("b"))

	if err := q.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if w.batchCount() != 1 || len(w.batch(0)) != 2 {
		t.Fatalf("drain did not flush once: %d batches", w.batchCount())
	}
	if q.Len() != 0 {
		t.Fatalf("queue not empty after drain")
	}
}

func TestQueueDrainHonorsContext(t *testing.T) {
	w := &fakeWriter{}
	q := NewBatchQueue(w, 100, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Drain(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
