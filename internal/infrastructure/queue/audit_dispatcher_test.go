package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/intersect-health/fhir-api/internal/core/domain"
)

type memAuditRepo struct {
	mu     sync.Mutex
	events []domain.AuditEvent
	err    error
}

func (r *memAuditRepo) Insert(_ context.Context, e *domain.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, *e)
	return nil
}

func (r *memAuditRepo) snapshot() []domain.AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuditEvent(nil), r.events...)
}

func TestAuditDispatcher_PersistsInOrderPerActor(t *testing.T) {
	repo := &memAuditRepo{}
	d := NewAuditDispatcher(3, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	actions := []domain.AuditAction{domain.AuditRegister, domain.AuditLogin, domain.AuditResourceCreate, domain.AuditResourceDelete}
	for _, a := range actions {
		d.Record(domain.AuditEvent{Actor: "a@x.com", Action: a, Outcome: domain.OutcomeSuccess})
	}
	d.Record(domain.AuditEvent{Actor: "b@x.com", Action: domain.AuditLogin, Outcome: domain.OutcomeFailure})

	deadline := time.Now().Add(2 * time.Second)
	for len(repo.snapshot()) < len(actions)+1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	d.Wait()

	var got []domain.AuditAction
	for _, e := range repo.snapshot() {
		if e.Timestamp.IsZero() {
			t.Fatalf("expected timestamp to be set")
		}
		if e.Actor == "a@x.com" {
			got = append(got, e.Action)
		}
	}
	if len(got) != len(actions) {
		t.Fatalf("expected %d events for actor, got %d", len(actions), len(got))
	}
	for i := range actions {
		if got[i] != actions[i] {
			t.Fatalf("event %d: expected %s, got %s", i, actions[i], got[i])
		}
	}
}

func TestAuditDispatcher_DropsWhenFull(t *testing.T) {
	repo := &memAuditRepo{}
	d := NewAuditDispatcher(1, repo, zerolog.Nop())

	// Not started: nothing drains the queue.
	for i := 0; i < channelBuffer+10; i++ {
		d.Record(domain.AuditEvent{Actor: "a@x.com", Action: domain.AuditLogin})
	}
	if got := len(d.workers[0]); got != channelBuffer {
		t.Fatalf("expected queue capped at %d, got %d", channelBuffer, got)
	}
}

func TestAuditDispatcher_DrainsOnShutdown(t *testing.T) {
	repo := &memAuditRepo{}
	d := NewAuditDispatcher(1, repo, zerolog.Nop())
	for i := 0; i < 5; i++ {
		d.Record(domain.AuditEvent{Actor: "a@x.com", Action: domain.AuditLogin})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx)
	d.Wait()

	if got := len(repo.snapshot()); got != 5 {
		t.Fatalf("expected 5 drained events, got %d", got)
	}
}

func TestAuditDispatcher_WriteErrorDoesNotStopWorker(t *testing.T) {
	repo := &memAuditRepo{err: errors.New("mongo down")}
	d := NewAuditDispatcher(1, repo, zerolog.Nop())
	d.Record(domain.AuditEvent{Actor: "a@x.com", Action: domain.AuditLogin})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx)
	d.Wait()

	if got := len(repo.snapshot()); got != 0 {
		t.Fatalf("expected no persisted events, got %d", got)
	}
}
