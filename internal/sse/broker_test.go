package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ravnholt/laguz/internal/models"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(models.Event{Kind: models.EventNoteCreated, ID: "a.md"})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: note.created") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"id":"a.md"`) {
			t.Errorf("missing id in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestGraphThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First note event should trigger graph.updated; the second, inside the
	// throttle window, should not.
	b.Publish(models.Event{Kind: models.EventNoteCreated, ID: "a.md"})
	b.Publish(models.Event{Kind: models.EventNoteUpdated, ID: "b.md"})

	time.Sleep(50 * time.Millisecond)
	graphCount := 0
	noteCount := 0
loop:
	for {
		select {
		case msg := <-ch:
			if strings.Contains(string(msg), "graph.updated") {
				graphCount++
			} else {
				noteCount++
			}
		default:
			break loop
		}
	}

	if noteCount != 2 {
		t.Errorf("noteCount = %d, want 2", noteCount)
	}
	if graphCount != 1 {
		t.Errorf("graphCount = %d, want 1", graphCount)
	}
}

func TestRefreshEventNoGraphCompanion(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(models.Event{Kind: models.EventRefresh, ID: "a"})

	time.Sleep(50 * time.Millisecond)
	count := 0
loop:
	for {
		select {
		case msg := <-ch:
			if strings.Contains(string(msg), "graph.updated") {
				t.Error("refresh should not trigger graph.updated")
			}
			count++
		default:
			break loop
		}
	}
	if count != 1 {
		t.Errorf("events = %d, want 1", count)
	}
}

func TestServeHTTP_StreamsEvents(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.ServeHTTP(rec, req)
	}()

	// Wait for the client to register, then publish.
	deadline := time.Now().Add(time.Second)
	for b.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	b.Publish(models.Event{Kind: models.EventNoteDeleted, ID: "x.md"})

	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	if !strings.Contains(body, "event: note.deleted") {
		t.Errorf("stream missing event: %q", body)
	}
}

func TestPublishAfterClose(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	b.Close()
	// Must not panic or block.
	b.Publish(models.Event{Kind: models.EventNoteCreated, ID: "late.md"})
	if b.ClientCount() != 0 {
		t.Error("closed broker reported clients")
	}
}
