package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type captureSender struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

func (s *captureSender) Deliver(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return s.err
}

func (s *captureSender) delivered() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.msgs...)
}

func TestDispatcher_DeliversInOrder(t *testing.T) {
	sender := &captureSender{}
	d := NewDispatcher(sender, 8)

	d.Send(Message{Subject: "first", To: []string{"a@example.com"}})
	d.Send(Message{Subject: "second", To: []string{"b@example.com"}})
	d.Close()

	got := sender.delivered()
	if len(got) != 2 {
		t.Fatalf("delivered %d messages, want 2", len(got))
	}
	if got[0].Subject != "first" || got[1].Subject != "second" {
		t.Errorf("wrong order: %q, %q", got[0].Subject, got[1].Subject)
	}
}

func TestDispatcher_SkipsEmptyRecipients(t *testing.T) {
	sender := &captureSender{}
	d := NewDispatcher(sender, 8)

	d.Send(Message{Subject: "nobody home"})
	d.Close()

	if got := sender.delivered(); len(got) != 0 {
		t.Errorf("delivered %d messages, want 0", len(got))
	}
}

func TestDispatcher_DeliveryFailureDoesNotStopWorker(t *testing.T) {
	sender := &captureSender{err: errors.New("relay down")}
	d := NewDispatcher(sender, 8)

	d.Send(Message{Subject: "one", To: []string{"a@example.com"}})
	d.Send(Message{Subject: "two", To: []string{"a@example.com"}})
	d.Close()

	if got := sender.delivered(); len(got) != 2 {
		t.Errorf("worker stopped early: delivered %d, want 2", len(got))
	}
}
