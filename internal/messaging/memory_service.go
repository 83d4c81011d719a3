package messaging

import (
	"context"
	"sync"
)

// SentMessage records one delivery made through the in-memory service.
type SentMessage struct {
	To   string
	Body string
}

// InMemoryService implements Service without external delivery. It is
// used in tests and when no Twilio credentials are configured.
type InMemoryService struct {
	mu      sync.Mutex
	sent    []SentMessage
	stopped bool
}

// NewInMemoryService creates an in-memory outreach service.
func NewInMemoryService() *InMemoryService {
	return &InMemoryService{}
}

// ValidateAndCanonicalizeRecipient validates and canonicalizes a phone number.
func (s *InMemoryService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return CanonicalizePhone(recipient)
}

// SendMessage records the message instead of delivering it.
func (s *InMemoryService) SendMessage(ctx context.Context, to string, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrServiceStopped
	}
	canonical, err := CanonicalizePhone(to)
	if err != nil {
		return err
	}
	s.sent = append(s.sent, SentMessage{To: canonical, Body: body})
	return nil
}

// Sent returns a copy of every message recorded so far.
func (s *InMemoryService) Sent() []SentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SentMessage, len(s.sent))
	copy(out, s.sent)
	return out
}

// Stop marks the service stopped; further sends fail.
func (s *InMemoryService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return nil
}
