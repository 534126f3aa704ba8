package factory

import (
	"context"
	"sync"
)

// SentEmail is one captured magic-link delivery
type SentEmail struct {
	Email string
	URL   string
}

// RecordingEmailSender captures magic-link emails for inspection in tests
type RecordingEmailSender struct {
	mu   sync.Mutex
	sent []SentEmail
}

// SendMagicLink records the delivery instead of sending it
func (s *RecordingEmailSender) SendMagicLink(_ context.Context, email, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, SentEmail{Email: email, URL: url})
	return nil
}

// Sent returns a copy of all captured deliveries
func (s *RecordingEmailSender) Sent() []SentEmail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SentEmail, len(s.sent))
	copy(out, s.sent)
	return out
}

// Last returns the most recent delivery, or nil if none
func (s *RecordingEmailSender) Last() *SentEmail {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return nil
	}
	last := s.sent[len(s.sent)-1]
	return &last
}
