package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/scam-shield/backend/internal/metrics"
	"github.com/zhouzirui/scam-shield/backend/internal/model/chat"
	"github.com/zhouzirui/scam-shield/backend/internal/service/conversation"
)

var ErrSessionNotFound = errors.New("session not found")

// ControllerFactory builds the controller behind a new session.
type ControllerFactory func() *conversation.Controller

type entry struct {
	controller *conversation.Controller
	createdAt  time.Time
	lastActive time.Time
}

// Service keeps the live conversations. Each session owns exactly one
// controller; closing the session discards the controller together with its
// transcript and model session.
type Service struct {
	newController ControllerFactory
	now           func() time.Time

	mu       sync.RWMutex
	sessions map[string]*entry
}

// NewService bootstraps the in-memory registry.
func NewService(factory ControllerFactory) *Service {
	return &Service{
		newController: factory,
		now:           func() time.Time { return time.Now().UTC() },
		sessions:      make(map[string]*entry),
	}
}

// CreateSession mounts a new conversation seeded with the welcome message.
func (s *Service) CreateSession(_ context.Context) (chat.Session, error) {
	now := s.now()
	id := uuid.NewString()
	e := &entry{
		controller: s.newController(),
		createdAt:  now,
		lastActive: now,
	}

	s.mu.Lock()
	s.sessions[id] = e
	n := len(s.sessions)
	s.mu.Unlock()
	metrics.ActiveSessions.Set(float64(n))

	return snapshot(id, e), nil
}

// GetSession returns the current state and transcript of a session.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	e, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return snapshot(sessionID, e), nil
}

// Submit forwards text to the session's controller. See
// conversation.Controller.Submit for the error contract.
func (s *Service) Submit(ctx context.Context, sessionID, text string, opts ...conversation.SubmitOption) error {
	s.mu.Lock()
	e, ok := s.sessions[sessionID]
	if ok {
		e.lastActive = s.now()
	}
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	err := e.controller.Submit(ctx, text, opts...)

	s.mu.Lock()
	e.lastActive = s.now()
	s.mu.Unlock()
	return err
}

// CloseSession unmounts a session.
func (s *Service) CloseSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	_, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	n := len(s.sessions)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	metrics.ActiveSessions.Set(float64(n))
	return nil
}

// Sweep drops idle sessions that have not been used for ttl and returns how
// many were removed. Sessions with a reply in flight are kept.
func (s *Service) Sweep(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	removed := 0
	for id, e := range s.sessions {
		if e.lastActive.Before(cutoff) && e.controller.State() == chat.StateIdle {
			delete(s.sessions, id)
			removed++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if removed > 0 {
		metrics.ActiveSessions.Set(float64(n))
	}
	return removed
}

// Len returns the number of live sessions.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func snapshot(id string, e *entry) chat.Session {
	return chat.Session{
		ID:         id,
		State:      e.controller.State(),
		Messages:   e.controller.Messages(),
		CreatedAt:  e.createdAt,
		LastActive: e.lastActive,
	}
}
