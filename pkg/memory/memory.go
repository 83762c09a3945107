// Package memory keeps bounded per-session chat histories.
package memory

import (
	"context"
	"sync"

	"github.com/xhad/courseplan/internal/models"
)

const DefaultMaxMessages = 20

type session struct {
	mu       sync.Mutex
	messages []models.Message
}

// InMemoryStore holds sessions in process. Writers to different sessions
// do not contend; writers to the same session are serialized.
type InMemoryStore struct {
	mu          sync.Mutex
	sessions    map[string]*session
	maxMessages int
}

func NewInMemoryStore(maxMessages int) *InMemoryStore {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	return &InMemoryStore{
		sessions:    make(map[string]*session),
		maxMessages: maxMessages,
	}
}

func (s *InMemoryStore) get(id string, create bool) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok && create {
		sess = &session{}
		s.sessions[id] = sess
	}
	return sess
}

// lockLive returns the session for id with its lock held, retrying when a
// concurrent Clear detached the session before the lock was taken.
func (s *InMemoryStore) lockLive(id string) *session {
	for {
		sess := s.get(id, true)
		sess.mu.Lock()

		s.mu.Lock()
		live := s.sessions[id] == sess
		s.mu.Unlock()
		if live {
			return sess
		}
		sess.mu.Unlock()
	}
}

func (s *InMemoryStore) History(ctx context.Context, sessionID string, limit int) ([]models.Message, error) {
	sess := s.get(sessionID, false)
	if sess == nil {
		return nil, nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	msgs := sess.messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// AddExchange appends the user and assistant turns as one unit and drops
// the oldest messages beyond the bound.
func (s *InMemoryStore) AddExchange(ctx context.Context, sessionID, userText, assistantText string) error {
	sess := s.lockLive(sessionID)
	defer sess.mu.Unlock()

	sess.messages = append(sess.messages,
		models.Message{Role: models.RoleUser, Content: userText},
		models.Message{Role: models.RoleAssistant, Content: assistantText},
	)
	if over := len(sess.messages) - s.maxMessages; over > 0 {
		sess.messages = append([]models.Message(nil), sess.messages[over:]...)
	}
	return nil
}

func (s *InMemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *InMemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions), nil
}
