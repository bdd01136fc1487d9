package memory

import (
	"context"
	"fmt"
)

// Sessions is the in-process session store. It never expires entries.
type Sessions Store

// Sessions returns the store as a session store.
func (s *Store) Sessions() *Sessions { return (*Sessions)(s) }

func (m *Sessions) Save(_ context.Context, userID string, fields map[string]any) error {
	s := (*Store)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.sessions[userID]
	if !ok {
		cur = make(map[string]any, len(fields))
		s.sessions[userID] = cur
	}
	for k, v := range fields {
		cur[k] = v
	}
	return nil
}

// SessionID returns the active session id, or "" when the user has no session.
func (m *Sessions) SessionID(_ context.Context, userID string) (string, error) {
	s := (*Store)(m)
	s.mu.RLock()
	defer s.mu.RUnlock()
	sid, ok := s.sessions[userID]["sid"]
	if !ok {
		return "", nil
	}
	return fmt.Sprint(sid), nil
}

func (m *Sessions) Delete(_ context.Context, userID string) error {
	s := (*Store)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}
