package server

import (
	"sync"

	"github.com/alexanderramin/waypoint/internal/domain"
)

// sessions keeps one Session per owner for the life of the server so weekly
// check-ins surface once per owner and week.
type sessions struct {
	mu sync.Mutex
	m  map[string]*domain.Session
}

func (s *sessions) get(ownerID string) *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = make(map[string]*domain.Session)
	}
	sess, ok := s.m[ownerID]
	if !ok {
		sess = domain.NewSession(ownerID)
		s.m[ownerID] = sess
	}
	return sess
}
