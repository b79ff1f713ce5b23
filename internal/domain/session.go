package domain

import (
	"fmt"
	"sync"
)

// Session carries the requesting user and their active plan through
// orchestrator and tracker calls. It also remembers which weekly check-in
// prompts were already surfaced so each fires once per session.
// A Session may be shared by concurrent requests of one owner; OwnerID is
// fixed at creation and everything else goes through the locked accessors.
type Session struct {
	OwnerID string

	mu           sync.Mutex
	activePlanID string
	checkIns     map[string]bool
}

// NewSession creates a session for ownerID.
func NewSession(ownerID string) *Session {
	return &Session{OwnerID: ownerID}
}

// Validate checks the session identifies a user.
func (s *Session) Validate() error {
	if s == nil || s.OwnerID == "" {
		return fmt.Errorf("session has no owner")
	}
	return nil
}

// ActivePlan returns the plan the owner last created or opened.
func (s *Session) ActivePlan() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activePlanID
}

// SetActivePlan makes planID the active plan.
func (s *Session) SetActivePlan(planID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activePlanID = planID
}

// ClearActivePlan unsets the active plan if it is planID.
func (s *Session) ClearActivePlan(planID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activePlanID == planID {
		s.activePlanID = ""
	}
}

// MarkCheckIn records that the check-in for (planID, week) was surfaced and
// reports whether this is the first time.
func (s *Session) MarkCheckIn(planID string, week int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkIns == nil {
		s.checkIns = make(map[string]bool)
	}
	key := fmt.Sprintf("%s#%d", planID, week)
	if s.checkIns[key] {
		return false
	}
	s.checkIns[key] = true
	return true
}

// CheckInShown reports whether the check-in for (planID, week) was surfaced.
func (s *Session) CheckInShown(planID string, week int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkIns[fmt.Sprintf("%s#%d", planID, week)]
}
