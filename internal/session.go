package internal

import (
	"sync"

	"github.com/abualakbar/deliverybot/internal/model"
)

// Sessions holds the per-participant conversation state. Updates for one
// participant arrive serialized by the transport; the lock only protects
// the map against participants being handled in parallel.
type Sessions struct {
	mu     sync.Mutex
	byUser map[int64]*model.Session
}

func NewSessions() *Sessions {
	return &Sessions{byUser: make(map[int64]*model.Session)}
}

func (s *Sessions) Get(userID int64) *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byUser[userID]
	if !ok {
		sess = &model.Session{}
		s.byUser[userID] = sess
	}
	return sess
}

func (s *Sessions) Clear(userID int64) {
	s.mu.Lock()
	delete(s.byUser, userID)
	s.mu.Unlock()
}

// QueueCleanup schedules a prompt message for deletion once the current
// pricing step finishes.
func (s *Sessions) QueueCleanup(userID int64, ref model.UIMessageRef) {
	sess := s.Get(userID)

	s.mu.Lock()
	sess.Cleanup = append(sess.Cleanup, ref)
	s.mu.Unlock()
}

// TakeCleanup drains the queued references.
func (s *Sessions) TakeCleanup(userID int64) []model.UIMessageRef {
	sess := s.Get(userID)

	s.mu.Lock()
	refs := sess.Cleanup
	sess.Cleanup = nil
	s.mu.Unlock()
	return refs
}
