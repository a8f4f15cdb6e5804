package credentials

import (
	"context"
	"sync"
)

// MemoryStore keeps credentials in process memory
type MemoryStore struct {
	mu  sync.RWMutex
	doc document
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// AttendanceKeys returns a copy of the stored bundle
func (s *MemoryStore) AttendanceKeys(ctx context.Context) (*AttendanceKeys, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.doc.Attendance == nil {
		return nil, nil
	}
	keys := *s.doc.Attendance
	return &keys, nil
}

// ChatKeys returns a copy of the stored bundle
func (s *MemoryStore) ChatKeys(ctx context.Context) (*ChatKeys, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.doc.Chat == nil {
		return nil, nil
	}
	keys := *s.doc.Chat
	return &keys, nil
}

func (s *MemoryStore) SetAttendanceKeys(ctx context.Context, keys AttendanceKeys) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.doc.Attendance = &keys
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) SetChatKeys(ctx context.Context, keys ChatKeys) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.doc.Chat = &keys
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) SetSetupComplete(ctx context.Context, complete bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.doc.SetupComplete = complete
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) SetupComplete(ctx context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.SetupComplete
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.doc = document{}
	s.mu.Unlock()
	return nil
}
