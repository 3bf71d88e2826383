package push

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-push-dispatch/internal/domain"
	"github.com/stretchr/testify/mock"
)

// --- mocks ---

type mockMessenger struct{ mock.Mock }

func (m *mockMessenger) Send(ctx context.Context, msg *Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

// --- in-memory stores ---

type memStore struct {
	mu      sync.Mutex
	records map[string]*domain.Notification
	writes  int
}

func newMemStore(ns ...*domain.Notification) *memStore {
	s := &memStore{records: make(map[string]*domain.Notification)}
	for _, n := range ns {
		cp := *n
		s.records[n.NotificationID] = &cp
	}
	return s
}

func (s *memStore) Get(_ context.Context, id string) (*domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	cp := *n
	return &cp, nil
}

func (s *memStore) MarkSent(_ context.Context, id string, sentAt time.Time, messageID string) error {
	return s.terminal(id, func(n *domain.Notification) {
		n.SentAt = &sentAt
		n.FCMMessageID = messageID
	})
}

func (s *memStore) MarkFailed(_ context.Context, id, message, code string) error {
	return s.terminal(id, func(n *domain.Notification) {
		n.Error = message
		n.ErrorCode = code
	})
}

func (s *memStore) terminal(id string, apply func(*domain.Notification)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.records[id]
	if !ok || n.Terminal() {
		return domain.ErrConflict
	}
	apply(n)
	s.writes++
	return nil
}

func (s *memStore) CountUnread(_ context.Context, recipientID, excludeID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.records {
		if n.RecipientID == recipientID && !n.IsRead && n.NotificationID != excludeID {
			count++
		}
	}
	return count, nil
}

func (s *memStore) ListCreatedBefore(_ context.Context, cutoff time.Time, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matches []*domain.Notification
	for _, n := range s.records {
		if n.CreatedAt.Before(cutoff) {
			matches = append(matches, n)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.Before(matches[j].CreatedAt) })
	var ids []string
	for _, n := range matches {
		if len(ids) == limit {
			break
		}
		ids = append(ids, n.NotificationID)
	}
	return ids, nil
}

func (s *memStore) DeleteBatch(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.records, id)
	}
	return nil
}

func (s *memStore) record(id string) *domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[id]
}

type memProfiles struct {
	mu       sync.Mutex
	tokens   map[string]*string
	clearErr error
	cleared  []string
}

func newMemProfiles() *memProfiles {
	return &memProfiles{tokens: make(map[string]*string)}
}

func (p *memProfiles) with(userID, token string) *memProfiles {
	p.tokens[userID] = &token
	return p
}

func (p *memProfiles) Get(_ context.Context, userID string) (*domain.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tok, ok := p.tokens[userID]
	if !ok {
		return nil, fmt.Errorf("profile not found: %w", domain.ErrNotFound)
	}
	return &domain.Profile{UserID: userID, PushToken: tok}, nil
}

func (p *memProfiles) ClearPushToken(_ context.Context, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cleared = append(p.cleared, userID)
	if p.clearErr != nil {
		return p.clearErr
	}
	if _, ok := p.tokens[userID]; ok {
		p.tokens[userID] = nil
	}
	return nil
}
