package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"restaurant_pos/internal/apperr"
	"restaurant_pos/internal/models"
	"restaurant_pos/internal/redis"
)

// Session is the state of one POS terminal between commands: which table
// (if any) it is serving, which stored order it is editing and the unsent
// draft. It is passed explicitly to every controller command.
type Session struct {
	ID      string             `json:"id"`
	UserID  uint               `json:"user_id"`
	TableID *uint              `json:"table_id,omitempty"`
	OrderID *uint              `json:"order_id,omitempty"`
	Draft   []models.OrderItem `json:"draft"`
	// AwaitingChoice is set after selecting a table that already has active
	// orders, until the terminal resumes one or starts a new one.
	AwaitingChoice bool      `json:"awaiting_choice"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func NewSession(userID uint) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Draft:     []models.OrderItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CounterMode reports whether the terminal is ringing up counter sales.
func (s *Session) CounterMode() bool {
	return s.TableID == nil
}

// HasDraft reports whether a table draft is being built and not yet sent.
func (s *Session) HasDraft() bool {
	return s.TableID != nil && s.OrderID == nil
}

func (s *Session) resetOrder() {
	s.OrderID = nil
	s.Draft = []models.OrderItem{}
	s.AwaitingChoice = false
}

type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

type memorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemorySessionStore keeps sessions in process. Used when no redis URL is
// configured and in tests.
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{sessions: make(map[string]Session)}
}

func (m *memorySessionStore) Save(_ context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session.UpdatedAt = time.Now()
	stored := *session
	stored.Draft = append([]models.OrderItem(nil), session.Draft...)
	m.sessions[session.ID] = stored
	return nil
}

func (m *memorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored, ok := m.sessions[id]
	if !ok {
		return nil, apperr.ErrSessionNotFound
	}
	session := stored
	session.Draft = append([]models.OrderItem{}, stored.Draft...)
	return &session, nil
}

func (m *memorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

type redisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) SessionStore {
	return &redisSessionStore{client: client, ttl: ttl}
}

func (r *redisSessionStore) Save(ctx context.Context, session *Session) error {
	session.UpdatedAt = time.Now()
	return r.client.SetSession(ctx, session.ID, session, r.ttl)
}

func (r *redisSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	var session Session
	if err := r.client.GetSession(ctx, id, &session); err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return nil, apperr.ErrSessionNotFound
		}
		return nil, err
	}
	if session.Draft == nil {
		session.Draft = []models.OrderItem{}
	}
	return &session, nil
}

func (r *redisSessionStore) Delete(ctx context.Context, id string) error {
	return r.client.DeleteSession(ctx, id)
}
