package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"Indicadores/internal/domain/models"
	drepo "Indicadores/internal/domain/repository"
	"Indicadores/pkg/cache"
)

const selectionKey = "session"

// SessionStore keeps per-session data in a cache.Service (memory, Redis or layered).
type SessionStore struct {
	cache cache.Service
	ttl   time.Duration
}

func NewSessionStore(c cache.Service, ttl time.Duration) *SessionStore {
	return &SessionStore{cache: c, ttl: ttl}
}

var _ drepo.SessionStore = (*SessionStore)(nil)

func (s *SessionStore) key(sessionID string) string {
	return cache.Key(selectionKey, sessionID, "selection")
}

func (s *SessionStore) LoadSelection(ctx context.Context, sessionID string) (models.Selection, error) {
	var raw string
	if err := s.cache.Get(ctx, s.key(sessionID), &raw); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return models.Selection{}, nil
		}
		return models.Selection{}, fmt.Errorf("load selection: %w", err)
	}
	var sel models.Selection
	if err := json.Unmarshal([]byte(raw), &sel); err != nil {
		return models.Selection{}, fmt.Errorf("decode selection: %w", err)
	}
	return sel, nil
}

func (s *SessionStore) SaveSelection(ctx context.Context, sessionID string, sel models.Selection) error {
	b, err := json.Marshal(sel)
	if err != nil {
		return fmt.Errorf("encode selection: %w", err)
	}
	if err := s.cache.Set(ctx, s.key(sessionID), string(b), s.ttl); err != nil {
		return fmt.Errorf("save selection: %w", err)
	}
	return nil
}

func (s *SessionStore) Touch(ctx context.Context, sessionID string) error {
	if _, err := s.cache.Expire(ctx, s.key(sessionID), s.ttl); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.cache.Delete(ctx, s.key(sessionID))
}
