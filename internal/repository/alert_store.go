package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"MarketCal/internal/domain/models"
	"MarketCal/pkg/cache"
)

const (
	alertKeyPrefix = "alerts:rule:"
	alertIndexKey  = "alerts:index"
)

// ErrAlertNotFound reports a lookup for an unknown alert id.
var ErrAlertNotFound = errors.New("alert not found")

// AlertStore keeps user-defined alert rules in the cache backend
// (memory or Redis). Values are stored as JSON strings so both
// backends behave identically; an index key tracks the known ids.
type AlertStore struct {
	mu    sync.Mutex
	cache cache.Service
}

// NewAlertStore creates a cache-backed alert store.
func NewAlertStore(c cache.Service) *AlertStore {
	return &AlertStore{cache: c}
}

// Save inserts or replaces an alert rule.
func (s *AlertStore) Save(ctx context.Context, alert *models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	if err := s.cache.Set(ctx, alertKeyPrefix+alert.ID, string(raw), 0); err != nil {
		return fmt.Errorf("store alert: %w", err)
	}

	ids, err := s.loadIndex(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == alert.ID {
			return nil
		}
	}
	ids = append(ids, alert.ID)
	return s.saveIndex(ctx, ids)
}

// Get fetches one alert by id.
func (s *AlertStore) Get(ctx context.Context, id string) (*models.Alert, error) {
	var raw string
	err := s.cache.Get(ctx, alertKeyPrefix+id, &raw)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, ErrAlertNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load alert: %w", err)
	}

	var alert models.Alert
	if err := json.Unmarshal([]byte(raw), &alert); err != nil {
		return nil, fmt.Errorf("decode alert: %w", err)
	}
	return &alert, nil
}

// List returns all alerts sorted by creation time, oldest first.
func (s *AlertStore) List(ctx context.Context) ([]models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.loadIndex(ctx)
	if err != nil {
		return nil, err
	}

	alerts := make([]models.Alert, 0, len(ids))
	live := make([]string, 0, len(ids))
	for _, id := range ids {
		var raw string
		err := s.cache.Get(ctx, alertKeyPrefix+id, &raw)
		if errors.Is(err, cache.ErrCacheMiss) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load alert %s: %w", id, err)
		}
		var alert models.Alert
		if err := json.Unmarshal([]byte(raw), &alert); err != nil {
			continue
		}
		alerts = append(alerts, alert)
		live = append(live, id)
	}

	if len(live) != len(ids) {
		if err := s.saveIndex(ctx, live); err != nil {
			return nil, err
		}
	}

	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].CreatedAt.Before(alerts[j].CreatedAt)
	})
	return alerts, nil
}

// Delete removes an alert and drops it from the index.
func (s *AlertStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.loadIndex(ctx)
	if err != nil {
		return err
	}
	found := false
	kept := make([]string, 0, len(ids))
	for _, existing := range ids {
		if existing == id {
			found = true
			continue
		}
		kept = append(kept, existing)
	}
	if !found {
		return ErrAlertNotFound
	}

	if err := s.cache.Delete(ctx, alertKeyPrefix+id); err != nil {
		return fmt.Errorf("delete alert: %w", err)
	}
	return s.saveIndex(ctx, kept)
}

func (s *AlertStore) loadIndex(ctx context.Context) ([]string, error) {
	var raw string
	err := s.cache.Get(ctx, alertIndexKey, &raw)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load alert index: %w", err)
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decode alert index: %w", err)
	}
	return ids, nil
}

func (s *AlertStore) saveIndex(ctx context.Context, ids []string) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal alert index: %w", err)
	}
	if err := s.cache.Set(ctx, alertIndexKey, string(raw), 0); err != nil {
		return fmt.Errorf("store alert index: %w", err)
	}
	return nil
}
