// Package memory is an in-process document store for local development and
// tests. Documents live in insertion order and are lost on restart.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
)

type collection struct {
	order []string
	docs  map[string]map[string]any
}

// Store implements port.DocumentStore.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// New creates an empty store.
func New() *Store {
	return &Store{collections: make(map[string]*collection)}
}

func (s *Store) coll(name string) *collection {
	c, ok := s.collections[name]
	if !ok {
		c = &collection{docs: make(map[string]map[string]any)}
		s.collections[name] = c
	}
	return c
}

func (s *Store) Add(_ context.Context, name string, doc map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.coll(name)
	id, _ := doc["id"].(string)
	if id == "" {
		id = uuid.New().String()
	}
	if _, exists := c.docs[id]; exists {
		return "", &domain.ErrConflict{Message: fmt.Sprintf("%s already exists: %s", name, id)}
	}

	stored := make(map[string]any, len(doc)+1)
	for k, v := range doc {
		stored[k] = v
	}
	stored["id"] = id
	c.docs[id] = stored
	c.order = append(c.order, id)
	return id, nil
}

func (s *Store) Update(_ context.Context, name, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.coll(name).docs[id]
	if !ok {
		return &domain.ErrNotFound{Resource: name, ID: id}
	}
	for k, v := range fields {
		if k == "id" {
			continue
		}
		doc[k] = v
	}
	return nil
}

func (s *Store) Delete(_ context.Context, name, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.coll(name)
	if _, ok := c.docs[id]; !ok {
		return &domain.ErrNotFound{Resource: name, ID: id}
	}
	delete(c.docs, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) Get(_ context.Context, name, id string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: name, ID: id}
	}
	doc, ok := c.docs[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: name, ID: id}
	}
	return json.Marshal(doc)
}

func (s *Store) GetAll(_ context.Context, name string) ([]json.RawMessage, error) {
	return s.scan(name, func(map[string]any) bool { return true })
}

func (s *Store) GetFiltered(_ context.Context, name, field, value string) ([]json.RawMessage, error) {
	return s.scan(name, func(doc map[string]any) bool {
		return fmt.Sprint(doc[field]) == value
	})
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) scan(name string, keep func(map[string]any) bool) ([]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []json.RawMessage{}
	c, ok := s.collections[name]
	if !ok {
		return out, nil
	}
	for _, id := range c.order {
		doc := c.docs[id]
		if !keep(doc) {
			continue
		}
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("memory: encode %s/%s: %w", name, id, err)
		}
		out = append(out, raw)
	}
	return out, nil
}
