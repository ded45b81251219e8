package user

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// InMemory implements Store with in-process concurrency safety. Used by
// tests and local runs without Postgres.
type InMemory struct {
	mu     sync.RWMutex
	nextID int64
	byExt  map[string]*User
}

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{byExt: make(map[string]*User)}
}

var _ Store = (*InMemory)(nil)

func (s *InMemory) Save(ctx context.Context, u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byExt[u.ExternalID]; ok {
		return User{}, ErrDuplicateExternalID
	}
	for _, existing := range s.byExt {
		if strings.EqualFold(existing.Email, u.Email) {
			return User{}, ErrDuplicateEmail
		}
	}

	s.nextID++
	u.ID = s.nextID
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	cp := u
	s.byExt[u.ExternalID] = &cp
	return u, nil
}

func (s *InMemory) FindByExternalID(ctx context.Context, externalID string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byExt[externalID]
	if !ok {
		return User{}, ErrNotFound
	}
	return *u, nil
}

func (s *InMemory) FindByEmail(ctx context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.byExt {
		if strings.EqualFold(u.Email, email) {
			return *u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *InMemory) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := s.FindByEmail(ctx, email)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *InMemory) Update(ctx context.Context, u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byExt[u.ExternalID]
	if !ok {
		return User{}, ErrNotFound
	}
	for ext, other := range s.byExt {
		if ext != u.ExternalID && strings.EqualFold(other.Email, u.Email) {
			return User{}, ErrDuplicateEmail
		}
	}

	existing.Name = u.Name
	existing.LastName = u.LastName
	existing.Email = u.Email
	existing.Phone = u.Phone
	existing.UpdatedAt = time.Now().UTC()
	return *existing, nil
}

func (s *InMemory) Delete(ctx context.Context, externalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byExt[externalID]; !ok {
		return ErrNotFound
	}
	delete(s.byExt, externalID)
	return nil
}

func (s *InMemory) List(ctx context.Context, offset, limit int) ([]User, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]User, 0, len(s.byExt))
	for _, u := range s.byExt {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}
