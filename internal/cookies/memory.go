package cookies

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps cookies for the lifetime of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	domains map[string][]*Cookie
	closed  bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{domains: make(map[string][]*Cookie)}
}

// Load returns the non-expired cookies of a partition.
func (m *MemoryStore) Load(ctx context.Context, domain string) ([]*Cookie, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}
	return copyCookies(Unexpired(m.domains[domain], time.Now())), nil
}

// Save replaces the cookies of a partition.
func (m *MemoryStore) Save(ctx context.Context, domain string, cookies []*Cookie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	m.domains[domain] = copyCookies(cookies)
	return nil
}

// Domains lists the stored partitions.
func (m *MemoryStore) Domains(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}
	domains := make([]string, 0, len(m.domains))
	for d := range m.domains {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains, nil
}

// Delete removes a partition.
func (m *MemoryStore) Delete(ctx context.Context, domain string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	delete(m.domains, domain)
	return nil
}

// Close closes the store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func copyCookies(list []*Cookie) []*Cookie {
	out := make([]*Cookie, len(list))
	for i, c := range list {
		cp := *c
		out[i] = &cp
	}
	return out
}
