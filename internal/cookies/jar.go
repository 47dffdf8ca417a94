package cookies

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Jar serializes the load-merge-save cycle of each partition of a Store.
type Jar struct {
	store Store
	now   func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewJar creates a jar on top of store.
func NewJar(store Store) *Jar {
	return &Jar{
		store: store,
		now:   time.Now,
		locks: make(map[string]*sync.Mutex),
	}
}

func (j *Jar) lock(domain string) *sync.Mutex {
	j.mu.Lock()
	defer j.mu.Unlock()

	l, ok := j.locks[domain]
	if !ok {
		l = &sync.Mutex{}
		j.locks[domain] = l
	}
	return l
}

// Cookies returns the non-expired cookies of a partition.
func (j *Jar) Cookies(ctx context.Context, domain string) ([]*Cookie, error) {
	l := j.lock(domain)
	l.Lock()
	defer l.Unlock()

	list, err := j.store.Load(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to load cookies for %s: %w", domain, err)
	}
	return Unexpired(list, j.now()), nil
}

// Update merges incoming cookies into a partition and persists the result.
// The partition is reloaded under the lock so concurrent updates are not lost.
func (j *Jar) Update(ctx context.Context, domain string, incoming []*Cookie) ([]*Cookie, error) {
	l := j.lock(domain)
	l.Lock()
	defer l.Unlock()

	existing, err := j.store.Load(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to load cookies for %s: %w", domain, err)
	}

	merged := Merge(existing, incoming, j.now())
	if err := j.store.Save(ctx, domain, merged); err != nil {
		return nil, fmt.Errorf("failed to save cookies for %s: %w", domain, err)
	}
	return merged, nil
}

// Clear removes every cookie of a partition.
func (j *Jar) Clear(ctx context.Context, domain string) error {
	l := j.lock(domain)
	l.Lock()
	defer l.Unlock()

	return j.store.Delete(ctx, domain)
}
