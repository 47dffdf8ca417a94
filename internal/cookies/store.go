package cookies

import (
	"context"
	"time"
)

// Store defines the interface for cookie persistence.
//
// Cookies are partitioned by domain, usually the host of the service they
// were collected from. A partition is always written as a whole.
type Store interface {
	// Load returns the non-expired cookies of a partition.
	Load(ctx context.Context, domain string) ([]*Cookie, error)

	// Save replaces the cookies of a partition.
	Save(ctx context.Context, domain string, cookies []*Cookie) error

	// Domains lists the stored partitions.
	Domains(ctx context.Context) ([]string, error)

	// Delete removes a partition.
	Delete(ctx context.Context, domain string) error

	// Close closes the store.
	Close() error
}

// Merge folds incoming cookies into existing ones.
//
// An incoming cookie replaces any existing cookie with the same key. An
// incoming cookie that already expired deletes the key instead. Surviving
// existing cookies keep their order and new keys are appended.
func Merge(existing, incoming []*Cookie, now time.Time) []*Cookie {
	index := make(map[Key]int, len(existing)+len(incoming))
	merged := make([]*Cookie, 0, len(existing)+len(incoming))
	for _, c := range existing {
		if i, ok := index[c.Key()]; ok {
			merged[i] = c
			continue
		}
		index[c.Key()] = len(merged)
		merged = append(merged, c)
	}

	for _, c := range incoming {
		i, ok := index[c.Key()]
		switch {
		case c.ExpiredAt(now):
			if ok {
				merged[i] = nil
				delete(index, c.Key())
			}
		case ok:
			merged[i] = c
		default:
			index[c.Key()] = len(merged)
			merged = append(merged, c)
		}
	}

	result := merged[:0]
	for _, c := range merged {
		if c != nil {
			result = append(result, c)
		}
	}
	return result
}

// Unexpired filters out cookies whose expiry is before now.
func Unexpired(list []*Cookie, now time.Time) []*Cookie {
	result := make([]*Cookie, 0, len(list))
	for _, c := range list {
		if !c.ExpiredAt(now) {
			result = append(result, c)
		}
	}
	return result
}
