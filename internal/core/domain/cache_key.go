package domain

import "strings"

// CacheKey is the structured namespace under which a response is cached: an
// ordered sequence of path segments such as ["projects", "7", "work-orders"].
// Keys are matched by predicate, never by exact comparison, so that coarser
// events sweep sub-resource entries (a prefix test on projects/7/work-orders
// also catches projects/7/work-orders/42).
type CacheKey []string

// NewCacheKey builds a key from its segments.
func NewCacheKey(segments ...string) CacheKey {
	return CacheKey(segments)
}

// ParseCacheKey splits a slash-joined key path back into segments.
func ParseCacheKey(path string) CacheKey {
	if path == "" {
		return nil
	}
	return CacheKey(strings.Split(path, "/"))
}

// String renders the key as a slash-joined path.
func (k CacheKey) String() string {
	return strings.Join(k, "/")
}

// HasPrefix reports whether the key begins with the given segments.
func (k CacheKey) HasPrefix(prefix ...string) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i, seg := range prefix {
		if k[i] != seg {
			return false
		}
	}
	return true
}

// Contains reports whether the given segments appear contiguously anywhere
// in the key.
func (k CacheKey) Contains(run ...string) bool {
	if len(run) == 0 {
		return true
	}
	for start := 0; start+len(run) <= len(k); start++ {
		match := true
		for i, seg := range run {
			if k[start+i] != seg {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// InvalidationPredicate is a pure boolean test over cache keys. Matching
// entries are marked stale and refetched on next access.
type InvalidationPredicate func(CacheKey) bool

// PrefixPredicate matches every key that starts with the given segments.
func PrefixPredicate(segments ...string) InvalidationPredicate {
	return func(k CacheKey) bool {
		return k.HasPrefix(segments...)
	}
}

// ContainsPredicate matches every key containing the given segments as a
// contiguous run.
func ContainsPredicate(segments ...string) InvalidationPredicate {
	return func(k CacheKey) bool {
		return k.Contains(segments...)
	}
}
