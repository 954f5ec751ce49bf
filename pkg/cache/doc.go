// Package cache provides a generic, thread-safe LRU cache with optional
// per-entry expiry and first-writer-wins insertion.
//
// It backs the per-root default-checker cache and the in-memory store of
// suspended command executions.
//
//	c := cache.NewLRUCache[string, []string](1024)
//	c.SetTTL(30 * time.Minute)
//
//	v, err := c.GetOrCompute("Document:write", func() ([]string, error) {
//	    return expensiveLookup()
//	})
//
// PutIfAbsent returns the value that ended up stored, so concurrent writers
// computing the same entry all observe the first one:
//
//	actual, stored := c.PutIfAbsent(key, computed)
package cache
