package execution

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dmitrymomot/boundsec/pkg/cache"
	"github.com/dmitrymomot/boundsec/pkg/command"
)

// TokenStore keeps suspended invocations between requests, keyed by scope
// and token id.
type TokenStore interface {
	Save(ctx context.Context, token *command.Token) error
	Load(ctx context.Context, scope, id string) (*command.Token, error)
	// Take loads and deletes a token so it is consumed only once.
	Take(ctx context.Context, scope, id string) (*command.Token, error)
	// Update applies fn to a stored token atomically. It fails with
	// ErrTokenNotFound once the token was taken, deleted or expired, and
	// leaves the token unchanged when fn fails.
	Update(ctx context.Context, scope, id string, fn func(*command.Token) error) error
	Delete(ctx context.Context, scope, id string) error
}

// Defaults of MemoryStore.
const (
	DefaultTokenCapacity = 10000
	DefaultTokenTTL      = 30 * time.Minute
)

// MemoryStore is a TokenStore in process memory. Tokens expire after the
// TTL and the least recently used ones are evicted beyond capacity.
type MemoryStore struct {
	tokens *cache.LRUCache[string, command.Token]
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*memoryConfig)

type memoryConfig struct {
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

func WithCapacity(n int) MemoryStoreOption {
	return func(c *memoryConfig) {
		if n > 0 {
			c.capacity = n
		}
	}
}

func WithTTL(ttl time.Duration) MemoryStoreOption {
	return func(c *memoryConfig) { c.ttl = ttl }
}

func WithStoreClock(now func() time.Time) MemoryStoreOption {
	return func(c *memoryConfig) { c.now = now }
}

// NewMemoryStore creates an in-memory token store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	cfg := memoryConfig{capacity: DefaultTokenCapacity, ttl: DefaultTokenTTL}
	for _, opt := range opts {
		opt(&cfg)
	}
	tokens := cache.NewLRUCache[string, command.Token](cfg.capacity)
	tokens.SetTTL(cfg.ttl)
	if cfg.now != nil {
		tokens.SetClock(cfg.now)
	}
	return &MemoryStore{tokens: tokens}
}

func (s *MemoryStore) Save(_ context.Context, token *command.Token) error {
	if token == nil || token.ID == "" {
		return errors.New("execution: token without id")
	}
	s.tokens.Put(storeKey(token.Scope, token.ID), copyToken(*token))
	return nil
}

func (s *MemoryStore) Load(_ context.Context, scope, id string) (*command.Token, error) {
	tok, ok := s.tokens.Get(storeKey(scope, id))
	if !ok {
		return nil, errors.Join(ErrTokenNotFound, fmt.Errorf("token %q", id))
	}
	t := copyToken(tok)
	return &t, nil
}

func (s *MemoryStore) Take(_ context.Context, scope, id string) (*command.Token, error) {
	tok, ok := s.tokens.Remove(storeKey(scope, id))
	if !ok {
		return nil, errors.Join(ErrTokenNotFound, fmt.Errorf("token %q", id))
	}
	return &tok, nil
}

func (s *MemoryStore) Update(_ context.Context, scope, id string, fn func(*command.Token) error) error {
	found, err := s.tokens.Update(storeKey(scope, id), func(tok command.Token) (command.Token, error) {
		t := copyToken(tok)
		if err := fn(&t); err != nil {
			return tok, err
		}
		return copyToken(t), nil
	})
	if err != nil {
		return err
	}
	if !found {
		return errors.Join(ErrTokenNotFound, fmt.Errorf("token %q", id))
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, scope, id string) error {
	s.tokens.Remove(storeKey(scope, id))
	return nil
}

// Len returns the number of stored tokens, expired ones included until
// they are looked up or evicted.
func (s *MemoryStore) Len() int {
	return s.tokens.Len()
}

func storeKey(scope, id string) string {
	return scope + "/" + id
}

func copyToken(t command.Token) command.Token {
	if t.Args != nil {
		t.Args = t.Args.With(nil)
	}
	t.Continuations = slices.Clone(t.Continuations)
	return t
}
