package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/boundsec/pkg/command"
	"github.com/dmitrymomot/boundsec/pkg/execution"
)

// Defaults of TokenStore.
const (
	DefaultTokenPrefix = "boundsec:token:"
	DefaultTokenTTL    = 30 * time.Minute
)

// maxUpdateAttempts bounds optimistic retries of Update.
const maxUpdateAttempts = 5

// TokenStore keeps suspension tokens in Redis as JSON with a key TTL, so
// a suspension started on one instance can be resumed on another.
//
// Arguments survive as their JSON form: numbers come back as float64 and
// structs as maps.
type TokenStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// TokenStoreOption configures a TokenStore.
type TokenStoreOption func(*TokenStore)

func WithPrefix(prefix string) TokenStoreOption {
	return func(s *TokenStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

func WithTTL(ttl time.Duration) TokenStoreOption {
	return func(s *TokenStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewTokenStore creates a token store on client.
func NewTokenStore(client redis.UniversalClient, opts ...TokenStoreOption) *TokenStore {
	s := &TokenStore{client: client, prefix: DefaultTokenPrefix, ttl: DefaultTokenTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewTokenStoreFromConfig creates a token store using the prefix and TTL of cfg.
func NewTokenStoreFromConfig(client redis.UniversalClient, cfg Config) *TokenStore {
	return NewTokenStore(client, WithPrefix(cfg.TokenPrefix), WithTTL(cfg.TokenTTL))
}

func (s *TokenStore) Save(ctx context.Context, token *command.Token) error {
	if token == nil || token.ID == "" {
		return errors.New("redis: token without id")
	}
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token %q: %w", token.ID, err)
	}
	return s.client.Set(ctx, s.key(token.Scope, token.ID), data, s.ttl).Err()
}

func (s *TokenStore) Load(ctx context.Context, scope, id string) (*command.Token, error) {
	data, err := s.client.Get(ctx, s.key(scope, id)).Bytes()
	return decode(id, data, err)
}

// Take reads and deletes the token atomically with GETDEL.
func (s *TokenStore) Take(ctx context.Context, scope, id string) (*command.Token, error) {
	data, err := s.client.GetDel(ctx, s.key(scope, id)).Bytes()
	return decode(id, data, err)
}

// Update rewrites the token inside a WATCH/MULTI transaction and keeps
// its TTL. A concurrent Take aborts the transaction; the retry then sees
// the key gone and fails with execution.ErrTokenNotFound.
func (s *TokenStore) Update(ctx context.Context, scope, id string, fn func(*command.Token) error) error {
	key := s.key(scope, id)
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		tok, err := decode(id, data, err)
		if err != nil {
			return err
		}
		if err := fn(tok); err != nil {
			return err
		}
		out, err := json.Marshal(tok)
		if err != nil {
			return fmt.Errorf("encode token %q: %w", id, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetArgs(ctx, key, out, redis.SetArgs{KeepTTL: true})
			return nil
		})
		return err
	}

	for range maxUpdateAttempts {
		err := s.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("update token %q: %w", id, redis.TxFailedErr)
}

func (s *TokenStore) Delete(ctx context.Context, scope, id string) error {
	return s.client.Del(ctx, s.key(scope, id)).Err()
}

func (s *TokenStore) key(scope, id string) string {
	return s.prefix + scope + ":" + id
}

func decode(id string, data []byte, err error) (*command.Token, error) {
	if errors.Is(err, redis.Nil) {
		return nil, errors.Join(execution.ErrTokenNotFound, fmt.Errorf("token %q", id))
	}
	if err != nil {
		return nil, err
	}
	var tok command.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("decode token %q: %w", id, err)
	}
	return &tok, nil
}
