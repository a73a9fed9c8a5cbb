package metadatastore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	indexKey  = "ddo:index"
	ddoPrefix = "ddo:"
)

// RedisStore keeps DDOs as JSON under ddo:<did> and tracks every stored DID
// in the ddo:index set. Access URLs are delegated to an optional resolver.
type RedisStore struct {
	client redis.Cmdable
	access AccessResolver
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a store on client. access may be nil.
func NewRedisStore(client redis.Cmdable, access AccessResolver) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is nil")
	}
	return &RedisStore{client: client, access: access}, nil
}

// StoreDDO writes ddo, replacing any document with the same DID.
func (s *RedisStore) StoreDDO(ctx context.Context, ddo *DDO) (*DDO, error) {
	if err := ddo.Validate(); err != nil {
		return nil, err
	}
	stored := ddo.clone()
	stored.ID, _ = ParseDID(string(ddo.ID))
	b, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("marshal ddo: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, ddoKey(stored.ID), b, 0)
	pipe.SAdd(ctx, indexKey, stored.ID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("store ddo: %w", err)
	}
	return stored, nil
}

// RetrieveDDO reads the document stored under did.
func (s *RedisStore) RetrieveDDO(ctx context.Context, did DID) (*DDO, error) {
	id, err := ParseDID(string(did))
	if err != nil {
		return nil, err
	}
	val, err := s.client.Get(ctx, ddoKey(id)).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get ddo: %w", err)
	}
	var ddo DDO
	if err := json.Unmarshal([]byte(val), &ddo); err != nil {
		return nil, fmt.Errorf("unmarshal ddo: %w", err)
	}
	return &ddo, nil
}

// DIDs lists every stored DID.
func (s *RedisStore) DIDs(ctx context.Context) ([]DID, error) {
	members, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list ddo index: %w", err)
	}
	out := make([]DID, 0, len(members))
	for _, m := range members {
		id, err := ParseDID(m)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

// GetAccessURL delegates to the configured resolver.
func (s *RedisStore) GetAccessURL(ctx context.Context, token AccessToken, payload any) (string, error) {
	if s.access == nil {
		return "", ErrAccessUnsupported
	}
	return s.access.GetAccessURL(ctx, token, payload)
}

func ddoKey(id DID) string {
	return ddoPrefix + id.ID()
}
