// Package redis implements flow.Store on Redis through go-redis.
//
// Each document is a JSON string at {prefix}:doc:{id}. The sorted set {prefix}:index
// holds every id scored by an insertion sequence taken from {prefix}:seq.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/meikuraledutech/flow"
)

// DefaultPrefix is used when no key prefix is configured.
const DefaultPrefix = "flow"

// Store implements flow.Store on a go-redis client.
type Store struct {
	client goredis.UniversalClient
	prefix string
}

// New returns a Store using client. An empty prefix means DefaultPrefix.
func New(client goredis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) docKey(id string) string { return s.prefix + ":doc:" + id }
func (s *Store) indexKey() string        { return s.prefix + ":index" }
func (s *Store) seqKey() string          { return s.prefix + ":seq" }

// CreateSchema checks connectivity; Redis needs no schema.
func (s *Store) CreateSchema(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// DropSchema removes every document, the index and the sequence.
func (s *Store) DropSchema(ctx context.Context) error {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("flow: read index: %w", err)
	}
	keys := []string{s.indexKey(), s.seqKey()}
	for _, id := range ids {
		keys = append(keys, s.docKey(id))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("flow: drop keys: %w", err)
	}
	return nil
}

func (s *Store) Put(ctx context.Context, doc *flow.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("flow: marshal automation %s: %w", doc.ID, err)
	}

	_, err = s.client.ZScore(ctx, s.indexKey(), doc.ID).Result()
	isNew := errors.Is(err, goredis.Nil)
	if err != nil && !isNew {
		return fmt.Errorf("flow: read index: %w", err)
	}
	var seq int64
	if isNew {
		if seq, err = s.client.Incr(ctx, s.seqKey()).Result(); err != nil {
			return fmt.Errorf("flow: next sequence: %w", err)
		}
	}

	_, err = s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Set(ctx, s.docKey(doc.ID), data, 0)
		if isNew {
			p.ZAddNX(ctx, s.indexKey(), goredis.Z{Score: float64(seq), Member: doc.ID})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("flow: save automation: %w", err)
	}
	return nil
}

// Get returns nil, nil if id is unknown.
func (s *Store) Get(ctx context.Context, id string) (*flow.Document, error) {
	data, err := s.client.Get(ctx, s.docKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("flow: get automation: %w", err)
	}
	return decode(data)
}

func (s *Store) List(ctx context.Context) ([]flow.Document, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("flow: read index: %w", err)
	}
	docs := []flow.Document{}
	if len(ids) == 0 {
		return docs, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.docKey(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("flow: list automations: %w", err)
	}
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			// Removed between ZRANGE and MGET.
			continue
		}
		d, err := decode([]byte(str))
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, s.docKey(id))
		p.ZRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("flow: delete automation: %w", err)
	}
	return nil
}

func decode(data []byte) (*flow.Document, error) {
	var d flow.Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("flow: unmarshal automation: %w", err)
	}
	return &d, nil
}

var _ flow.Store = (*Store)(nil)
