// Package redis stores each slot as a plain string key, namespaced by a prefix.
package redis

import (
	"context"
	"sort"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/classportal/core/store"
)

type Storage struct {
	client *redis.Client
	prefix string
}

var _ store.Storage = (*Storage)(nil)

// Open connects to the redis server at addr and pings it.
func Open(ctx context.Context, addr string, db int, prefix string) (*Storage, error) {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(addr, "addr"),
	).Check(); err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "connecting to redis at %s", addr)
	}
	return New(client, prefix), nil
}

// New wraps an existing client.
func New(client *redis.Client, prefix string) *Storage {
	return &Storage{client: client, prefix: prefix}
}

func (s *Storage) key(slot string) string { return s.prefix + slot }

func (s *Storage) Get(ctx context.Context, slot string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(slot)).Bytes()
	if err == redis.Nil {
		return nil, store.ErrSlotNotFound
	}
	return data, err
}

func (s *Storage) Set(ctx context.Context, slot string, payload []byte) error {
	return s.client.Set(ctx, s.key(slot), payload, 0).Err()
}

func (s *Storage) Delete(ctx context.Context, slot string) error {
	return s.client.Del(ctx, s.key(slot)).Err()
}

func (s *Storage) Slots(ctx context.Context) ([]string, error) {
	names := make([]string, 0)
	iter := s.client.Scan(ctx, 0, matchPattern(s.prefix), 100).Iterator()
	for iter.Next(ctx) {
		if key := iter.Val(); strings.HasPrefix(key, s.prefix) {
			names = append(names, strings.TrimPrefix(key, s.prefix))
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// matchPattern returns the SCAN MATCH pattern of the keys starting with prefix,
// with the glob metacharacters of prefix escaped.
func matchPattern(prefix string) string {
	var b strings.Builder
	for _, r := range prefix {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('*')
	return b.String()
}

func (s *Storage) Close() error { return s.client.Close() }
