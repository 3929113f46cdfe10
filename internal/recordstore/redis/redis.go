// Package redis is a persisted warm-load backend over go-redis (not a
// RecordSource itself): one
// string key per DataID, holding a whole record.Record encoded by
// internal/recordstore's codec.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/zugkraft/normcache/internal/record"
	"github.com/zugkraft/normcache/internal/recordstore"
)

const (
	keyPrefix  = "normcache:record:"
	defaultTTL = time.Hour
)

// Store persists records into Redis, one string key per DataID, and can
// reload them into a fresh InMemorySource at startup.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New opens a Store against the Redis instance at addr, selecting db.
func New(addr string, db int) *Store {
	return &Store{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: "", DB: db}),
		ttl:    defaultTTL,
	}
}

// WithTTL overrides the expiry applied to every persisted record. A TTL
// of zero or less leaves the current setting unchanged.
func (s *Store) WithTTL(ttl time.Duration) *Store {
	if ttl > 0 {
		s.ttl = ttl
	}
	return s
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

func recordKey(id record.DataID) string {
	return keyPrefix + string(id)
}

// SaveRecord persists one record.
func (s *Store) SaveRecord(ctx context.Context, id record.DataID, rec record.Record) error {
	data, err := recordstore.EncodeRecord(id, rec)
	if err != nil {
		return err
	}
	ttl := s.ttl
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return s.client.Set(ctx, recordKey(id), data, ttl).Err()
}

// DeleteRecord discards a persisted record, e.g. when its source id is
// GC'd or tombstoned.
func (s *Store) DeleteRecord(ctx context.Context, id record.DataID) error {
	return s.client.Del(ctx, recordKey(id)).Err()
}

// Persist snapshots every Existent record in src and saves it.
func (s *Store) Persist(ctx context.Context, src record.Source) error {
	for id, rec := range recordstore.Snapshot(src) {
		if err := s.SaveRecord(ctx, id, rec); err != nil {
			return fmt.Errorf("redis: persist %s: %w", id, err)
		}
	}
	return nil
}

// LoadInto scans every persisted record and installs it into dst, for
// warm-loading a fresh process's base source before serving traffic.
func (s *Store) LoadInto(ctx context.Context, dst record.MutableSource) error {
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return fmt.Errorf("redis: get %s: %w", iter.Val(), err)
		}
		id, rec, err := recordstore.DecodeRecord(data)
		if err != nil {
			return err
		}
		dst.Set(id, rec)
	}
	return iter.Err()
}
