// Package cassandra is a persisted warm-load backend over gocql (not a
// RecordSource itself): a
// single keyspace, one JSON-blob-per-row table, used to warm-load one
// process's base source at startup.
package cassandra

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"

	"github.com/zugkraft/normcache/internal/record"
	"github.com/zugkraft/normcache/internal/recordstore"
)

// Store persists records into a `records(id text primary key, data blob)`
// table.
type Store struct {
	session  *gocql.Session
	keyspace string
}

// New connects to the named keyspace across hosts.
func New(keyspace string, hosts ...string) (*Store, error) {
	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	cluster.NumConns = 2

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("cassandra: create session: %w", err)
	}
	return &Store{session: session, keyspace: keyspace}, nil
}

// Close releases the session.
func (s *Store) Close() {
	s.session.Close()
}

// SaveRecord persists one record.
func (s *Store) SaveRecord(ctx context.Context, id record.DataID, rec record.Record) error {
	data, err := recordstore.EncodeRecord(id, rec)
	if err != nil {
		return err
	}
	return s.session.Query(
		"INSERT INTO records (id, data) VALUES (?, ?)", string(id), data,
	).WithContext(ctx).Exec()
}

// DeleteRecord discards a persisted record.
func (s *Store) DeleteRecord(ctx context.Context, id record.DataID) error {
	return s.session.Query("DELETE FROM records WHERE id = ?", string(id)).WithContext(ctx).Exec()
}

// Persist snapshots every Existent record in src and saves it.
func (s *Store) Persist(ctx context.Context, src record.Source) error {
	for id, rec := range recordstore.Snapshot(src) {
		if err := s.SaveRecord(ctx, id, rec); err != nil {
			return fmt.Errorf("cassandra: persist %s: %w", id, err)
		}
	}
	return nil
}

// LoadInto scans every persisted record and installs it into dst.
func (s *Store) LoadInto(ctx context.Context, dst record.MutableSource) error {
	iter := s.session.Query("SELECT data FROM records").WithContext(ctx).Iter()

	var data []byte
	for iter.Scan(&data) {
		id, rec, err := recordstore.DecodeRecord(data)
		if err != nil {
			return err
		}
		dst.Set(id, rec)
	}
	return iter.Close()
}
