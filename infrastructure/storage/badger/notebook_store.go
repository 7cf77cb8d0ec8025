package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/helixforge/labrun/domain/notebook"
)

// NotebookStore is a BadgerDB-backed implementation of notebook.Store.
// Entries are keyed by a monotonically increasing sequence so iteration
// order is append order.
type NotebookStore struct {
	db        *badger.DB
	keyPrefix string
}

var _ notebook.Store = (*NotebookStore)(nil)

// NewNotebookStore opens the database at the configured path.
func NewNotebookStore(cfg Config, opts ...Option) (*NotebookStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	return &NotebookStore{db: db, keyPrefix: cfg.KeyPrefix}, nil
}

// NewNotebookStoreFromDB creates a store from an existing database.
func NewNotebookStoreFromDB(db *badger.DB, keyPrefix string) *NotebookStore {
	return &NotebookStore{db: db, keyPrefix: keyPrefix}
}

// Key format: prefix + "entry:" + sequence (8 bytes, big-endian).
func (s *NotebookStore) entryKey(seq uint64) []byte {
	seqBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(seqBytes, seq)
	return append([]byte(s.keyPrefix+"entry:"), seqBytes...)
}

func (s *NotebookStore) seqKey() []byte {
	return []byte(s.keyPrefix + "seq")
}

// Append durably records an entry in a single transaction.
func (s *NotebookStore) Append(ctx context.Context, entry notebook.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		var seq uint64
		item, err := txn.Get(s.seqKey())
		if err == nil {
			err = item.Value(func(val []byte) error {
				if len(val) == 8 {
					seq = binary.BigEndian.Uint64(val)
				}
				return nil
			})
			if err != nil {
				return err
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		seq++
		seqBytes := make([]byte, 8)
		binary.BigEndian.PutUint64(seqBytes, seq)

		if err := txn.Set(s.entryKey(seq), data); err != nil {
			return err
		}
		return txn.Set(s.seqKey(), seqBytes)
	})
}

// Read returns all entries in append order.
func (s *NotebookStore) Read(ctx context.Context) ([]notebook.Entry, error) {
	return s.scan(ctx, func(notebook.Entry) bool { return true })
}

// ReadSince returns entries appended strictly after the given time.
func (s *NotebookStore) ReadSince(ctx context.Context, since time.Time) ([]notebook.Entry, error) {
	return s.scan(ctx, func(e notebook.Entry) bool { return e.Timestamp.After(since) })
}

func (s *NotebookStore) scan(ctx context.Context, keep func(notebook.Entry) bool) ([]notebook.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entries []notebook.Entry
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(s.keyPrefix + "entry:")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var e notebook.Entry
				if err := json.Unmarshal(val, &e); err != nil {
					return err
				}
				if keep(e) {
					entries = append(entries, e)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return entries, err
}

// Close closes the database.
func (s *NotebookStore) Close() error {
	return s.db.Close()
}
