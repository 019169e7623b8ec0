// Package store persists the taxonomy as a handful of JSON documents in
// badger: one meta record plus one array per collection. Writes use
// array-union semantics inside a single transaction; nothing is ever
// deleted, entities are retired by status.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/hejijunhao/taxon/internal/model"
)

// Reader loads the taxonomy collections. Each call is independent so the
// cache can fetch them in parallel.
type Reader interface {
	Meta(ctx context.Context) (model.Meta, error)
	Departments(ctx context.Context) ([]model.Department, error)
	Keywords(ctx context.Context) ([]model.Keyword, error)
	Problems(ctx context.Context) ([]model.Problem, error)
	Proposals(ctx context.Context) ([]model.Proposal, error)
}

// Writer applies taxonomy mutations.
type Writer interface {
	AppendKeyword(ctx context.Context, kw model.Keyword) error
	AppendProblem(ctx context.Context, p model.Problem) error
	UpdateKeyword(ctx context.Context, id string, fn func(*model.Keyword)) error
	UpdateProblem(ctx context.Context, id string, fn func(*model.Problem)) error
	// IncrementVersion bumps meta.version by one and refreshes counts.
	// An empty embeddingModel keeps the recorded one.
	IncrementVersion(ctx context.Context, updatedBy, embeddingModel string) (int, error)
	PutDepartments(ctx context.Context, depts []model.Department) error
	AppendProposal(ctx context.Context, p model.Proposal) error
}

// Store is the full taxonomy persistence contract.
type Store interface {
	Reader
	Writer
}

var (
	keyMeta        = []byte("taxonomy/meta")
	keyDepartments = []byte("taxonomy/departments")
	keyKeywords    = []byte("taxonomy/keywords")
	keyProblems    = []byte("taxonomy/problems")
	keyProposals   = []byte("taxonomy/proposals")
)

// DB is a badger-backed Store.
type DB struct {
	db     *badger.DB
	logger *slog.Logger
	now    func() time.Time
}

var _ Store = (*DB)(nil)

// Option configures a DB.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	syncWrites bool
	now        func() time.Time
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSyncWrites controls fsync on every commit. Default: true.
func WithSyncWrites(on bool) Option {
	return func(o *options) { o.syncWrites = on }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Open opens the store at path. An empty path opens an in-memory database,
// used by tests and one-shot CLI runs.
func Open(path string, opts ...Option) (*DB, error) {
	o := options{logger: slog.Default(), syncWrites: true, now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}

	bopts := badger.DefaultOptions(path)
	if path == "" {
		bopts = bopts.WithInMemory(true)
	}
	bopts.Logger = nil
	bopts.SyncWrites = o.syncWrites && path != ""
	bopts.CompactL0OnClose = true

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	o.logger.Debug("taxonomy store opened", "path", path, "in_memory", path == "")
	return &DB{db: db, logger: o.logger, now: o.now}, nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Import replaces the stored documents with the contents of a JSON
// document shaped like {"meta":{...},"departments":[...],"keywords":[...],
// "problems":[...]}. Collection elements are stored verbatim, so legacy
// plain-string entries survive until their first rewrite. The resulting
// version is the imported one or the stored one plus one, whichever is
// greater, and the counts are recomputed from the imported collections.
func (d *DB) Import(ctx context.Context, data []byte, updatedBy string) error {
	var doc struct {
		Meta        json.RawMessage `json:"meta"`
		Departments json.RawMessage `json:"departments"`
		Keywords    json.RawMessage `json:"keywords"`
		Problems    json.RawMessage `json:"problems"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode import document: %w", err)
	}

	return d.update(ctx, func(txn *badger.Txn) error {
		stored, err := readMeta(txn)
		if err != nil {
			return err
		}
		meta := stored
		if len(doc.Meta) > 0 {
			meta = model.Meta{}
			if err := json.Unmarshal(doc.Meta, &meta); err != nil {
				return fmt.Errorf("decode import meta: %w", err)
			}
			if meta.EmbeddingModel == "" {
				meta.EmbeddingModel = stored.EmbeddingModel
			}
		}
		meta.Version = max(meta.Version, stored.Version+1)

		for _, kv := range []struct {
			key []byte
			val json.RawMessage
		}{
			{keyDepartments, doc.Departments},
			{keyKeywords, doc.Keywords},
			{keyProblems, doc.Problems},
		} {
			if len(kv.val) == 0 {
				continue
			}
			if err := txn.Set(kv.key, kv.val); err != nil {
				return err
			}
		}

		if err := d.stampMeta(txn, &meta, updatedBy); err != nil {
			return err
		}
		return setJSON(txn, keyMeta, meta)
	})
}

// getRaw returns the value at key, or nil when it does not exist.
func getRaw(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set(key, data)
}

func (d *DB) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.db.View(fn)
}

func (d *DB) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.db.Update(fn)
}
