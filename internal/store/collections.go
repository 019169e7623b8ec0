package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	domainerrors "github.com/hejijunhao/taxon/internal/errors"
	"github.com/hejijunhao/taxon/internal/model"
)

// Meta returns the taxonomy metadata, zero-valued for an empty store.
func (d *DB) Meta(ctx context.Context) (model.Meta, error) {
	var meta model.Meta
	err := d.view(ctx, func(txn *badger.Txn) error {
		m, err := readMeta(txn)
		meta = m
		return err
	})
	return meta, err
}

// Departments returns every stored department, legacy entries normalized.
func (d *DB) Departments(ctx context.Context) ([]model.Department, error) {
	var out []model.Department
	err := d.view(ctx, func(txn *badger.Txn) error {
		var err error
		out, err = readDepartments(txn)
		return err
	})
	return out, err
}

// Keywords returns every stored keyword, archived ones included.
func (d *DB) Keywords(ctx context.Context) ([]model.Keyword, error) {
	var out []model.Keyword
	err := d.view(ctx, func(txn *badger.Txn) error {
		var err error
		out, err = d.readKeywords(txn)
		return err
	})
	return out, err
}

// Problems returns every stored problem, archived ones included.
func (d *DB) Problems(ctx context.Context) ([]model.Problem, error) {
	var out []model.Problem
	err := d.view(ctx, func(txn *badger.Txn) error {
		var err error
		out, err = d.readProblems(txn)
		return err
	})
	return out, err
}

// Proposals returns every stored proposal.
func (d *DB) Proposals(ctx context.Context) ([]model.Proposal, error) {
	var out []model.Proposal
	err := d.view(ctx, func(txn *badger.Txn) error {
		var err error
		out, err = readCollection[model.Proposal](txn, keyProposals, nil)
		return err
	})
	return out, err
}

// AppendKeyword adds kw unless an entity with the same ID is already stored.
func (d *DB) AppendKeyword(ctx context.Context, kw model.Keyword) error {
	return d.update(ctx, func(txn *badger.Txn) error {
		items, err := d.readKeywords(txn)
		if err != nil {
			return err
		}
		for _, existing := range items {
			if existing.ID == kw.ID {
				return nil
			}
		}
		return setJSON(txn, keyKeywords, append(items, kw))
	})
}

// AppendProblem adds p unless an entity with the same ID is already stored.
func (d *DB) AppendProblem(ctx context.Context, p model.Problem) error {
	return d.update(ctx, func(txn *badger.Txn) error {
		items, err := d.readProblems(txn)
		if err != nil {
			return err
		}
		for _, existing := range items {
			if existing.ID == p.ID {
				return nil
			}
		}
		return setJSON(txn, keyProblems, append(items, p))
	})
}

// UpdateKeyword applies fn to the stored keyword with the given ID and
// stamps UpdatedAt.
func (d *DB) UpdateKeyword(ctx context.Context, id string, fn func(*model.Keyword)) error {
	return d.update(ctx, func(txn *badger.Txn) error {
		items, err := d.readKeywords(txn)
		if err != nil {
			return err
		}
		for i := range items {
			if items[i].ID == id {
				fn(&items[i])
				items[i].UpdatedAt = d.now()
				return setJSON(txn, keyKeywords, items)
			}
		}
		return domainerrors.NotFoundf("keyword %s not found", id)
	})
}

// UpdateProblem applies fn to the stored problem with the given ID and
// stamps UpdatedAt.
func (d *DB) UpdateProblem(ctx context.Context, id string, fn func(*model.Problem)) error {
	return d.update(ctx, func(txn *badger.Txn) error {
		items, err := d.readProblems(txn)
		if err != nil {
			return err
		}
		for i := range items {
			if items[i].ID == id {
				fn(&items[i])
				items[i].UpdatedAt = d.now()
				return setJSON(txn, keyProblems, items)
			}
		}
		return domainerrors.NotFoundf("problem %s not found", id)
	})
}

// IncrementVersion bumps the taxonomy version, refreshes the active counts
// and records who made the change. A non-empty embeddingModel replaces the
// recorded model.
func (d *DB) IncrementVersion(ctx context.Context, updatedBy, embeddingModel string) (int, error) {
	var version int
	err := d.update(ctx, func(txn *badger.Txn) error {
		meta, err := readMeta(txn)
		if err != nil {
			return err
		}
		meta.Version++
		if embeddingModel != "" {
			meta.EmbeddingModel = embeddingModel
		}
		if err := d.stampMeta(txn, &meta, updatedBy); err != nil {
			return err
		}
		version = meta.Version
		return setJSON(txn, keyMeta, meta)
	})
	return version, err
}

// stampMeta recounts the active entities visible in txn and records the
// update time and actor.
func (d *DB) stampMeta(txn *badger.Txn, meta *model.Meta, updatedBy string) error {
	depts, err := readDepartments(txn)
	if err != nil {
		return err
	}
	kws, err := d.readKeywords(txn)
	if err != nil {
		return err
	}
	pbs, err := d.readProblems(txn)
	if err != nil {
		return err
	}

	meta.UpdatedAt = d.now()
	meta.UpdatedBy = updatedBy
	meta.DepartmentsCount = 0
	for _, dp := range depts {
		if dp.Active {
			meta.DepartmentsCount++
		}
	}
	meta.KeywordsCount = 0
	for _, kw := range kws {
		if kw.IsActive() {
			meta.KeywordsCount++
		}
	}
	meta.ProblemsCount = 0
	for _, p := range pbs {
		if p.IsActive() {
			meta.ProblemsCount++
		}
	}
	return nil
}

// PutDepartments replaces the department list.
func (d *DB) PutDepartments(ctx context.Context, depts []model.Department) error {
	return d.update(ctx, func(txn *badger.Txn) error {
		return setJSON(txn, keyDepartments, depts)
	})
}

// AppendProposal stores p unless a proposal with its id exists.
func (d *DB) AppendProposal(ctx context.Context, p model.Proposal) error {
	return d.update(ctx, func(txn *badger.Txn) error {
		items, err := readCollection[model.Proposal](txn, keyProposals, nil)
		if err != nil {
			return err
		}
		for _, existing := range items {
			if existing.ID == p.ID {
				return nil
			}
		}
		return setJSON(txn, keyProposals, append(items, p))
	})
}

func readMeta(txn *badger.Txn) (model.Meta, error) {
	var meta model.Meta
	data, err := getRaw(txn, keyMeta)
	if err != nil || data == nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("decode %s: %w", keyMeta, err)
	}
	return meta, nil
}

func readDepartments(txn *badger.Txn) ([]model.Department, error) {
	return readCollection(txn, keyDepartments, legacyDepartmentFrom)
}

func (d *DB) readKeywords(txn *badger.Txn) ([]model.Keyword, error) {
	return readCollection(txn, keyKeywords, legacyKeywordFrom(d.now()))
}

func (d *DB) readProblems(txn *badger.Txn) ([]model.Problem, error) {
	return readCollection(txn, keyProblems, legacyProblemFrom(d.now()))
}

func readCollection[T any](txn *badger.Txn, key []byte, legacy func(string, int) T) ([]T, error) {
	data, err := getRaw(txn, key)
	if err != nil {
		return nil, err
	}
	items, err := decodeItems(data, legacy)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return items, nil
}
