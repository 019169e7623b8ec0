// Package dedup finds existing taxonomy entries that a proposed label would
// collide with.
package dedup

import (
	"context"
	"fmt"
	"sort"

	domainerrors "github.com/hejijunhao/taxon/internal/errors"
	"github.com/hejijunhao/taxon/internal/engine/embedder"
	"github.com/hejijunhao/taxon/internal/engine/retriever"
	"github.com/hejijunhao/taxon/internal/engine/taxonomy"
	"github.com/hejijunhao/taxon/internal/model"
	"github.com/hejijunhao/taxon/internal/textnorm"
)

// DefaultThreshold is the cosine score above which two labels are treated
// as the same concept.
const DefaultThreshold = 0.75

// SnapshotSource supplies the taxonomy to compare against.
type SnapshotSource interface {
	Get(ctx context.Context, forceReload bool) (*taxonomy.Snapshot, error)
}

// Config controls duplicate detection.
type Config struct {
	Threshold float64 // default DefaultThreshold
}

// Detector compares a proposed label against the active entities of one
// kind. A slug collision always counts, with similarity 1.0.
type Detector struct {
	cfg      Config
	source   SnapshotSource
	embedder embedder.Embedder
}

// New creates a Detector with the given config.
func New(cfg Config, source SnapshotSource, emb embedder.Embedder) *Detector {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	return &Detector{cfg: cfg, source: source, embedder: emb}
}

// entry is the part of a keyword or problem that dedup looks at.
type entry struct {
	id        string
	label     string
	slug      string
	embedding []float32
}

// FindDuplicates returns every active entity of kind that collides with
// label, best match first. For keywords a non-empty departmentID restricts
// the comparison to that department.
//
// The label is embedded only if some candidate carries an embedding and did
// not already match by slug, so slug collisions are reported even when the
// embedding provider is down.
func (d *Detector) FindDuplicates(ctx context.Context, label string, kind model.Kind, departmentID string) ([]model.Duplicate, error) {
	snap, err := d.source.Get(ctx, false)
	if err != nil {
		return nil, err
	}

	entries, err := candidates(snap, kind, departmentID)
	if err != nil {
		return nil, err
	}

	slug := textnorm.Slug(label)
	var (
		dups  []model.Duplicate
		query []float32
	)
	for _, e := range entries {
		if e.slug == "" {
			e.slug = textnorm.Slug(e.label)
		}
		if slug != "" && e.slug == slug {
			dups = append(dups, model.Duplicate{ID: e.id, Label: e.label, Similarity: 1.0})
			continue
		}
		if len(e.embedding) == 0 {
			continue
		}
		if query == nil {
			query, err = d.embedder.Embed(ctx, label)
			if err != nil {
				return nil, embedder.Classify(err)
			}
		}
		sim, err := retriever.Cosine(query, e.embedding)
		if err != nil {
			return nil, err
		}
		if sim > d.cfg.Threshold {
			dups = append(dups, model.Duplicate{ID: e.id, Label: e.label, Similarity: sim})
		}
	}

	sort.SliceStable(dups, func(i, j int) bool { return dups[i].Similarity > dups[j].Similarity })
	return dups, nil
}

// Check fails with DUPLICATE_DETECTED carrying the best match when label
// collides with anything.
func (d *Detector) Check(ctx context.Context, label string, kind model.Kind, departmentID string) error {
	dups, err := d.FindDuplicates(ctx, label, kind, departmentID)
	if err != nil {
		return err
	}
	if len(dups) > 0 {
		return domainerrors.DuplicateDetected(dups[0])
	}
	return nil
}

func candidates(snap *taxonomy.Snapshot, kind model.Kind, departmentID string) ([]entry, error) {
	switch kind {
	case model.KindKeyword:
		out := make([]entry, 0, len(snap.Keywords))
		for _, k := range snap.Keywords {
			if departmentID != "" && k.DepartmentID != departmentID {
				continue
			}
			out = append(out, entry{id: k.ID, label: k.Label, slug: k.Slug, embedding: k.Embedding})
		}
		return out, nil
	case model.KindProblem:
		out := make([]entry, 0, len(snap.Problems))
		for _, p := range snap.Problems {
			out = append(out, entry{id: p.ID, label: p.Label, slug: p.Slug, embedding: p.Embedding})
		}
		return out, nil
	default:
		return nil, domainerrors.Validation(fmt.Sprintf("unknown kind %q", kind))
	}
}
