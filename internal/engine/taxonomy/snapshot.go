package taxonomy

import (
	"time"

	"github.com/hejijunhao/taxon/internal/model"
)

// Snapshot is an immutable view of the active taxonomy. Readers share it
// without locking; a reload publishes a new Snapshot instead of mutating
// this one.
type Snapshot struct {
	Version     int
	Meta        model.Meta
	Departments []model.Department // active, by Order
	Keywords    []model.Keyword    // active
	Problems    []model.Problem    // active
	LoadedAt    time.Time
	ExpiresAt   time.Time

	generation uint64
	deptIndex  map[string]int
}

// NewSnapshot builds a snapshot from raw collections, keeping only active
// entities and ordering departments by Order.
func NewSnapshot(meta model.Meta, depts []model.Department, kws []model.Keyword, pbs []model.Problem, loadedAt time.Time, ttl time.Duration) *Snapshot {
	s := &Snapshot{
		Version:   meta.Version,
		Meta:      meta,
		LoadedAt:  loadedAt,
		ExpiresAt: loadedAt.Add(ttl),
		deptIndex: make(map[string]int, len(depts)),
	}
	for _, d := range depts {
		if d.Active {
			s.Departments = append(s.Departments, d)
		}
	}
	sortDepartments(s.Departments)
	for i, d := range s.Departments {
		s.deptIndex[d.ID] = i
	}
	for _, kw := range kws {
		if kw.IsActive() {
			s.Keywords = append(s.Keywords, kw)
		}
	}
	for _, p := range pbs {
		if p.IsActive() {
			s.Problems = append(s.Problems, p)
		}
	}
	return s
}

// Department returns the active department with the given ID.
func (s *Snapshot) Department(id string) (model.Department, bool) {
	i, ok := s.deptIndex[id]
	if !ok {
		return model.Department{}, false
	}
	return s.Departments[i], true
}

// Coverage counts active entities and how many carry an embedding.
type Coverage struct {
	Keywords             int `json:"keywords"`
	KeywordsWithVectors  int `json:"keywords_with_embeddings"`
	Problems             int `json:"problems"`
	ProblemsWithVectors  int `json:"problems_with_embeddings"`
	KeywordsWithoutSlugs int `json:"keywords_without_slug"`
}

// Coverage reports embedding coverage for the snapshot.
func (s *Snapshot) Coverage() Coverage {
	c := Coverage{Keywords: len(s.Keywords), Problems: len(s.Problems)}
	for _, kw := range s.Keywords {
		if kw.HasEmbedding() {
			c.KeywordsWithVectors++
		}
		if kw.Slug == "" {
			c.KeywordsWithoutSlugs++
		}
	}
	for _, p := range s.Problems {
		if p.HasEmbedding() {
			c.ProblemsWithVectors++
		}
	}
	return c
}
