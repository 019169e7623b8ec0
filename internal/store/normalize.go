package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hejijunhao/taxon/internal/model"
	"github.com/hejijunhao/taxon/internal/textnorm"
)

// LegacyCreatedBy marks entities synthesized from plain-string entries.
const LegacyCreatedBy = "migration"

// legacyDepartment is where a legacy keyword without a "Dept - " prefix lands.
const legacyDepartment = "Operacoes"

// decodeItems decodes a stored collection. Elements are either tagged
// objects or legacy plain strings; legacy strings are converted with the
// supplied constructor so callers only ever see T.
func decodeItems[T any](data []byte, legacy func(label string, index int) T) ([]T, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	out := make([]T, 0, len(raw))
	for i, r := range raw {
		r = bytes.TrimSpace(r)
		if len(r) > 0 && r[0] == '"' {
			var s string
			if err := json.Unmarshal(r, &s); err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			if s = strings.TrimSpace(s); s == "" {
				continue
			}
			if legacy == nil {
				return nil, fmt.Errorf("element %d: unexpected string %q", i, s)
			}
			out = append(out, legacy(s, i))
			continue
		}
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func legacyID(prefix string, index int) string {
	return fmt.Sprintf("%s-legacy-%d", prefix, index)
}

func legacyDepartmentFrom(label string, index int) model.Department {
	return model.Department{
		ID:          label,
		Label:       label,
		Description: "Departamento " + label,
		Active:      true,
		Order:       index + 1,
	}
}

func legacyKeywordFrom(now time.Time) func(string, int) model.Keyword {
	return func(label string, index int) model.Keyword {
		dept := legacyDepartment
		if head, _, ok := strings.Cut(label, " - "); ok {
			dept = strings.TrimSpace(head)
		}
		return model.Keyword{
			ID:           legacyID("kw", index),
			Label:        label,
			DepartmentID: dept,
			Slug:         textnorm.Slug(label),
			Aliases:      []string{strings.ToLower(label)},
			Description:  "Keyword: " + label,
			Examples:     []string{label},
			Status:       model.StatusActive,
			CreatedBy:    LegacyCreatedBy,
			CreatedAt:    now,
			UpdatedAt:    now,
			Version:      1,
		}
	}
}

func legacyProblemFrom(now time.Time) func(string, int) model.Problem {
	return func(label string, index int) model.Problem {
		return model.Problem{
			ID:          legacyID("pb", index),
			Label:       label,
			Slug:        textnorm.Slug(label),
			Aliases:     []string{strings.ToLower(label)},
			Description: "Problem: " + label,
			Examples:    []string{label},
			Status:      model.StatusActive,
			Category:    "Geral",
			Severity:    model.SeverityMedium,
			CreatedBy:   LegacyCreatedBy,
			CreatedAt:   now,
			UpdatedAt:   now,
			Version:     1,
		}
	}
}
