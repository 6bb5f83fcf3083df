package model

import (
	"sort"
	"strings"
)

// SortMode orders a model list.
type SortMode string

const (
	SortByID      SortMode = "id"
	SortByPrice   SortMode = "price"
	SortByContext SortMode = "context"
)

// Search returns the models whose ID or name contains query,
// case-insensitive. An empty query returns the input unchanged.
func Search(models []Model, query string) []Model {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return models
	}

	out := make([]Model, 0, len(models))
	for _, m := range models {
		if strings.Contains(strings.ToLower(m.ID), query) ||
			strings.Contains(strings.ToLower(m.Name), query) {
			out = append(out, m)
		}
	}
	return out
}

// Sort returns a copy ordered by mode: id ascending, price and context
// descending so the priciest and largest models come first. Ties fall back
// to ID order.
func Sort(models []Model, mode SortMode) []Model {
	out := make([]Model, len(models))
	copy(out, models)

	switch mode {
	case SortByPrice:
		sort.SliceStable(out, func(i, j int) bool {
			cmp := out[i].PromptPrice.Cmp(out[j].PromptPrice)
			if cmp != 0 {
				return cmp > 0
			}
			return out[i].ID < out[j].ID
		})
	case SortByContext:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].ContextLength != out[j].ContextLength {
				return out[i].ContextLength > out[j].ContextLength
			}
			return out[i].ID < out[j].ID
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].ID < out[j].ID
		})
	}
	return out
}
