// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package recommend

import (
	"slices"
	"strings"
	"time"

	"github.com/tomtom215/crumb/internal/models"
)

type keywordStat struct {
	keyword    string
	count      int
	lastSeen   time.Time
	firstIndex int
}

// ExtractKeywords returns up to topN distinct trimmed queries ordered by
// frequency. Ties go to the most recently searched keyword, then to the one
// that appears first in history. Matching is exact and case-sensitive.
func ExtractKeywords(history []models.SearchHistoryRecord, topN int) []string {
	if topN < 1 {
		return []string{}
	}

	stats := make(map[string]*keywordStat)
	order := make([]*keywordStat, 0, len(history))

	for i := range history {
		q := strings.TrimSpace(history[i].Query)
		if q == "" {
			continue
		}
		s, ok := stats[q]
		if !ok {
			s = &keywordStat{keyword: q, firstIndex: i}
			stats[q] = s
			order = append(order, s)
		}
		s.count++
		if history[i].CreatedAt.After(s.lastSeen) {
			s.lastSeen = history[i].CreatedAt
		}
	}

	slices.SortFunc(order, func(a, b *keywordStat) int {
		if a.count != b.count {
			return b.count - a.count
		}
		if c := b.lastSeen.Compare(a.lastSeen); c != 0 {
			return c
		}
		return a.firstIndex - b.firstIndex
	})

	if len(order) > topN {
		order = order[:topN]
	}
	out := make([]string, len(order))
	for i, s := range order {
		out[i] = s.keyword
	}
	return out
}
