// Package search ranks documents against a free text query.
package search

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Document is one searchable entry. Fields are matched in order of importance.
type Document struct {
	Index  int
	Fields []string
}

type Match struct {
	Index int
	Score int
}

// fieldWeight keeps a hit on an earlier field ahead of any hit on a later one.
const fieldWeight = 1000

// Rank returns the documents matching query, best match first. A document
// matches when any field contains the query as a case insensitive substring or
// as a fuzzy subsequence. Ties keep the input order.
func Rank(query string, docs []Document) []Match {
	query = strings.TrimSpace(query)
	if query == "" {
		matches := make([]Match, 0, len(docs))
		for _, d := range docs {
			matches = append(matches, Match{Index: d.Index})
		}
		return matches
	}

	var matches []Match
	for _, d := range docs {
		if score, ok := scoreDocument(query, d.Fields); ok {
			matches = append(matches, Match{Index: d.Index, Score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })

	return matches
}

func scoreDocument(query string, fields []string) (int, bool) {
	lowered := strings.ToLower(query)

	best, found := 0, false
	for i, field := range fields {
		weight := (len(fields) - i) * fieldWeight

		var score int
		switch {
		case strings.Contains(strings.ToLower(field), lowered):
			score = weight + fieldWeight/2
		default:
			distance := fuzzy.RankMatchNormalizedFold(query, field)
			if distance < 0 {
				continue
			}
			score = weight - min(distance, fieldWeight/2-1)
		}

		if !found || score > best {
			best, found = score, true
		}
	}

	return best, found
}
