// Package search ranks stored records against a free-text question.
//
// Retrieval is two-stage: the full-text index narrows the corpus to a
// candidate set, then a Scorer re-ranks the candidates. The Scorer is an
// interface so the lexical default can be swapped for an embedding-backed
// implementation without touching the retrieval plumbing.
package search

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/vonshlovens/siteqa/internal/store"
)

// candidateFactor is how many candidates the first stage fetches per
// requested result.
const candidateFactor = 4

// Match pairs a record with its relevance to the query
type Match struct {
	Record store.Record
	Score  float64
}

// Scorer assigns a relevance score in [0, 1] to a candidate text for a
// query. Higher is more relevant.
type Scorer interface {
	Score(query, text string) float64
}

// CandidateSource produces full-text candidates for a query. Implemented
// by store.Store.
type CandidateSource interface {
	Search(ctx context.Context, query string, approvedOnly bool, limit int) ([]store.Record, error)
}

// Options tunes Similar
type Options struct {
	// Max is the number of matches to return; defaults to 5
	Max int
	// Threshold drops matches scoring below it
	Threshold float64
	// ApprovedOnly restricts candidates to approved records
	ApprovedOnly bool
}

// Similar finds the records most relevant to query. Results are sorted by
// descending score, capped at opts.Max.
func Similar(ctx context.Context, src CandidateSource, scorer Scorer, query string, opts Options) ([]Match, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	max := opts.Max
	if max <= 0 {
		max = 5
	}

	candidates, err := gatherCandidates(ctx, src, query, opts.ApprovedOnly, max*candidateFactor)
	if err != nil {
		return nil, err
	}

	var matches []Match
	for _, c := range candidates {
		score := scorer.Score(query, c.Question+"\n"+c.Answer)
		if score < opts.Threshold {
			continue
		}
		matches = append(matches, Match{Record: c, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Record.LocalID < matches[j].Record.LocalID
	})
	if len(matches) > max {
		matches = matches[:max]
	}
	return matches, nil
}

// gatherCandidates searches with the whole query first, then tops up with
// per-token searches. The full query matches conjunctively, so a single
// stray word would otherwise empty the candidate set.
func gatherCandidates(ctx context.Context, src CandidateSource, query string, approvedOnly bool, limit int) ([]store.Record, error) {
	records, err := src.Search(ctx, query, approvedOnly, limit)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool, len(records))
	for _, r := range records {
		seen[r.LocalID] = true
	}

	for _, token := range tokenize(query) {
		if len(records) >= limit {
			break
		}
		more, err := src.Search(ctx, token, approvedOnly, limit-len(records))
		if err != nil {
			return nil, err
		}
		for _, r := range more {
			if seen[r.LocalID] {
				continue
			}
			seen[r.LocalID] = true
			records = append(records, r)
		}
	}
	return records, nil
}

// LexicalScorer scores by query-token coverage. It needs no model files
// and no network, which keeps `similar` usable offline.
type LexicalScorer struct{}

func (LexicalScorer) Score(query, text string) float64 {
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return 0
	}

	textTokens := make(map[string]bool)
	for _, t := range tokenize(text) {
		textTokens[t] = true
	}

	hits := 0
	for _, t := range queryTokens {
		if textTokens[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(queryTokens))
}

// tokenize lowercases and splits on anything that is not a letter or digit,
// dropping duplicates while preserving first-seen order
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
