package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vonshlovens/siteqa/internal/store"
)

// fakeSource does naive substring matching over a fixed corpus
type fakeSource struct {
	records []store.Record
	err     error
	queries []string
}

func (s *fakeSource) Search(ctx context.Context, query string, approvedOnly bool, limit int) ([]store.Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.queries = append(s.queries, query)
	var out []store.Record
	for _, r := range s.records {
		if approvedOnly && !r.Approved {
			continue
		}
		text := strings.ToLower(r.Question + " " + r.Answer)
		all := true
		for _, token := range tokenize(query) {
			if !strings.Contains(text, token) {
				all = false
				break
			}
		}
		if all {
			out = append(out, r)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func rec(id int64, question, answer string, approved bool) store.Record {
	return store.Record{LocalID: id, Question: question, Answer: answer, Approved: approved}
}

func TestLexicalScorer(t *testing.T) {
	tests := []struct {
		name  string
		query string
		text  string
		want  float64
	}{
		{"full overlap", "reset password", "How do I reset my password?", 1.0},
		{"half overlap", "reset token", "How do I reset my password?", 0.5},
		{"no overlap", "billing refund", "How do I reset my password?", 0.0},
		{"case and punctuation ignored", "RESET... Password!", "reset the password", 1.0},
		{"empty query", "", "anything", 0.0},
	}

	var s LexicalScorer
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Score(tt.query, tt.text); got != tt.want {
				t.Errorf("Score(%q, %q) = %v, want %v", tt.query, tt.text, got, tt.want)
			}
		})
	}
}

func TestSimilarRanksByScore(t *testing.T) {
	src := &fakeSource{records: []store.Record{
		rec(1, "How do I reset my password?", "Use the reset link.", true),
		rec(2, "Where do I change my password?", "In account settings.", true),
		rec(3, "How do refunds work?", "Within 30 days.", true),
	}}

	matches, err := Similar(context.Background(), src, LexicalScorer{}, "reset password", Options{Max: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) == 0 {
		t.Fatal("no matches")
	}
	if matches[0].Record.LocalID != 1 {
		t.Errorf("top match = %d, want 1", matches[0].Record.LocalID)
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Errorf("matches not sorted by descending score: %v then %v", matches[i-1].Score, matches[i].Score)
		}
	}
}

func TestSimilarTopsUpPerToken(t *testing.T) {
	// No record contains both tokens, so the full-query search returns
	// nothing and the per-token fallback must kick in
	src := &fakeSource{records: []store.Record{
		rec(1, "How do I reset my login?", "Use the link.", true),
		rec(2, "Where is my password stored?", "Locally.", true),
	}}

	matches, err := Similar(context.Background(), src, LexicalScorer{}, "reset password", Options{Max: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2 via per-token top-up", len(matches))
	}
}

func TestSimilarThreshold(t *testing.T) {
	src := &fakeSource{records: []store.Record{
		rec(1, "How do I reset my password?", "Use the reset link.", true),
		rec(2, "Password requirements", "Twelve characters.", true),
	}}

	matches, err := Similar(context.Background(), src, LexicalScorer{}, "reset password", Options{Max: 5, Threshold: 0.9})
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1 above threshold", len(matches))
	}
	if matches[0].Record.LocalID != 1 {
		t.Errorf("match = %d, want 1", matches[0].Record.LocalID)
	}
}

func TestSimilarApprovedOnly(t *testing.T) {
	src := &fakeSource{records: []store.Record{
		rec(1, "How do I reset my password?", "Draft answer.", false),
		rec(2, "How do I reset my password?", "Approved answer.", true),
	}}

	matches, err := Similar(context.Background(), src, LexicalScorer{}, "reset password", Options{Max: 5, ApprovedOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range matches {
		if !m.Record.Approved {
			t.Errorf("unapproved record %d in approved-only results", m.Record.LocalID)
		}
	}
	if len(matches) != 1 {
		t.Errorf("matches = %d, want 1", len(matches))
	}
}

func TestSimilarEmptyQuery(t *testing.T) {
	src := &fakeSource{}
	matches, err := Similar(context.Background(), src, LexicalScorer{}, "   ", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if matches != nil {
		t.Errorf("matches = %v, want nil", matches)
	}
	if len(src.queries) != 0 {
		t.Error("empty query still hit the candidate source")
	}
}

func TestSimilarSourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("index corrupt")}
	if _, err := Similar(context.Background(), src, LexicalScorer{}, "reset", Options{}); err == nil {
		t.Fatal("expected error from candidate source")
	}
}
