package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// newTestReconciler wires the pipeline with the built-in tables and no
// external source.
func newTestReconciler() *Reconciler {
	translator := NewTranslator(DefaultTranslations())
	foodDB := NewFoodDB(DefaultFoodTable(), 70)
	lookup := NewLookup(foodDB, nil)
	weights := NewWeightResolver(2.5)
	return NewReconciler(translator, lookup, weights, 5)
}

// stubSource is a canned external composition source.
type stubSource struct {
	enabled    bool
	candidates []Candidate
	calls      int
}

func (s *stubSource) Enabled() bool { return s.enabled }

func (s *stubSource) SearchCandidates(query string, maxResults int) []Candidate {
	s.calls++
	if len(s.candidates) > maxResults {
		return s.candidates[:maxResults]
	}
	return s.candidates
}

// stubVision returns a fixed response or error and counts invocations.
type stubVision struct {
	text  string
	err   error
	calls int
}

func (s *stubVision) Describe(_ context.Context, _ []byte) (string, error) {
	s.calls++
	return s.text, s.err
}
