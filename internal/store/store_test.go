package store

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleFields() Fields {
	return Fields{
		SiteName:       "Lab A",
		Category:       "Database",
		Subcategory:    "Logs",
		Question:       "Where are the audit logs kept?",
		Answer:         "On the primary under /var/log/audit.",
		AdditionalInfo: "Rotated weekly.",
		Approved:       true,
	}
}

func TestInsertAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Insert(ctx, sampleFields())
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if id == 0 {
		t.Fatal("Insert returned zero id")
	}

	rec, err := s.GetByLocalID(ctx, id)
	if err != nil {
		t.Fatalf("GetByLocalID failed: %v", err)
	}
	if rec == nil {
		t.Fatal("record not found after insert")
	}
	if rec.SiteName != "Lab A" || !rec.Approved {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.RemoteID != nil {
		t.Errorf("fresh record should have no remote id, got %v", *rec.RemoteID)
	}
}

func TestLocalIDsNotReused(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Insert(ctx, sampleFields())
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if _, err := s.DeleteByLocalID(ctx, first); err != nil {
		t.Fatalf("DeleteByLocalID failed: %v", err)
	}

	second, err := s.Insert(ctx, sampleFields())
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if second <= first {
		t.Errorf("local id %d reused after delete of %d", second, first)
	}
}

func TestAttachAndGetByRemoteID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Insert(ctx, sampleFields())
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	changed, err := s.AttachRemoteID(ctx, id, "r1")
	if err != nil {
		t.Fatalf("AttachRemoteID failed: %v", err)
	}
	if changed != 1 {
		t.Errorf("AttachRemoteID changed %d rows, want 1", changed)
	}

	rec, err := s.GetByRemoteID(ctx, "r1")
	if err != nil {
		t.Fatalf("GetByRemoteID failed: %v", err)
	}
	if rec == nil || rec.LocalID != id {
		t.Errorf("GetByRemoteID returned %+v, want local id %d", rec, id)
	}

	missing, err := s.GetByRemoteID(ctx, "nope")
	if err != nil {
		t.Fatalf("GetByRemoteID failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown remote id, got %+v", missing)
	}
}

func TestUpdatePreservesRemoteID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Insert(ctx, sampleFields())
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if _, err := s.AttachRemoteID(ctx, id, "r1"); err != nil {
		t.Fatalf("AttachRemoteID failed: %v", err)
	}

	f := sampleFields()
	f.Answer = "Moved to the log aggregator."
	changed, err := s.UpdateByLocalID(ctx, id, f)
	if err != nil {
		t.Fatalf("UpdateByLocalID failed: %v", err)
	}
	if changed != 1 {
		t.Errorf("UpdateByLocalID changed %d rows, want 1", changed)
	}

	rec, err := s.GetByLocalID(ctx, id)
	if err != nil {
		t.Fatalf("GetByLocalID failed: %v", err)
	}
	if rec.Answer != "Moved to the log aggregator." {
		t.Errorf("answer not updated: %q", rec.Answer)
	}
	if rec.RemoteID == nil || *rec.RemoteID != "r1" {
		t.Error("update without RemoteID should leave the remote link alone")
	}

	// Update carrying a remote id applies it
	rid := "r2"
	f.RemoteID = &rid
	if _, err := s.UpdateByLocalID(ctx, id, f); err != nil {
		t.Fatalf("UpdateByLocalID failed: %v", err)
	}
	rec, _ = s.GetByLocalID(ctx, id)
	if rec.RemoteID == nil || *rec.RemoteID != "r2" {
		t.Error("update carrying RemoteID should relink the record")
	}
}

func TestSetApproval(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f := sampleFields()
	f.Approved = false
	id, err := s.Insert(ctx, f)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if _, err := s.SetApproval(ctx, id, true); err != nil {
		t.Fatalf("SetApproval failed: %v", err)
	}
	rec, _ := s.GetByLocalID(ctx, id)
	if !rec.Approved {
		t.Error("record should be approved")
	}
}

func TestSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Insert(ctx, sampleFields()); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	other := Fields{
		SiteName: "Plant B", Category: "Network", Subcategory: "Firewall",
		Question: "Which ports are open?", Answer: "443 and 8443 only.",
		Approved: false,
	}
	if _, err := s.Insert(ctx, other); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	hits, err := s.Search(ctx, "audit logs", false, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 || hits[0].SiteName != "Lab A" {
		t.Errorf("Search returned %+v, want the Lab A record", hits)
	}

	// Approved filter drops the unapproved firewall record
	hits, err = s.SearchApproved(ctx, "ports", 10)
	if err != nil {
		t.Fatalf("SearchApproved failed: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("SearchApproved returned %d hits, want 0", len(hits))
	}

	// Empty query lists everything
	hits, err = s.Search(ctx, "", false, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("empty query returned %d records, want 2", len(hits))
	}
}

func TestRebuildFTS(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Insert(ctx, sampleFields()); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := s.RebuildFTS(ctx); err != nil {
		t.Fatalf("RebuildFTS failed: %v", err)
	}

	hits, err := s.Search(ctx, "audit", false, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("search after rebuild returned %d hits, want 1", len(hits))
	}
}

func TestCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Insert(ctx, sampleFields())
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if _, err := s.Insert(ctx, sampleFields()); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if _, err := s.AttachRemoteID(ctx, id, "r1"); err != nil {
		t.Fatalf("AttachRemoteID failed: %v", err)
	}

	total, unlinked, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if total != 2 || unlinked != 1 {
		t.Errorf("Count = (%d, %d), want (2, 1)", total, unlinked)
	}
}
