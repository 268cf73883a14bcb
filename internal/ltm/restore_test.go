package ltm

import (
	"context"
	"testing"
	"time"
)

func TestStore_ExportRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t)

	g := &group{Name: "pair", Members: []Storable{&element{"b"}, &element{"a"}}}
	if _, err := src.Put(ctx, g); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, err := src.Put(ctx, g); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	records, err := src.Export(ctx)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Export() returned %d records, want 3", len(records))
	}

	dst := newTestStore(t)
	n, err := dst.Restore(ctx, records, false)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Restore() = %d, want 3", n)
	}

	rec, err := dst.Get(ctx, "ltm.group:pair")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.TimesStored != 2 {
		t.Errorf("TimesStored = %d, want 2", rec.TimesStored)
	}
	wantDeps := []string{"ltm.element:b", "ltm.element:a"}
	if !equalStrings(rec.Dependencies, wantDeps) {
		t.Errorf("Dependencies = %v, want %v", rec.Dependencies, wantDeps)
	}
}

func TestStore_RestoreSkipsExisting(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Put(ctx, &element{"a"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	records := []Record{{
		Key:         "ltm.element:a",
		Kind:        "ltm.element",
		Label:       "restored",
		TimesStored: 9,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}}

	n, err := s.Restore(ctx, records, false)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Restore() = %d, want 0 without replace", n)
	}

	n, err = s.Restore(ctx, records, true)
	if err != nil {
		t.Fatalf("Restore(replace) error = %v", err)
	}
	if n != 1 {
		t.Errorf("Restore(replace) = %d, want 1", n)
	}

	rec, err := s.Get(ctx, "ltm.element:a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.Label != "restored" || rec.TimesStored != 9 {
		t.Errorf("got label %q stored %d, want restored/9", rec.Label, rec.TimesStored)
	}
}

func TestStore_RestoreRejectsDanglingDependency(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	records := []Record{{
		Key:          "ltm.group:g",
		Kind:         "ltm.group",
		Label:        "g",
		Dependencies: []string{"ltm.element:missing"},
	}}
	if _, err := s.Restore(ctx, records, false); err == nil {
		t.Fatal("expected error for dependency on a key that is not stored")
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Count() = %d after failed restore, want 0", count)
	}
}

func TestStore_RestoreRequiresKey(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Restore(context.Background(), []Record{{Kind: "x"}}, false); err == nil {
		t.Fatal("expected error for record without key")
	}
}
