package ltm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_PutAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, b := &element{"a"}, &element{"b"}
	g := &group{Name: "pair", Members: []Storable{b, a}}

	key, err := s.Put(ctx, g)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if key != "ltm.group:pair" {
		t.Errorf("Put() key = %q, want %q", key, "ltm.group:pair")
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3 (group plus two members)", count)
	}

	rec, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.Label != "pair" {
		t.Errorf("Label = %q, want %q", rec.Label, "pair")
	}
	if rec.Kind != "ltm.group" {
		t.Errorf("Kind = %q, want %q", rec.Kind, "ltm.group")
	}
	wantDeps := []string{"ltm.element:b", "ltm.element:a"}
	if !equalStrings(rec.Dependencies, wantDeps) {
		t.Errorf("Dependencies = %v, want %v", rec.Dependencies, wantDeps)
	}

	leaf, err := s.Get(ctx, "ltm.element:a")
	if err != nil {
		t.Fatalf("Get(leaf) error = %v", err)
	}
	var content element
	if err := json.Unmarshal(leaf.Content, &content); err != nil {
		t.Fatalf("failed to decode content: %v", err)
	}
	if content.Value != "a" {
		t.Errorf("content.Value = %q, want %q", content.Value, "a")
	}
	if len(leaf.Dependencies) != 0 {
		t.Errorf("leaf Dependencies = %v, want empty", leaf.Dependencies)
	}
}

func TestStore_PutIsIdempotentAndCountsStores(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e := &element{"again"}
	for i := 0; i < 2; i++ {
		if _, err := s.Put(ctx, e); err != nil {
			t.Fatalf("Put() #%d error = %v", i+1, err)
		}
	}

	count, _ := s.Count(ctx)
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
	rec, err := s.Get(ctx, Key(e))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.TimesStored != 2 {
		t.Errorf("TimesStored = %d, want 2", rec.TimesStored)
	}
}

func TestStore_PutProxyStoresCanonical(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	canonical := &element{"canon"}
	key, err := s.Put(ctx, &proxy{canonical: canonical})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if key != Key(canonical) {
		t.Errorf("Put() key = %q, want %q", key, Key(canonical))
	}

	rec, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.Label != "canon" {
		t.Errorf("Label = %q, want canonical label", rec.Label)
	}
}

func TestStore_PutCycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	x := &group{Name: "x"}
	y := &group{Name: "y", Members: []Storable{x}}
	x.Members = []Storable{y}

	if _, err := s.Put(ctx, x); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	deps, err := s.Dependencies(ctx, "ltm.group:y")
	if err != nil {
		t.Fatalf("Dependencies() error = %v", err)
	}
	if !equalStrings(deps, []string{"ltm.group:x"}) {
		t.Errorf("Dependencies(y) = %v, want [ltm.group:x]", deps)
	}
}

func TestStore_PutUnlabeledPanics(t *testing.T) {
	s := newTestStore(t)

	r := recoverNotImplemented(t, func() {
		_, _ = s.Put(context.Background(), &unlabeled{Value: 1})
	})
	if r == nil {
		t.Fatal("expected panic storing an entity without BriefLabel")
	}
}

func TestStore_GetNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestStore_List(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, v := range []string{"c", "a", "b"} {
		if _, err := s.Put(ctx, &element{v}); err != nil {
			t.Fatalf("Put(%s) error = %v", v, err)
		}
	}

	records, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	got := make([]string, len(records))
	for i, r := range records {
		got[i] = r.Label
	}
	if !equalStrings(got, []string{"a", "b", "c"}) {
		t.Errorf("List() labels = %v, want [a b c]", got)
	}
}

func TestStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := s.Put(ctx, &element{"persisted"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	s.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s2.Close()

	if _, err := s2.Get(ctx, "ltm.element:persisted"); err != nil {
		t.Errorf("Get() after reopen error = %v", err)
	}
}
