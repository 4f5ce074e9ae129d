package registry

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/boshu2/depgate/internal/identity"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "registry.json"))
}

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	s := testStore(t)

	reg := s.Load()
	if reg == nil {
		t.Fatal("Load returned nil")
	}
	if len(reg.Entities) != 0 {
		t.Errorf("expected empty registry, got %d entities", len(reg.Entities))
	}
	if reg.Version != SchemaVersion {
		t.Errorf("expected version %d, got %d", SchemaVersion, reg.Version)
	}
}

func TestLoadCorruptFileReturnsEmpty(t *testing.T) {
	s := testStore(t)
	if err := os.WriteFile(s.Path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	reg := s.Load()
	if len(reg.Entities) != 0 {
		t.Errorf("corrupt file should degrade to empty registry, got %d entities", len(reg.Entities))
	}
}

func TestLoadNewerSchemaReturnsEmpty(t *testing.T) {
	s := testStore(t)
	if err := os.WriteFile(s.Path, []byte(`{"version": 99, "entities": {"x": {"id": "x"}}}`), 0600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg := s.Load()
	if len(reg.Entities) != 0 {
		t.Errorf("newer schema should degrade to empty registry, got %d entities", len(reg.Entities))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := testStore(t)

	reg := New()
	e := reg.Ensure("leaf-unit:abc", identity.KindLeafUnit)
	e.Path = "pkg/parser"
	e.ContentFingerprint = "fp-1"
	e.SetChildren([]string{"leaf-unit:def"})
	e.Runs = append(e.Runs, TestRun{
		Timestamp:        time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		InputFingerprint: "in-1",
		Passed:           true,
		Novel:            true,
		FingerprintAtRun: "fp-1",
	})

	if err := s.Save(reg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := s.Load()
	ge := got.Get("leaf-unit:abc")
	if ge == nil {
		t.Fatal("entity missing after round trip")
	}
	if ge.ContentFingerprint != "fp-1" || ge.Path != "pkg/parser" {
		t.Errorf("entity fields lost: %+v", ge)
	}
	if len(ge.Runs) != 1 || ge.Runs[0].InputFingerprint != "in-1" || !ge.Runs[0].Novel {
		t.Errorf("run history lost: %+v", ge.Runs)
	}
	if len(ge.Children) != 1 || ge.Children[0] != "leaf-unit:def" {
		t.Errorf("children lost: %v", ge.Children)
	}
}

func TestSerializationStable(t *testing.T) {
	// save(load(save(R))) must equal save(R) byte for byte.
	s := testStore(t)

	reg := New()
	for _, id := range []string{"leaf-unit:c", "leaf-unit:a", "leaf-unit:b"} {
		e := reg.Ensure(id, identity.KindLeafUnit)
		e.Runs = append(e.Runs, TestRun{
			Timestamp:        time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			InputFingerprint: "in-" + id,
			Passed:           true,
			Novel:            true,
		})
	}

	if err := s.Save(reg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	first, err := os.ReadFile(s.Path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if err := s.Save(s.Load()); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	second, err := os.ReadFile(s.Path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Error("serialization is not stable across a load/save cycle")
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	s := testStore(t)
	if err := s.Save(New()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(s.Path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if name != filepath.Base(s.Path) && name != filepath.Base(s.Path)+".lock" {
			t.Errorf("unexpected leftover file: %s", name)
		}
	}
}

func TestMutateAppliesAndPersists(t *testing.T) {
	s := testStore(t)

	_, err := s.Mutate(func(reg *Registry) error {
		reg.Ensure("leaf-unit:abc", identity.KindLeafUnit).ContentFingerprint = "fp-9"
		return nil
	})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}

	got := s.Load().Get("leaf-unit:abc")
	if got == nil || got.ContentFingerprint != "fp-9" {
		t.Errorf("mutation not persisted: %+v", got)
	}
}

func TestEntityNovelPassingCount(t *testing.T) {
	e := &Entity{ID: "leaf-unit:abc"}
	e.Runs = []TestRun{
		{InputFingerprint: "i1", Passed: true, Novel: true},
		{InputFingerprint: "i1", Passed: true, Novel: false}, // replay: not novel
		{InputFingerprint: "i2", Passed: false, Novel: true}, // novel but failed
		{InputFingerprint: "i3", Passed: true, Novel: true},
	}

	if got := e.NovelPassingCount(); got != 2 {
		t.Errorf("NovelPassingCount = %d, want 2", got)
	}
}

func TestEntityChildrenDeduplicated(t *testing.T) {
	e := &Entity{ID: "composite-artifact:x"}
	e.SetChildren([]string{"a", "b", "a", "c", "b"})

	want := []string{"a", "b", "c"}
	if len(e.Children) != len(want) {
		t.Fatalf("children = %v, want %v", e.Children, want)
	}
	for i := range want {
		if e.Children[i] != want[i] {
			t.Errorf("children[%d] = %s, want %s (insertion order must be preserved)", i, e.Children[i], want[i])
		}
	}
}
