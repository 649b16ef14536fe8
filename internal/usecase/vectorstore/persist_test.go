package vectorstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/kailas-cloud/ragcore/internal/domain"
	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
	"github.com/kailas-cloud/ragcore/internal/repository/snapshot"
)

func dirRepo(t *testing.T) (*snapshot.Repo, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "index")
	return snapshot.New(snapshot.NewDirStorage(dir)), dir
}

func TestPersistRestore_RoundTrip(t *testing.T) {
	repo, dir := dirRepo(t)
	src := newTestStore(newWordEmbedder(), repo)
	seed(t, src)

	if err := src.Persist(context.Background()); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	for _, name := range []string{snapshot.IndexArtifact, snapshot.MetadataArtifact, snapshot.ConfigArtifact} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("artifact %s: %v", name, err)
		}
	}

	dst := newTestStore(newWordEmbedder(), repo)
	report, err := dst.Restore(context.Background())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !report.Loaded || report.Documents != 3 || report.ModelMismatch {
		t.Errorf("report = %+v", report)
	}

	want, err := src.Search(context.Background(), "rainfall forecast", 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := dst.Search(context.Background(), "rainfall forecast", 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID() != want[i].ID() || got[i].Score() != want[i].Score() {
			t.Errorf("result %d: got %s/%f, want %s/%f",
				i, got[i].ID(), got[i].Score(), want[i].ID(), want[i].Score())
		}
	}

	d, err := dst.Get("d3")
	if err != nil {
		t.Fatal(err)
	}
	orig := mustGet(t, src, "d3")
	if !reflect.DeepEqual(d.Embedding(), orig.Embedding()) {
		t.Error("embedding changed across round-trip")
	}
	if cat, _ := d.Metadata().String("category"); cat != "land" {
		t.Errorf("metadata category = %q", cat)
	}

	// Restored state accepts further adds and still skips known ids.
	n, err := dst.Add(context.Background(), []domdoc.Document{
		mustDoc(t, "d1", "cyclone", nil),
		mustDoc(t, "d7", "cyclone", nil),
	})
	if err != nil || n != 1 {
		t.Errorf("Add after restore = %d, %v", n, err)
	}
}

func TestRestore_NoSnapshot(t *testing.T) {
	repo, _ := dirRepo(t)
	s := newTestStore(newWordEmbedder(), repo)

	report, err := s.Restore(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Loaded {
		t.Error("expected nothing loaded")
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d", s.Len())
	}
}

func TestRestore_DimensionMismatch(t *testing.T) {
	repo, _ := dirRepo(t)
	src := newTestStore(newWordEmbedder(), repo)
	seed(t, src)
	if err := src.Persist(context.Background()); err != nil {
		t.Fatal(err)
	}

	small := newWordEmbedder()
	small.dim = 4
	dst := newTestStore(small, repo)
	if _, err := dst.Add(context.Background(), []domdoc.Document{mustDoc(t, "keep", "insat", nil)}); err != nil {
		t.Fatal(err)
	}

	_, err := dst.Restore(context.Background())
	if !errors.Is(err, domain.ErrSerialization) {
		t.Fatalf("expected ErrSerialization, got %v", err)
	}
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Errorf("expected ErrVectorDimMismatch in chain, got %v", err)
	}
	if dst.Len() != 1 {
		t.Errorf("state changed on failed restore: Len = %d", dst.Len())
	}
}

func TestRestore_ModelMismatchLoadsWithWarning(t *testing.T) {
	repo, _ := dirRepo(t)
	src := newTestStore(newWordEmbedder(), repo)
	seed(t, src)
	if err := src.Persist(context.Background()); err != nil {
		t.Fatal(err)
	}

	other := newWordEmbedder()
	other.model = "other-model"
	dst := newTestStore(other, repo)
	report, err := dst.Restore(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !report.Loaded || !report.ModelMismatch || report.SavedModel != "word-model" {
		t.Errorf("report = %+v", report)
	}
	if dst.Len() != 3 {
		t.Errorf("Len = %d", dst.Len())
	}
}

func TestRestore_ClearsBrokenState(t *testing.T) {
	repo, _ := dirRepo(t)
	src := newTestStore(newWordEmbedder(), repo)
	seed(t, src)
	if err := src.Persist(context.Background()); err != nil {
		t.Fatal(err)
	}

	src.mu.Lock()
	src.broken = &domain.IndexStateError{Documents: 3, Vectors: 2}
	src.mu.Unlock()

	if _, err := src.Restore(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := src.Search(context.Background(), "ocean", 1, nil); err != nil {
		t.Errorf("search after restore: %v", err)
	}
}

func TestPersist_WithoutRepository(t *testing.T) {
	s := newTestStore(newWordEmbedder(), nil)
	if err := s.Persist(context.Background()); !errors.Is(err, ErrNoSnapshotRepository) {
		t.Errorf("Persist = %v", err)
	}
	if _, err := s.Restore(context.Background()); !errors.Is(err, ErrNoSnapshotRepository) {
		t.Errorf("Restore = %v", err)
	}
}

func mustGet(t *testing.T, s *Store, id string) domdoc.Document {
	t.Helper()
	d, err := s.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	return d
}
