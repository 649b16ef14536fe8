package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kailas-cloud/ragcore/internal/domain"
	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
	"github.com/kailas-cloud/ragcore/internal/index"
)

func testSnapshot(t *testing.T) Snapshot {
	t.Helper()
	docs := []domdoc.Document{
		domdoc.Reconstruct("a", "INSAT-3D weather forecasting", domdoc.Metadata{"title": "INSAT"}, []float32{1, 0}),
		domdoc.Reconstruct("b", "OCEANSAT ocean color", nil, []float32{0.6, 0.8}),
	}
	idx := index.NewFlat(2)
	for i := range docs {
		if err := idx.Add(docs[i].Embedding()); err != nil {
			t.Fatal(err)
		}
	}
	return Snapshot{
		Config: Config{
			ModelName:      "test-model",
			Dimension:      2,
			TotalDocuments: 2,
			IndexType:      index.TypeFlatIP,
			CreatedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		Documents: docs,
		Index:     idx,
	}
}

func TestRepo_RoundTripDir(t *testing.T) {
	dir := t.TempDir()
	repo := New(NewDirStorage(dir))
	ctx := context.Background()
	in := testSnapshot(t)

	if err := repo.Save(ctx, in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	for _, name := range []string{IndexArtifact, MetadataArtifact, ConfigArtifact} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("artifact %s missing: %v", name, err)
		}
	}

	out, found, err := repo.Load(ctx)
	if err != nil || !found {
		t.Fatalf("Load: found=%v err=%v", found, err)
	}
	if out.Config.ModelName != "test-model" || out.Config.Dimension != 2 ||
		out.Config.TotalDocuments != 2 || out.Config.IndexType != index.TypeFlatIP {
		t.Errorf("config = %+v", out.Config)
	}
	if !out.Config.CreatedAt.Equal(in.Config.CreatedAt) {
		t.Errorf("created_at = %v, want %v", out.Config.CreatedAt, in.Config.CreatedAt)
	}
	if len(out.Documents) != 2 || out.Index.Len() != 2 {
		t.Fatalf("docs=%d vectors=%d", len(out.Documents), out.Index.Len())
	}
	for i := range in.Documents {
		a, b := in.Documents[i], out.Documents[i]
		if a.ID() != b.ID() || a.Content() != b.Content() {
			t.Errorf("doc %d = %q/%q, want %q/%q", i, b.ID(), b.Content(), a.ID(), a.Content())
		}
		for j := range a.Embedding() {
			if a.Embedding()[j] != b.Embedding()[j] {
				t.Errorf("doc %d embedding differs", i)
			}
		}
	}
	if title, _ := out.Documents[0].Metadata().Title(); title != "INSAT" {
		t.Errorf("metadata title = %q", title)
	}
}

func TestRepo_RoundTripKV(t *testing.T) {
	kv := newMapKV()
	repo := New(NewKVStorage(kv, "ragcore:snapshot:"))
	ctx := context.Background()

	if err := repo.Save(ctx, testSnapshot(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, ok := kv.data["ragcore:snapshot:"+ConfigArtifact]; !ok {
		t.Error("config key not written with prefix")
	}

	out, found, err := repo.Load(ctx)
	if err != nil || !found || len(out.Documents) != 2 {
		t.Fatalf("Load: found=%v err=%v", found, err)
	}
}

func TestRepo_LoadMissing(t *testing.T) {
	repo := New(NewDirStorage(filepath.Join(t.TempDir(), "nope")))

	_, found, err := repo.Load(context.Background())
	if err != nil || found {
		t.Errorf("Load = found %v, err %v; want false, nil", found, err)
	}
}

func TestRepo_LoadPartial(t *testing.T) {
	dir := t.TempDir()
	repo := New(NewDirStorage(dir))
	ctx := context.Background()
	_ = repo.Save(ctx, testSnapshot(t))

	if err := os.Remove(filepath.Join(dir, MetadataArtifact)); err != nil {
		t.Fatal(err)
	}
	_, _, err := repo.Load(ctx)
	if !errors.Is(err, domain.ErrSerialization) {
		t.Errorf("expected ErrSerialization, got %v", err)
	}
}

func TestRepo_LoadCorrupt(t *testing.T) {
	tests := []struct {
		name     string
		artifact string
		data     string
	}{
		{"bad config json", ConfigArtifact, "{"},
		{"bad metadata json", MetadataArtifact, "not json"},
		{"bad index", IndexArtifact, "garbage"},
		{"count mismatch", ConfigArtifact, `{"model_name":"test-model","dimension":2,"total_documents":5}`},
		{"id map mismatch", MetadataArtifact, `{"model_name":"m","dimension":2,"documents":[` +
			`{"id":"a","content":"x","embedding":[1,0]},{"id":"b","content":"y","embedding":[0,1]}],` +
			`"id_to_index":{"a":1,"b":0}}`},
		{"embedding dim mismatch", MetadataArtifact, `{"model_name":"m","dimension":2,"documents":[` +
			`{"id":"a","content":"x","embedding":[1,0,0]},{"id":"b","content":"y","embedding":[0,1]}],` +
			`"id_to_index":{"a":0,"b":1}}`},
		{"embedding differs from index", MetadataArtifact, `{"model_name":"m","dimension":2,"documents":[` +
			`{"id":"a","content":"x","embedding":[1,0]},{"id":"b","content":"y","embedding":[0,1]}],` +
			`"id_to_index":{"a":0,"b":1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			repo := New(NewDirStorage(dir))
			ctx := context.Background()
			_ = repo.Save(ctx, testSnapshot(t))

			if err := os.WriteFile(filepath.Join(dir, tt.artifact), []byte(tt.data), 0o644); err != nil {
				t.Fatal(err)
			}
			_, found, err := repo.Load(ctx)
			if !errors.Is(err, domain.ErrSerialization) {
				t.Errorf("expected ErrSerialization, got %v", err)
			}
			if found {
				t.Error("found must be false on error")
			}
		})
	}
}

func TestDirStorage_OverwriteLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	s := NewDirStorage(dir)
	ctx := context.Background()

	_ = s.Write(ctx, "a.bin", []byte("one"))
	_ = s.Write(ctx, "a.bin", []byte("two"))

	got, err := s.Read(ctx, "a.bin")
	if err != nil || string(got) != "two" {
		t.Errorf("Read = %q, %v", got, err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the artifact, got %d entries", len(entries))
	}
}
