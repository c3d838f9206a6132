package frames

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"maskpipe/internal/services"
)

func writeFrames(t *testing.T, dir string, names ...string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestGatherSortsAndFilters(t *testing.T) {
	dir := t.TempDir()
	writeFrames(t, dir, "b.jpg", "a.PNG", "c.jpeg", "notes.txt", "d.gif")

	files, err := Gather(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 accepted files, got %d: %v", len(files), files)
	}
	want := []string{"a.PNG", "b.jpg", "c.jpeg"}
	for i, path := range files {
		if filepath.Base(path) != want[i] {
			t.Errorf("position %d: got %s, want %s", i, filepath.Base(path), want[i])
		}
		if !filepath.IsAbs(path) {
			t.Errorf("expected absolute path, got %s", path)
		}
	}
}

func TestGatherMissingDirectory(t *testing.T) {
	_, err := Gather(filepath.Join(t.TempDir(), "absent"))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestEnsureIndexedRebuild(t *testing.T) {
	src := filepath.Join(t.TempDir(), "dress")
	writeFrames(t, src, "walk_02.JPG", "walk_01.jpg", "walk_03.png")
	dst := src + "_indexed"

	seq, err := EnsureIndexed(src, dst)
	if err != nil {
		t.Fatal(err)
	}
	if seq.Len() != 3 {
		t.Fatalf("expected 3 frames, got %d", seq.Len())
	}

	wantNames := []string{"000000.jpg", "000001.jpg", "000002.png"}
	wantOriginals := []string{"walk_01.jpg", "walk_02.JPG", "walk_03.png"}
	for i, frame := range seq.Frames {
		if frame.Index != i {
			t.Errorf("frame %d: index %d", i, frame.Index)
		}
		if filepath.Base(frame.Path) != wantNames[i] {
			t.Errorf("frame %d: indexed name %s, want %s", i, filepath.Base(frame.Path), wantNames[i])
		}
		if frame.OriginalName != wantOriginals[i] {
			t.Errorf("frame %d: original %s, want %s", i, frame.OriginalName, wantOriginals[i])
		}
		if _, err := os.Stat(frame.Path); err != nil {
			t.Errorf("frame %d: missing indexed file: %v", i, err)
		}
	}
}

func TestEnsureIndexedClearsStaleEntries(t *testing.T) {
	src := filepath.Join(t.TempDir(), "dress")
	writeFrames(t, src, "only.jpg")
	dst := src + "_indexed"
	writeFrames(t, dst, "000007.jpg")

	seq, err := EnsureIndexed(src, dst)
	if err != nil {
		t.Fatal(err)
	}
	if seq.Len() != 1 {
		t.Fatalf("expected 1 frame, got %d", seq.Len())
	}
	entries, err := os.ReadDir(dst)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "000000.jpg" {
		t.Fatalf("stale entries survived rebuild: %v", entries)
	}
}

func TestEnsureIndexedEmptySource(t *testing.T) {
	src := t.TempDir()
	_, err := EnsureIndexed(src, src+"_indexed")
	if !errors.Is(err, services.ErrNoFrames) {
		t.Fatalf("expected ErrNoFrames, got %v", err)
	}
}

func TestEnsureIndexedMissingSource(t *testing.T) {
	base := t.TempDir()
	_, err := EnsureIndexed(filepath.Join(base, "absent"), filepath.Join(base, "absent_indexed"))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestLoadDenseIndices(t *testing.T) {
	dir := t.TempDir()
	writeFrames(t, dir, "000000.jpg", "000001.jpg", "000002.jpg")

	seq, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	for i, frame := range seq.Frames {
		if frame.Index != i {
			t.Errorf("frame %d: index %d", i, frame.Index)
		}
	}
	if !seq.Contains(2) || seq.Contains(3) || seq.Contains(-1) {
		t.Fatal("Contains bounds check failed")
	}
	if _, err := seq.Frame(5); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestLoadEmptyDirectory(t *testing.T) {
	_, err := Load(t.TempDir())
	if !errors.Is(err, services.ErrNoFrames) {
		t.Fatalf("expected ErrNoFrames, got %v", err)
	}
}
