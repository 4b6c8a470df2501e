package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root string, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte("placeholder"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "math/9/pythagoras.yaml")
	writeFile(t, root, "math/9/fractions.yml")
	writeFile(t, root, "physics/gravity.yaml")
	writeFile(t, root, "notes.txt")
	writeFile(t, root, "README.md")
	writeFile(t, root, ".cache/state.yaml")

	files, err := Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	got := make(map[string]bool, len(files))
	for _, f := range files {
		got[f.RelPath] = true
		if !filepath.IsAbs(f.AbsPath) {
			t.Errorf("AbsPath %q is not absolute", f.AbsPath)
		}
	}

	want := []string{"math/9/pythagoras.yaml", "math/9/fractions.yml", "physics/gravity.yaml"}
	if len(got) != len(want) {
		t.Errorf("Scan() found %d files, want %d: %v", len(got), len(want), got)
	}
	for _, rel := range want {
		if !got[rel] {
			t.Errorf("Scan() missing %q", rel)
		}
	}
	if got[".cache/state.yaml"] {
		t.Error("Scan() descended into a hidden directory")
	}
}

func TestScan_EmptyRoot(t *testing.T) {
	files, err := Scan(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(files) != 0 {
		t.Errorf("Scan() = %d files, want 0", len(files))
	}
}

func TestScan_MissingRoot(t *testing.T) {
	if _, err := Scan(context.Background(), filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("Scan() expected error for missing root, got nil")
	}
}

func TestScan_RootIsFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "doc.yaml")

	if _, err := Scan(context.Background(), filepath.Join(root, "doc.yaml")); err == nil {
		t.Error("Scan() expected error for non-directory root, got nil")
	}
}

func TestScan_CancelledContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "doc.yaml")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Scan(ctx, root); err == nil {
		t.Error("Scan() expected error for cancelled context, got nil")
	}
}
