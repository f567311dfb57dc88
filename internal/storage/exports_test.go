package storage

import (
	"os"
	"strings"
	"testing"
)

func TestSaveAndRead(t *testing.T) {
	e, err := NewExporter(t.TempDir())
	if err != nil {
		t.Fatalf("NewExporter error: %v", err)
	}

	name, err := e.Save("a4sHHnlasPQ", "formatted", "Hello, world.")
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if name != "a4sHHnlasPQ.formatted.txt" {
		t.Errorf("Save returned name %q", name)
	}

	got, err := e.Read(name)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if got != "Hello, world." {
		t.Errorf("Read = %q, want %q", got, "Hello, world.")
	}
}

func TestSaveUnknownKind(t *testing.T) {
	e, err := NewExporter(t.TempDir())
	if err != nil {
		t.Fatalf("NewExporter error: %v", err)
	}

	_, err = e.Save("vid", "srt", "text")
	if err == nil {
		t.Fatal("Save with unknown kind should fail")
	}
	for _, kind := range ExportKinds() {
		if !strings.Contains(err.Error(), kind) {
			t.Errorf("error should list %q, got %q", kind, err.Error())
		}
	}
}

func TestReadRejectsTraversal(t *testing.T) {
	e, err := NewExporter(t.TempDir())
	if err != nil {
		t.Fatalf("NewExporter error: %v", err)
	}

	for _, name := range []string{"../secret.txt", "..", "a/../../b.txt"} {
		if _, err := e.Read(name); err != os.ErrPermission {
			t.Errorf("Read(%q) = %v, want os.ErrPermission", name, err)
		}
	}
}

func TestListSkipsNonExports(t *testing.T) {
	dir := t.TempDir()
	e, err := NewExporter(dir)
	if err != nil {
		t.Fatalf("NewExporter error: %v", err)
	}

	if _, err := e.Save("older", "transcript", "one"); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if _, err := e.Save("newer", "transcript", "two"); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	// Hidden files and subdirectories are not exports.
	if err := os.WriteFile(dir+"/.hidden", []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(dir+"/sub", 0o755); err != nil {
		t.Fatal(err)
	}

	entries, err := e.List()
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(List) = %d, want 2", len(entries))
	}
	for _, entry := range entries {
		if entry.Name == ".hidden" || entry.Name == "sub" {
			t.Errorf("List should skip %q", entry.Name)
		}
	}
}
