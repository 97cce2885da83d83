package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tempStore(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempStore(t)
	content := []byte(`{"id":"rs-abc"}`)
	if err := s.Write("sessions/rs-abc.json", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("sessions/rs-abc.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	s := tempStore(t)
	if err := s.Write("results/out.json", []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(s.root, "results"))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tsai-tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestDelete(t *testing.T) {
	s := tempStore(t)
	_ = s.Write("sessions/del.json", []byte("bye"))
	if err := s.Delete("sessions/del.json"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("sessions/del.json"); err == nil {
		t.Error("expected error reading deleted file")
	}
}

func TestList(t *testing.T) {
	s := tempStore(t)
	_ = s.Write("sessions/a.json", []byte("a"))
	_ = s.Write("sessions/b.json", []byte("b"))
	_ = s.Write("sessions/ignore.txt", []byte("x"))
	paths, err := s.List("sessions", ".json")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 2 {
		t.Errorf("paths = %v, want 2 json files", paths)
	}
}

func TestListMissingDir(t *testing.T) {
	s := tempStore(t)
	paths, err := s.List("sessions", ".json")
	if err != nil {
		t.Fatalf("List on missing dir: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("paths = %v, want none", paths)
	}
}

func TestPathEscapeRejected(t *testing.T) {
	s := tempStore(t)
	if _, err := s.Abs("../outside.json"); err == nil {
		t.Error("traversal must be rejected")
	}
	if err := s.Write("../outside.json", []byte("x")); err == nil {
		t.Error("traversal write must be rejected")
	}
}
