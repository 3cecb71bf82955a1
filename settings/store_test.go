package settings

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultPathUsesXDGDataHome(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	got, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath() error: %v", err)
	}
	if want := filepath.Join(tmp, "xliffmerge", "auth.json"); got != want {
		t.Fatalf("DefaultPath() = %q, want %q", got, want)
	}
}

func TestStoreLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xliffmerge", "auth.json")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() of missing file: %v", err)
	}
	if len(s.Providers()) != 0 {
		t.Fatalf("new store has providers %v", s.Providers())
	}
	if err := s.Update("google", Entry{Key: "apikey123456"}); err != nil {
		t.Fatalf("Update(google): %v", err)
	}
	if err := s.Update("ollama", Entry{BaseURL: "http://gpu-box:11434/v1"}); err != nil {
		t.Fatalf("Update(ollama): %v", err)
	}
	if err := s.Update("ollama", Entry{Model: "llama3"}); err != nil {
		t.Fatalf("Update(ollama model): %v", err)
	}
	if err := s.Update("groq", Entry{}); err == nil {
		t.Fatalf("Update() with an empty entry should fail")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat auth.json: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Fatalf("auth.json mode = %o, want 600", info.Mode().Perm())
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !reflect.DeepEqual(s.Providers(), []string{"google", "ollama"}) {
		t.Fatalf("Providers() = %v", s.Providers())
	}
	if e, _ := s.Get("ollama"); e != (Entry{BaseURL: "http://gpu-box:11434/v1", Model: "llama3"}) {
		t.Fatalf("ollama entry = %+v, want endpoint and model merged", e)
	}

	if err := s.Delete("google"); err != nil {
		t.Fatalf("Delete(google): %v", err)
	}
	if err := s.Delete("missing"); err != nil {
		t.Fatalf("Delete(missing) should be a no-op: %v", err)
	}
	if _, ok := s.Get("google"); ok {
		t.Fatalf("google still stored")
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear(): %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("auth.json should be removed, stat err=%v", err)
	}
}

func TestOpenRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Open(path); err == nil {
		t.Fatalf("Open() of invalid JSON should fail")
	}
}

func TestNilStoreIsEmpty(t *testing.T) {
	var s *Store
	if _, ok := s.Get("google"); ok {
		t.Fatalf("nil store returned an entry")
	}
}
