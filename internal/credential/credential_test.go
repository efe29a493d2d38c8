package credential

import (
	"os"
	"path/filepath"
	"testing"

	"edu_dashboard_client/internal/model"
)

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)

	rec := Record{
		Token: "jwt-token",
		User:  &model.User{ID: "u1", Name: "Alice", Role: model.Lecturer},
	}
	if err := s.Save(rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got == nil || got.Token != "jwt-token" {
		t.Fatalf("loaded = %+v", got)
	}
	if got.User == nil || got.User.ID != "u1" || got.User.Role != model.Lecturer {
		t.Errorf("loaded user = %+v", got.User)
	}

	info, err := os.Stat(filepath.Join(dir, "session.json"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file mode = %o, want 0600", perm)
	}
}

func TestFileStore_LoadMissingFile(t *testing.T) {
	s := NewFileStore(t.TempDir())

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != nil {
		t.Errorf("loaded = %+v, want nil for missing file", got)
	}
}

func TestFileStore_LoadEmptyTokenTreatedAsMissing(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)

	if err := os.WriteFile(filepath.Join(dir, "session.json"), []byte(`{"token":""}`), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != nil {
		t.Errorf("loaded = %+v, want nil for empty token", got)
	}
}

func TestFileStore_ClearIdempotent(t *testing.T) {
	s := NewFileStore(t.TempDir())

	if err := s.Save(Record{Token: "tok"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Errorf("second Clear() error = %v", err)
	}

	got, err := s.Load()
	if err != nil || got != nil {
		t.Errorf("Load() after Clear = %+v, %v", got, err)
	}
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	s := NewFileStore(t.TempDir())

	if err := s.Save(Record{Token: "old"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(Record{Token: "new"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Token != "new" {
		t.Errorf("token = %q, want new", got.Token)
	}
}
