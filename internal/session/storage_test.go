package session

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestFileStorage_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teller", "session.json")
	fs := NewFileStorage(path)

	if _, ok, err := fs.Get("token"); err != nil || ok {
		t.Fatalf("Get on missing file = ok %v, err %v; want false, nil", ok, err)
	}
	if err := fs.Set("token", "abc"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	got, ok, err := fs.Get("token")
	if err != nil || !ok {
		t.Fatalf("Get() = ok %v, err %v", ok, err)
	}
	if got != "abc" {
		t.Errorf("Get() = %q, want %q", got, "abc")
	}

	// Another handle on the same file sees the write.
	other := NewFileStorage(path)
	if got, _, _ := other.Get("token"); got != "abc" {
		t.Errorf("second handle Get() = %q, want %q", got, "abc")
	}
}

func TestFileStorage_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	dir := filepath.Join(t.TempDir(), "teller")
	path := filepath.Join(dir, "session.json")
	if err := NewFileStorage(path).Set("token", "abc"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := fi.Mode().Perm(); perm != 0600 {
		t.Errorf("file perm = %o, want 600", perm)
	}
	di, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	if perm := di.Mode().Perm(); perm != 0700 {
		t.Errorf("dir perm = %o, want 700", perm)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}
}

func TestFileStorage_DeleteRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	fs := NewFileStorage(path)
	if err := fs.Set("token", "abc"); err != nil {
		t.Fatal(err)
	}
	if err := fs.Set("user", "{}"); err != nil {
		t.Fatal(err)
	}

	if err := fs.Delete("token"); err != nil {
		t.Fatalf("Delete(token) error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file removed while keys remain: %v", err)
	}
	if err := fs.Delete("token", "user"); err != nil {
		t.Fatalf("Delete(token, user) error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Stat after deleting all keys = %v, want not exist", err)
	}
	// Deleting again is a no-op.
	if err := fs.Delete("token", "user"); err != nil {
		t.Errorf("second Delete() error: %v", err)
	}
}

func TestFileStorage_CorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	fs := NewFileStorage(path)

	if _, _, err := fs.Get("token"); err == nil {
		t.Error("Get() on corrupt file: expected error")
	}
	if err := fs.Set("token", "fresh"); err != nil {
		t.Fatalf("Set() over corrupt file error: %v", err)
	}
	if got, ok, err := fs.Get("token"); err != nil || !ok || got != "fresh" {
		t.Errorf("Get() = %q, %v, %v; want fresh, true, nil", got, ok, err)
	}
}

func TestMemoryStorage(t *testing.T) {
	m := NewMemoryStorage()
	m.Set("a", "1") //nolint:errcheck
	m.Set("b", "2") //nolint:errcheck
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
	m.Delete("a", "b", "missing") //nolint:errcheck
	if m.Len() != 0 {
		t.Errorf("Len() after Delete = %d, want 0", m.Len())
	}
}
