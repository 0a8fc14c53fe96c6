package ipc

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestGetSocketDir(t *testing.T) {
	dir := GetSocketDir()
	want := "logrelay"
	if runtime.GOOS != "windows" {
		want = fmt.Sprintf("logrelay-%d", os.Getuid())
	}
	if filepath.Base(dir) != want {
		t.Errorf("GetSocketDir() = %s, expected base %s", dir, want)
	}
}

func TestSocketPath(t *testing.T) {
	dir := t.TempDir()
	p := SocketPath(dir, 42)
	if filepath.Base(p) != "logrelay.42.sock" {
		t.Errorf("Unexpected socket name %s", p)
	}

	if err := os.WriteFile(p, nil, 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "other.sock"), nil, 0600); err != nil {
		t.Fatal(err)
	}
	sockets, err := ListSockets(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(sockets) != 1 || sockets[0] != p {
		t.Errorf("ListSockets = %v, want [%s]", sockets, p)
	}
}

func TestEnsureSecureDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	unix := runtime.GOOS != "windows"

	fresh := filepath.Join(tmpDir, "fresh")
	if err := EnsureSecureDirectory(fresh); err != nil {
		t.Fatalf("Creating directory failed: %v", err)
	}
	info, err := os.Stat(fresh)
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsDir() {
		t.Error("Expected a directory")
	}
	if unix && info.Mode().Perm() != 0700 {
		t.Errorf("Expected 0700, got %o", info.Mode().Perm())
	}

	if err := EnsureSecureDirectory(fresh); err != nil {
		t.Errorf("Existing secure directory should pass: %v", err)
	}

	file := filepath.Join(tmpDir, "file")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := EnsureSecureDirectory(file); err == nil {
		t.Error("Expected error for a regular file")
	}

	if !unix {
		return
	}

	loose := filepath.Join(tmpDir, "loose")
	if err := os.Mkdir(loose, 0777); err != nil {
		t.Fatal(err)
	}
	if err := EnsureSecureDirectory(loose); err != nil {
		t.Fatalf("Fixing permissions failed: %v", err)
	}
	info, _ = os.Stat(loose)
	if info.Mode().Perm() != 0700 {
		t.Errorf("Expected 0700 after fix, got %o", info.Mode().Perm())
	}

	link := filepath.Join(tmpDir, "link")
	if err := os.Symlink(fresh, link); err != nil {
		t.Fatal(err)
	}
	if err := EnsureSecureDirectory(link); err == nil {
		t.Error("Expected error for a symlink")
	}
}
