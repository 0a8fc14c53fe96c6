//go:build unix

package ipc

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"syscall"
)

// listenSecure listens with a 0077 umask so the socket is only reachable
// by the current user.
func listenSecure(network, address string) (net.Listener, error) {
	oldMask := syscall.Umask(0077)
	defer syscall.Umask(oldMask)

	return net.Listen(network, address)
}

// EnsureSecureDirectory makes sure path is a real directory (not a
// symlink) with mode 0700 owned by the current user, creating it if needed.
func EnsureSecureDirectory(path string) error {
	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0700); err != nil {
			return err
		}
		info, err = os.Lstat(path)
	}
	if err != nil {
		return err
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return fmt.Errorf("%s is a symlink", path)
	case !info.IsDir():
		return fmt.Errorf("%s is not a directory", path)
	}

	if mode := info.Mode().Perm(); mode != 0700 {
		if err := os.Chmod(path, 0700); err != nil {
			return fmt.Errorf("insecure permissions on %s (%o) and failed to fix: %w", path, mode, err)
		}
	}

	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		if uid := uint32(os.Getuid()); stat.Uid != uid {
			return fmt.Errorf("insecure ownership on %s: owned by uid %d, expected %d", path, stat.Uid, uid)
		}
	}

	return nil
}

// GetSocketDir returns the per-user socket directory.
func GetSocketDir() string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("logrelay-%d", os.Getuid()))
}
