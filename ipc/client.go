package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const socketPattern = "logrelay.*.sock"

func newUnixClient(socketPath string) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", socketPath)
			},
		},
		Timeout: 5 * time.Second,
	}
}

// SocketPath returns the socket path for the instance with the given pid.
func SocketPath(socketDir string, pid int) string {
	return filepath.Join(socketDir, fmt.Sprintf("logrelay.%d.sock", pid))
}

// ListSockets returns the sockets of all instances in socketDir.
func ListSockets(socketDir string) ([]string, error) {
	return filepath.Glob(filepath.Join(socketDir, socketPattern))
}

func ListInstances(socketDir string) ([]StatusResponse, error) {
	matches, err := ListSockets(socketDir)
	if err != nil {
		return nil, err
	}

	var instances []StatusResponse
	for _, socketPath := range matches {
		status, err := GetStatus(socketPath)
		if err != nil {
			// Skip dead sockets or permission denied
			continue
		}
		instances = append(instances, *status)
	}

	return instances, nil
}

func GetStatus(socketPath string) (*StatusResponse, error) {
	client := newUnixClient(socketPath)
	// URL host is ignored by unix dialer, but scheme must be http
	resp, err := client.Get("http://unix/status")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status: %s", resp.Status)
	}
	var status StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, err
	}
	return &status, nil
}

// RequestClear asks the instance behind socketPath to clear its tool buffer.
func RequestClear(socketPath string) error {
	client := newUnixClient(socketPath)
	resp, err := client.Post("http://unix/clear", "application/json", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var cr ClearResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return fmt.Errorf("server returned status %s: %w", resp.Status, err)
	}
	if resp.StatusCode != http.StatusOK || !cr.OK {
		return fmt.Errorf("clear failed: %s", cr.Error)
	}
	return nil
}

// RemoveStale deletes sockets in socketDir that no longer answer.
func RemoveStale(socketDir string) {
	matches, err := ListSockets(socketDir)
	if err != nil {
		return
	}
	for _, socketPath := range matches {
		if _, err := GetStatus(socketPath); err != nil {
			os.Remove(socketPath)
		}
	}
}
