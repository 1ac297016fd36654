//go:build !windows

package discordipc

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
)

// Flatpak and Snap builds of Discord put the socket in a subdirectory.
var socketSubdirs = []string{"", "app/com.discordapp.Discord", "snap.discord"}

func socketBaseDir() string {
	for _, env := range []string{"XDG_RUNTIME_DIR", "TMPDIR", "TMP", "TEMP"} {
		if dir := os.Getenv(env); dir != "" {
			return dir
		}
	}
	return "/tmp"
}

// SocketPaths lists the socket locations Discord may listen on, in the order
// they are tried.
func SocketPaths() []string {
	base := socketBaseDir()
	var paths []string
	for _, sub := range socketSubdirs {
		for i := range 10 {
			paths = append(paths, filepath.Join(base, sub, fmt.Sprintf("discord-ipc-%d", i)))
		}
	}
	return paths
}

// ExistingSocketPaths returns the candidates that exist on disk.
func ExistingSocketPaths() []string {
	var found []string
	for _, p := range SocketPaths() {
		if info, err := os.Stat(p); err == nil && info.Mode()&os.ModeSocket != 0 {
			found = append(found, p)
		}
	}
	return found
}

func dialPath(ctx context.Context, path string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", path)
}
