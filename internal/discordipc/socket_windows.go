//go:build windows

package discordipc

import (
	"context"
	"fmt"
	"net"

	"github.com/Microsoft/go-winio"
)

// SocketPaths lists the named pipes Discord may listen on.
func SocketPaths() []string {
	paths := make([]string, 0, 10)
	for i := range 10 {
		paths = append(paths, fmt.Sprintf(`\\.\pipe\discord-ipc-%d`, i))
	}
	return paths
}

// ExistingSocketPaths returns the pipes that accept a connection. Named pipes
// cannot be stat'ed, so each one is probed.
func ExistingSocketPaths() []string {
	var found []string
	for _, p := range SocketPaths() {
		nc, err := dialPath(context.Background(), p)
		if err != nil {
			continue
		}
		_ = nc.Close()
		found = append(found, p)
	}
	return found
}

func dialPath(ctx context.Context, path string) (net.Conn, error) {
	return winio.DialPipeContext(ctx, path)
}
