package discordipc

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// IsDiscordProcess reports whether a process name belongs to a Discord
// desktop client (stable, PTB, Canary or a packaged variant).
func IsDiscordProcess(name string) bool {
	name = strings.ToLower(strings.TrimSuffix(name, ".exe"))
	return strings.HasPrefix(name, "discord") && !strings.Contains(name, "helper")
}

// Running returns the names of running Discord client processes.
func Running(ctx context.Context) ([]string, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	seen := make(map[string]bool)
	var names []string
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil || !IsDiscordProcess(name) || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}
