// Command focuswatch is a terminal dashboard for a running focusbooster.
//
// Usage:
//
//	focuswatch [-url ws://127.0.0.1:8080/ws/status]
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/teslashibe/focus-booster/pkg/watch"
)

func main() {
	wsURL := flag.String("url", "ws://127.0.0.1:8080/ws/status", "focusbooster status WebSocket URL")
	api := flag.String("api", "", "HTTP API base (derived from -url when empty)")
	flag.Parse()

	base := *api
	if base == "" {
		base = watch.HTTPBase(*wsURL)
	}

	m := watch.NewModel(watch.NewClient(*wsURL), base)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
