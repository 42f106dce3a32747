package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lkaiser/livecap/internal/app"
	"github.com/lkaiser/livecap/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to livecap.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "livecap: %v\n", err)
		os.Exit(1)
	}

	// livecap [dir] [#MM:SS]
	// The fragment is the tail of a shared link; playback seeks there once
	// the file's metadata is known.
	dir := "."
	deepLink := ""
	for _, arg := range flag.Args() {
		if strings.HasPrefix(arg, "#") {
			deepLink = arg
			continue
		}
		dir = arg
	}

	p := tea.NewProgram(app.New(cfg, dir, deepLink), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "livecap: %v\n", err)
		os.Exit(1)
	}
}
