// =============================================================================
// 📐 baseline 命令
// =============================================================================

package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/quill-ai/quill/config"
	"github.com/quill-ai/quill/perf"
)

func runBaseline(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: quill baseline <list|clear> [--config <path>]")
		os.Exit(1)
	}
	sub := args[0]

	fs := flag.NewFlagSet("baseline", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args[1:])

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	path := baselinePath(cfg)

	switch sub {
	case "list":
		store := perf.NewStore(path, logger)
		if err := store.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load baselines: %v\n", err)
			os.Exit(1)
		}
		if store.Len() == 0 {
			fmt.Println("No baselines stored")
			return
		}
		names := store.Metrics()
		sort.Strings(names)
		fmt.Printf("Baselines (%s):\n", path)
		for _, name := range names {
			b, _ := store.Get(name)
			fmt.Printf("  %-40s %12.2f  recorded %s\n",
				name, b.Value, b.RecordedAt.Format("2006-01-02 15:04:05"))
		}
	case "clear":
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Failed to clear baselines: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Baselines cleared")
	default:
		fmt.Fprintf(os.Stderr, "Unknown baseline subcommand: %s\n", sub)
		os.Exit(1)
	}
}
