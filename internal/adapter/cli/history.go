package cli

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/bnema/mediaq/config"
	"github.com/bnema/mediaq/internal/adapter/storage/jsonfile"
	sqlitestore "github.com/bnema/mediaq/internal/adapter/storage/sqlite"
	"github.com/bnema/mediaq/internal/port"
)

func runHistory(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "number of most recent jobs to show (0 for all)")
	export := fs.String("export", "", "also write the listed entries to this JSON file")
	fs.SetOutput(out)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := openHistoryStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.List(*limit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if *export != "" {
		if err := jsonfile.ExportHistory(*export, entries); err != nil {
			return fmt.Errorf("failed to export history: %w", err)
		}
	}

	_, err = fmt.Fprintln(out, historyTable(entries))
	return err
}

// openHistoryStore creates the data directory and opens the backend named by
// HISTORY_BACKEND.
func openHistoryStore(cfg *config.Config) (port.HistoryStore, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	switch cfg.HistoryBackend {
	case config.HistoryBackendJSON:
		store, err := jsonfile.NewHistoryStore(cfg.DataDir, cfg.HistoryLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		return store, nil
	default:
		store, err := sqlitestore.NewHistoryStore(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		return store, nil
	}
}
