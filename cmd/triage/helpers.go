package main

import (
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/panbanda/triage/internal/logging"
	"github.com/panbanda/triage/internal/output"
	"github.com/panbanda/triage/pkg/config"
	"github.com/panbanda/triage/pkg/store/badgerstore"
	"github.com/urfave/cli/v2"
)

// loadConfig reads --config when given and otherwise searches the default
// locations. --store overrides the configured database path.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.LoadOrDefault()
	}
	if path := c.String("store"); path != "" {
		cfg.Store.Path = path
	}
	return cfg, nil
}

// newLogger logs to stderr so structured report output on stdout stays clean.
func newLogger(c *cli.Context, cfg *config.Config) (*slog.Logger, error) {
	level := cfg.Log.Level
	if c.Bool("verbose") {
		level = "debug"
	}
	return logging.New(os.Stderr, level, cfg.Log.Format)
}

func openStore(cfg *config.Config, logger *slog.Logger) (*badgerstore.Store, error) {
	return badgerstore.Open(badgerstore.Config{
		Path:   cfg.Store.Path,
		Logger: logger,
	})
}

func newFormatter(c *cli.Context) (*output.Formatter, error) {
	return output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), !color.NoColor)
}
