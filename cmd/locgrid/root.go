package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/locgrid/internal/config"
	"github.com/JonMunkholm/locgrid/internal/csvcodec"
	"github.com/JonMunkholm/locgrid/internal/lang"
	"github.com/JonMunkholm/locgrid/internal/logging"
	"github.com/JonMunkholm/locgrid/internal/table"
)

// env is what every subcommand shares after the root pre-run.
type env struct {
	cfg     *config.Config
	aliases *lang.Aliases
}

func newRootCmd() *cobra.Command {
	e := &env{}
	var logLevel string

	root := &cobra.Command{
		Use:   "locgrid",
		Short: "Inspect and normalize localization CSV files",
		Long: `locgrid works on per-language CSV files of "key","translation" rows.

It reads the same dialect as the locgrid editor: single or double quotes,
backslash escapes, optional BOM. Output is always double-quoted.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if logLevel == "" {
				logLevel = cfg.Logging.Level
			}
			logging.SetupWriter(cmd.ErrOrStderr(), logLevel, cfg.Logging.Format)

			e.cfg = cfg
			e.aliases = lang.DefaultAliases()
			if cfg.Languages.AliasFile != "" {
				if e.aliases, err = lang.LoadAliases(cfg.Languages.AliasFile); err != nil {
					return err
				}
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default LOG_LEVEL)")

	root.AddCommand(newLintCmd(e))
	root.AddCommand(newKeysCmd(e))
	root.AddCommand(newNormalizeCmd(e))
	return root
}

// inputFile is one parsed command-line file.
type inputFile struct {
	path   string
	name   string
	result *csvcodec.Result
}

// readInput reads and parses path, enforcing the configured size ceiling.
func (e *env) readInput(path string) (*inputFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if limit := e.cfg.Upload.MaxFileSize; info.Size() > limit {
		return nil, fmt.Errorf("%s: file too large (%d bytes, limit %d)", path, info.Size(), limit)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	res, err := csvcodec.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &inputFile{path: path, name: filepath.Base(path), result: res}, nil
}

// readAll parses every path. Unlike the editor it reports all failures
// rather than stopping at the first.
func (e *env) readAll(paths []string) ([]*inputFile, error) {
	var (
		files []*inputFile
		errs  []string
	)
	for _, p := range paths {
		f, err := e.readInput(p)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		files = append(files, f)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%d of %d files failed:\n  %s", len(errs), len(paths), strings.Join(errs, "\n  "))
	}
	return files, nil
}

func buildModel(files []*inputFile) *table.Model {
	datasets := make([]*table.Dataset, len(files))
	for i, f := range files {
		datasets[i] = &table.Dataset{Name: f.name, Rows: f.result.Rows}
	}
	return table.New(datasets)
}
