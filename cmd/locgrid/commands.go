package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/locgrid/internal/csvcodec"
)

var errLintFailed = errors.New("lint found problems")

func newLintCmd(e *env) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "lint FILE...",
		Short: "Parse files and report dialect warnings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := false

			for _, path := range args {
				f, err := e.readInput(path)
				if err != nil {
					fmt.Fprintf(out, "%s: error: %v\n", path, err)
					failed = true
					continue
				}
				fmt.Fprintf(out, "%s: %d rows, language %s\n", path, len(f.result.Rows), e.aliases.Infer(f.name))
				for _, w := range f.result.Warnings {
					fmt.Fprintf(out, "%s: warning: %s\n", path, w)
				}
				if strict && len(f.result.Warnings) > 0 {
					failed = true
				}
			}

			if failed {
				return errLintFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as failures")
	return cmd
}

func newKeysCmd(e *env) *cobra.Command {
	var missing bool

	cmd := &cobra.Command{
		Use:   "keys FILE...",
		Short: "Print the merged, sorted key list of the files",
		Long: `Print every key found in any of the files, in editor order.

With --missing only keys that are empty in at least one file are printed,
followed by the files that lack them.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := e.readAll(args)
			if err != nil {
				return err
			}
			m := buildModel(files)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, k := range m.Keys() {
				if !missing {
					fmt.Fprintln(tw, k)
					continue
				}
				var lacking []string
				for i, f := range files {
					if strings.TrimSpace(m.Value(i, k)) == "" {
						lacking = append(lacking, f.name)
					}
				}
				if len(lacking) > 0 {
					fmt.Fprintf(tw, "%s\t%s\n", k, strings.Join(lacking, ", "))
				}
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&missing, "missing", false, "Only print keys missing from some file")
	return cmd
}

func newNormalizeCmd(e *env) *cobra.Command {
	var (
		outDir    string
		keepEmpty bool
	)

	cmd := &cobra.Command{
		Use:   "normalize --out DIR FILE...",
		Short: "Rewrite files in the canonical double-quoted form",
		Long: `Rewrite each file into DIR under its own name, exactly as the editor saves:
keys in editor order, values trimmed, empty translations dropped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := e.readAll(args)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}

			seen := make(map[string]string, len(files))
			for _, f := range files {
				if prev, ok := seen[f.name]; ok {
					return fmt.Errorf("%s and %s would both be written as %s", prev, f.path, f.name)
				}
				seen[f.name] = f.path
			}

			m := buildModel(files)
			for i, f := range files {
				pairs, err := m.OutputRows(i)
				if err != nil {
					return err
				}
				for j := range pairs {
					pairs[j].Value = strings.TrimSpace(pairs[j].Value)
				}
				// Keys only in other files have no row here; they stay out.
				pairs = ownKeys(pairs, f)

				dst := filepath.Join(outDir, f.name)
				if err := os.WriteFile(dst, []byte(csvcodec.Serialize(pairs, !keepEmpty)), 0o644); err != nil {
					return err
				}
				slog.Debug("normalized", "src", f.path, "dst", dst, "keys", len(pairs))
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", f.path, dst)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "", "Output directory (required)")
	cmd.Flags().BoolVar(&keepEmpty, "keep-empty", false, "Keep keys whose translation is empty")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// ownKeys drops pairs whose key does not appear in f.
func ownKeys(pairs []csvcodec.Pair, f *inputFile) []csvcodec.Pair {
	own := make(map[string]bool, len(f.result.Rows))
	for _, r := range f.result.Rows {
		own[r.Key()] = true
	}
	out := pairs[:0]
	for _, p := range pairs {
		if own[p.Key] {
			out = append(out, p)
		}
	}
	return out
}
